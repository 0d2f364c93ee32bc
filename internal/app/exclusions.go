package app

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"adaptive-quiz-service/internal/domain"
)

// ExclusionSet is the per-user view over an ExclusionStore. It cleans and
// normalizes candidates before they reach storage.
type ExclusionSet struct {
	store  ExclusionStore
	maxLen int
}

func NewExclusionSet(store ExclusionStore, maxLen int) *ExclusionSet {
	if maxLen <= 0 {
		maxLen = 1000
	}
	return &ExclusionSet{store: store, maxLen: maxLen}
}

func (e *ExclusionSet) Count(ctx context.Context, username string) (int, error) {
	n, err := e.store.Count(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("count exclusions: %w", err)
	}
	return n, nil
}

// List returns stored questions in insertion order.
func (e *ExclusionSet) List(ctx context.Context, username string) ([]string, error) {
	list, err := e.store.List(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list exclusions: %w", err)
	}
	return list, nil
}

// Merge adds candidates not yet present and returns how many were added.
// Blank and oversized candidates are dropped.
func (e *ExclusionSet) Merge(ctx context.Context, username string, candidates []string) (int, error) {
	entries := e.prepare(candidates)
	if len(entries) == 0 {
		return 0, nil
	}
	added, err := e.store.Merge(ctx, username, entries)
	if err != nil {
		return 0, fmt.Errorf("merge exclusions: %w", err)
	}
	return added, nil
}

func (e *ExclusionSet) prepare(candidates []string) []domain.ExclusionEntry {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]domain.ExclusionEntry, 0, len(candidates))
	for _, c := range candidates {
		clean := strings.TrimSpace(c)
		if clean == "" || utf8.RuneCountInString(clean) > e.maxLen {
			continue
		}
		norm := domain.NormalizeQuestion(clean)
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, domain.ExclusionEntry{Question: clean, Normalized: norm})
	}
	return out
}
