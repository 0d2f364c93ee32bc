package domain

import "strings"

// NormalizeQuestion folds case and collapses whitespace so that near-identical
// phrasings compare equal.
func NormalizeQuestion(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

// CleanQuestion trims q and collapses internal whitespace but keeps casing
// and punctuation. This is the stored form.
func CleanQuestion(q string) string {
	return strings.Join(strings.Fields(q), " ")
}
