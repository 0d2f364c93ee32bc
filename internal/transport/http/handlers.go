package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/domain"
)

const maxBodyBytes = 64 << 10

// Handler serves the REST surface of the session engine.
type Handler struct {
	service *app.SessionService
}

func NewHandler(service *app.SessionService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the REST routes onto mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.health)

	mux.HandleFunc("POST /v1/users", h.register)
	mux.HandleFunc("GET /v1/users/{username}", h.getUser)
	mux.HandleFunc("GET /v1/users/{username}/history", h.history)
	mux.HandleFunc("GET /v1/users/{username}/topics", h.topics)
	mux.HandleFunc("GET /v1/users/{username}/exclusions", h.exclusions)

	mux.HandleFunc("POST /v1/sessions", h.startSession)
	mux.HandleFunc("GET /v1/sessions/{id}", h.getSession)
	mux.HandleFunc("POST /v1/sessions/{id}/questions", h.nextQuestion)
	mux.HandleFunc("POST /v1/sessions/{id}/answers", h.gradeAnswer)
	mux.HandleFunc("POST /v1/sessions/{id}/conclude", h.conclude)

	mux.HandleFunc("GET /v1/leaderboard", h.leaderboard)
}

type registerRequest struct {
	Username string `json:"username"`
}

type startSessionRequest struct {
	Username   string `json:"username"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type sessionResponse struct {
	Session domain.Session       `json:"session"`
	Items   []domain.SessionItem `json:"items"`
}

type exclusionsResponse struct {
	Count     int      `json:"count"`
	Questions []string `json:"questions"`
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.service.Register(r.Context(), req.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.User(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := h.service.History(r.Context(), r.PathValue("username"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": records})
}

func (h *Handler) topics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.service.CompletedTopics(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, err)
		return
	}
	if topics == nil {
		topics = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
}

func (h *Handler) exclusions(w http.ResponseWriter, r *http.Request) {
	count, list, err := h.service.Exclusions(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []string{}
	}
	writeJSON(w, http.StatusOK, exclusionsResponse{Count: count, Questions: list})
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	session, err := h.service.StartSession(r.Context(), req.Username, req.Topic, req.Difficulty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	session, items, err := h.service.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []domain.SessionItem{}
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: session, Items: items})
}

func (h *Handler) nextQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.NextQuestion(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *Handler) gradeAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.service.GradeAnswer(r.Context(), r.PathValue("id"), req.Answer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) conclude(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Conclude(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &domain.ValidationError{Field: "body", Reason: "required"}
		}
		return &domain.ValidationError{Field: "body", Reason: "malformed JSON"}
	}
	return nil
}

// queryLimit parses ?limit=; zero means the service default.
func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &domain.ValidationError{Field: "limit", Reason: "must be a non-negative integer"}
	}
	return n, nil
}
