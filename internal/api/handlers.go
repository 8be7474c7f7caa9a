package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/cinematch/backend/internal/chat"
	"github.com/cinematch/backend/internal/engine"
)

const maxBodyBytes = 64 << 10

type RecommendResponse struct {
	Title   string                  `json:"title"`
	Found   bool                    `json:"found"`
	Results []engine.Recommendation `json:"results"`
}

type SearchResponse struct {
	Query   string                  `json:"query"`
	Results []engine.Recommendation `json:"results"`
}

type TitleView struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Categories string `json:"categories"`
}

type TitlesResponse struct {
	Query  string      `json:"query"`
	Titles []TitleView `json:"titles"`
}

type StatusResponse struct {
	engine.Stats
	Uptime string `json:"uptime"`
}

type MessageRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

type recommendQuery struct {
	Title string `validate:"required"`
	N     int    `validate:"gte=0"`
}

// Handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	n, err := s.intParam(r, "n")
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "Parameter 'n' must be an integer")
		return
	}

	q := recommendQuery{Title: r.URL.Query().Get("title"), N: n}
	if err := s.validate.Struct(q); err != nil {
		errorResponse(w, http.StatusBadRequest, "Parameter 'title' is required and 'n' must not be negative")
		return
	}

	_, found := s.Engine.Lookup(q.Title)
	jsonResponse(w, http.StatusOK, RecommendResponse{
		Title:   q.Title,
		Found:   found,
		Results: s.Engine.Recommend(q.Title, q.N),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		errorResponse(w, http.StatusBadRequest, "Query 'q' is required")
		return
	}
	k, err := s.intParam(r, "k")
	if err != nil || k < 0 {
		errorResponse(w, http.StatusBadRequest, "Parameter 'k' must be a non-negative integer")
		return
	}

	jsonResponse(w, http.StatusOK, SearchResponse{
		Query:   query,
		Results: s.Engine.Search(query, k),
	})
}

func (s *Server) handleTitles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		errorResponse(w, http.StatusBadRequest, "Query 'q' is required")
		return
	}
	limit, err := s.intParam(r, "limit")
	if err != nil || limit < 0 {
		errorResponse(w, http.StatusBadRequest, "Parameter 'limit' must be a non-negative integer")
		return
	}

	matches := s.Engine.Titles(query, limit)
	resp := TitlesResponse{Query: query, Titles: make([]TitleView, len(matches))}
	for i, e := range matches {
		resp.Titles[i] = TitleView{ID: e.ID, Title: e.Title, Categories: e.CategoryString()}
	}
	jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, StatusResponse{
		Stats:  s.Engine.Stats(),
		Uptime: time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.Chat.Start(r.Context())
	if err != nil {
		s.chatError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, session)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.Chat.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.chatError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, session)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Field 'text' is required and limited to 1000 characters")
		return
	}

	reply, err := s.Chat.Reply(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		s.chatError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, reply)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Chat.End(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.chatError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) chatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrSessionNotFound):
		errorResponse(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, chat.ErrEmptyMessage):
		errorResponse(w, http.StatusBadRequest, "Message text is empty")
	default:
		s.Logger.WithError(err).Error("Chat request failed")
		errorResponse(w, http.StatusInternalServerError, "Internal error")
	}
}

// intParam reads an optional integer query parameter.
// Missing values take the configured default and large values are capped.
func (s *Server) intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return s.recommender.DefaultN, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v > s.recommender.MaxN {
		v = s.recommender.MaxN
	}
	return v, nil
}
