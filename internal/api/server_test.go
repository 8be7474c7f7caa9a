package api_test

import (
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinematch/backend/internal/api"
	"github.com/cinematch/backend/internal/catalog"
	"github.com/cinematch/backend/internal/chat"
	"github.com/cinematch/backend/internal/config"
	"github.com/cinematch/backend/internal/engine"
)

func setupServer(t *testing.T) *api.Server {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	entry := logrus.NewEntry(logger)

	entries := []catalog.Entry{
		catalog.NewEntry(0, "Toy Story (1995)", []string{"Animation", "Children", "Comedy"}),
		catalog.NewEntry(1, "Jumanji (1995)", []string{"Adventure", "Children", "Fantasy"}),
		catalog.NewEntry(2, "Heat (1995)", []string{"Action", "Crime", "Thriller"}),
		catalog.NewEntry(3, "Sabrina (1995)", []string{"Romance"}),
	}
	eng, err := engine.New(entries, engine.Fit(entries), entry)
	require.NoError(t, err)

	cfg := &config.Config{
		Server:      config.ServerConfig{Addr: ":0", RateLimitRequests: 1000, CORSOrigins: "*"},
		Recommender: config.RecommenderConfig{DefaultN: 10, MaxN: 2},
		Chat:        config.ChatConfig{PoolSize: 25, ShortlistSize: 6},
	}
	conv := chat.NewConversation(eng, chat.NewMemoryStore(), cfg.Chat, entry, rand.New(rand.NewPCG(1, 2)))

	return api.NewServer(eng, conv, cfg, entry)
}

func do(t *testing.T, s *api.Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	s := setupServer(t)

	w := do(t, s, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHandleRecommend(t *testing.T) {
	s := setupServer(t)

	w := do(t, s, http.MethodGet, "/api/v1/recommend?title=toy+story+(1995)&n=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp api.RecommendResponse
	decode(t, w, &resp)
	assert.True(t, resp.Found)
	// n is capped at the configured maximum of 2
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Jumanji (1995)", resp.Results[0].Title)
	assert.Equal(t, "Adventure|Children|Fantasy", resp.Results[0].Categories)
}

func TestHandleRecommend_UnknownTitle(t *testing.T) {
	s := setupServer(t)

	w := do(t, s, http.MethodGet, "/api/v1/recommend?title=Nope", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	decode(t, w, &resp)
	assert.Equal(t, false, resp["found"])
	assert.Equal(t, []interface{}{}, resp["results"])
}

func TestHandleRecommend_BadRequest(t *testing.T) {
	s := setupServer(t)

	for _, target := range []string{
		"/api/v1/recommend",
		"/api/v1/recommend?title=Heat+(1995)&n=abc",
		"/api/v1/recommend?title=Heat+(1995)&n=-1",
	} {
		w := do(t, s, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, target)

		var resp api.ErrorResponse
		decode(t, w, &resp)
		assert.NotEmpty(t, resp.Error)
	}
}

func TestHandleSearch(t *testing.T) {
	s := setupServer(t)

	w := do(t, s, http.MethodGet, "/api/v1/search?q=romance", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.SearchResponse
	decode(t, w, &resp)
	assert.Equal(t, "romance", resp.Query)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Sabrina (1995)", resp.Results[0].Title)

	w = do(t, s, http.MethodGet, "/api/v1/search", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleTitles(t *testing.T) {
	s := setupServer(t)

	w := do(t, s, http.MethodGet, "/api/v1/titles?q=HEAT", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.TitlesResponse
	decode(t, w, &resp)
	require.Len(t, resp.Titles, 1)
	assert.Equal(t, api.TitleView{ID: 2, Title: "Heat (1995)", Categories: "Action|Crime|Thriller"}, resp.Titles[0])
}

func TestHandleStatus(t *testing.T) {
	s := setupServer(t)

	w := do(t, s, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	decode(t, w, &resp)
	assert.Equal(t, 4.0, resp["catalog_size"])
	assert.Contains(t, resp, "vocabulary_size")
	assert.Contains(t, resp, "fingerprint")
	assert.Contains(t, resp, "uptime")
}

func TestChatSessionLifecycle(t *testing.T) {
	s := setupServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/chat/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var session chat.Session
	decode(t, w, &session)
	require.NotEmpty(t, session.ID)
	assert.Equal(t, chat.StepMood, session.Step)

	base := "/api/v1/chat/sessions/" + session.ID

	answers := []string{"cheerful", "animation", "balanced", "toy story", "whatever"}
	for _, text := range answers {
		w = do(t, s, http.MethodPost, base+"/messages", `{"text":"`+text+`"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = do(t, s, http.MethodPost, base+"/messages", `{"text":"no preference"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var reply chat.Reply
	decode(t, w, &reply)
	assert.Equal(t, chat.StepRecommended, reply.Session.Step)
	assert.Equal(t, "Toy Story (1995)", reply.Session.Seed)
	require.Len(t, reply.Recommendations, 1)
	assert.Equal(t, "Jumanji (1995)", reply.Recommendations[0].Title)

	w = do(t, s, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &session)
	assert.Len(t, session.History, 13)

	w = do(t, s, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, s, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendMessage_Validation(t *testing.T) {
	s := setupServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/chat/sessions", "")
	var session chat.Session
	decode(t, w, &session)
	target := "/api/v1/chat/sessions/" + session.ID + "/messages"

	tests := []struct {
		name string
		body string
		code int
	}{
		{"Invalid JSON", `{"text":`, http.StatusBadRequest},
		{"Missing text", `{}`, http.StatusBadRequest},
		{"Blank text", `{"text":"   "}`, http.StatusBadRequest},
		{"Too long", `{"text":"` + strings.Repeat("a", 1001) + `"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, target, tt.body)
			assert.Equal(t, tt.code, w.Code)
		})
	}

	w = do(t, s, http.MethodPost, "/api/v1/chat/sessions/unknown/messages", `{"text":"hi"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupServer(t)
	do(t, s, http.MethodGet, "/api/v1/status", "")

	w := do(t, s, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "api_requests_total")
	assert.Contains(t, w.Body.String(), `endpoint="/api/v1/status"`)
}
