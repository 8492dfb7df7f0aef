package routes_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/m-mizutani/gt"
	"github.com/prometheus/client_golang/prometheus"

	"gamo-keyword-api/internal/ai"
	"gamo-keyword-api/internal/config"
	"gamo-keyword-api/internal/store"
	"gamo-keyword-api/middleware"
	"gamo-keyword-api/models"
	"gamo-keyword-api/routes"
	"gamo-keyword-api/services"
	"gamo-keyword-api/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeGenerator struct {
	reply string
	err   error
	calls int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.reply, f.err
}

type countingFinder struct {
	inner store.Finder
	calls int
}

func (f *countingFinder) FindByCallIDs(ctx context.Context, callIDs []int64) ([]models.Keyword, error) {
	f.calls++
	return f.inner.FindByCallIDs(ctx, callIDs)
}

type fakeEnqueuer struct {
	callID int64
	err    error
}

func (f *fakeEnqueuer) EnqueueExtraction(ctx context.Context, callID int64, text string) (string, error) {
	f.callID = callID
	return "task-1", f.err
}

type fixedReadiness struct {
	ready bool
	err   error
}

func (f fixedReadiness) Status() (bool, time.Time, error) {
	return f.ready, time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC), f.err
}

type testServer struct {
	router *gin.Engine
	store  *store.MemoryStore
	finder *countingFinder
	gen    *fakeGenerator
}

func newTestServer(t *testing.T, enqueuer routes.ExtractionEnqueuer) *testServer {
	t.Helper()
	cfg := &config.Config{GeminiTimeout: 5, KeywordIDMaxRetries: 3}

	st := store.NewMemoryStore()
	tick := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	st.WithClock(func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	})
	finder := &countingFinder{inner: st}
	gen := &fakeGenerator{}

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware(), middleware.RequestSizeLimit(1<<10))
	routes.SetupHealthRoutes(r, fixedReadiness{ready: true}, nil)
	routes.SetupKeywordRoutes(r, cfg, services.NewExtractionService(gen, st, nil, cfg.KeywordIDMaxRetries), enqueuer)
	routes.SetupAgendaRoutes(r, cfg, services.NewAgendaService(finder, gen, nil))
	routes.SetupLetterRoutes(r, cfg, services.NewLetterService(gen))

	return &testServer{router: r, store: st, finder: finder, gen: gen}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &v)).Required()
	return v
}

func (s *testServer) seed(t *testing.T) {
	t.Helper()
	for _, kw := range []*models.Keyword{
		{Text: "hospital visit", Weight: 5, CallID: 15352},
		{Text: "weather", Weight: 1, CallID: 15352},
		{Text: "grandson exam", Weight: 4, CallID: 92737},
		{Text: "lunch menu", Weight: 2, CallID: 92737},
	} {
		_, err := s.store.Insert(context.Background(), kw)
		gt.NoError(t, err).Required()
	}
}

func TestHealthRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/health", "")
	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.Value(t, decode[map[string]any](t, w)["status"]).Equal("healthy")

	gt.Value(t, s.do(http.MethodGet, "/", "").Code).Equal(http.StatusOK)
	gt.Value(t, s.do(http.MethodGet, "/ready", "").Code).Equal(http.StatusOK)
}

func TestReadyReportsStoreOutage(t *testing.T) {
	r := gin.New()
	routes.SetupHealthRoutes(r, fixedReadiness{err: errors.New("no reachable servers")}, prometheus.NewRegistry())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	gt.Value(t, w.Code).Equal(http.StatusServiceUnavailable)
	gt.Bool(t, strings.Contains(w.Body.String(), "no reachable servers")).True()

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	gt.Value(t, w.Code).Equal(http.StatusOK)
}

func TestPostKeyword(t *testing.T) {
	t.Run("stores extracted keywords", func(t *testing.T) {
		s := newTestServer(t, nil)
		s.gen.reply = `[{"keyword": "hospital visit", "weight": 5}, {"keyword": "new puppy", "weight": 3}]`

		w := s.do(http.MethodPost, "/api/keyword", `{"callId": 15352, "text": "A: how was the hospital?"}`)
		gt.Value(t, w.Code).Equal(http.StatusOK)

		resp := decode[models.ProcessCallResponse](t, w)
		gt.Value(t, resp).Equal(models.ProcessCallResponse{
			Status:   http.StatusOK,
			CallID:   15352,
			Keywords: []string{"hospital visit", "new puppy"},
		})

		n, err := s.store.Count(context.Background())
		gt.NoError(t, err).Required()
		gt.Value(t, n).Equal(int64(2))
	})

	t.Run("call id zero is accepted", func(t *testing.T) {
		s := newTestServer(t, nil)
		s.gen.reply = `["trip"]`

		w := s.do(http.MethodPost, "/api/keyword", `{"callId": 0, "text": "hello"}`)
		gt.Value(t, w.Code).Equal(http.StatusOK)
	})

	t.Run("missing fields", func(t *testing.T) {
		s := newTestServer(t, nil)
		for _, body := range []string{`{"text": "hello"}`, `{"callId": 1}`, `{"callId": "one", "text": "x"}`, `not json`} {
			w := s.do(http.MethodPost, "/api/keyword", body)
			gt.Value(t, w.Code).Equal(http.StatusBadRequest)
		}
		gt.Value(t, s.gen.calls).Equal(0)
	})

	t.Run("blank transcript", func(t *testing.T) {
		s := newTestServer(t, nil)
		w := s.do(http.MethodPost, "/api/keyword", `{"callId": 1, "text": "   "}`)
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
		gt.Value(t, decode[utils.ErrorResponse](t, w).ErrorCode).Equal("validation_error")
	})

	t.Run("upstream failure is a bad gateway", func(t *testing.T) {
		s := newTestServer(t, nil)
		s.gen.err = ai.ErrUpstream

		w := s.do(http.MethodPost, "/api/keyword", `{"callId": 1, "text": "hello"}`)
		gt.Value(t, w.Code).Equal(http.StatusBadGateway)
		resp := decode[utils.ErrorResponse](t, w)
		gt.Value(t, resp.Status).Equal(http.StatusBadGateway)
		gt.Value(t, resp.ErrorCode).Equal("upstream_error")
	})

	t.Run("malformed reply is a server error", func(t *testing.T) {
		s := newTestServer(t, nil)
		s.gen.reply = "I can't do that."

		w := s.do(http.MethodPost, "/api/keyword", `{"callId": 1, "text": "hello"}`)
		gt.Value(t, w.Code).Equal(http.StatusInternalServerError)
		gt.Value(t, decode[utils.ErrorResponse](t, w).ErrorCode).Equal("malformed_reply")
	})

	t.Run("oversized body", func(t *testing.T) {
		s := newTestServer(t, nil)
		body := `{"callId": 1, "text": "` + strings.Repeat("x", 2<<10) + `"}`
		w := s.do(http.MethodPost, "/api/keyword", body)
		gt.Value(t, w.Code).Equal(http.StatusRequestEntityTooLarge)
	})

	t.Run("async mode enqueues", func(t *testing.T) {
		q := &fakeEnqueuer{}
		s := newTestServer(t, q)

		w := s.do(http.MethodPost, "/api/keyword", `{"callId": 42, "text": "hello"}`)
		gt.Value(t, w.Code).Equal(http.StatusAccepted)
		resp := decode[models.ProcessCallResponse](t, w)
		gt.Value(t, resp.TaskID).Equal("task-1")
		gt.Value(t, q.callID).Equal(int64(42))
		gt.Value(t, s.gen.calls).Equal(0)
	})

	t.Run("async mode with the queue down", func(t *testing.T) {
		s := newTestServer(t, &fakeEnqueuer{err: errors.New("dial tcp: connection refused")})

		w := s.do(http.MethodPost, "/api/keyword", `{"callId": 42, "text": "hello"}`)
		gt.Value(t, w.Code).Equal(http.StatusServiceUnavailable)
	})
}

func TestGetKeywords(t *testing.T) {
	s := newTestServer(t, nil)
	s.seed(t)

	w := s.do(http.MethodGet, "/api/keyword?callIds=15352,404", "")
	gt.Value(t, w.Code).Equal(http.StatusOK)
	resp := decode[models.KeywordListResponse](t, w)
	gt.Value(t, models.Texts(resp.Keywords)).Equal([]string{"hospital visit", "weather"})

	w = s.do(http.MethodGet, "/api/keyword?callIds=15352&callIds=92737", "")
	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.Array(t, decode[models.KeywordListResponse](t, w).Keywords).Length(4)

	gt.Value(t, s.do(http.MethodGet, "/api/keyword", "").Code).Equal(http.StatusBadRequest)
	gt.Value(t, s.do(http.MethodGet, "/api/keyword?callIds=abc", "").Code).Equal(http.StatusBadRequest)
}

func TestPostAgenda(t *testing.T) {
	t.Run("recommends across calls", func(t *testing.T) {
		s := newTestServer(t, nil)
		s.seed(t)

		w := s.do(http.MethodPost, "/api/ajenda", `{"callIds": [15352, 92737]}`)
		gt.Value(t, w.Code).Equal(http.StatusOK)
		resp := decode[models.RecommendResponse](t, w)
		gt.Value(t, resp.Status).Equal(http.StatusOK)
		gt.Value(t, resp.RecommendedKeywords).Equal([]string{"grandson exam", "hospital visit"})
	})

	t.Run("empty call ids are rejected before the store", func(t *testing.T) {
		s := newTestServer(t, nil)
		s.seed(t)

		for _, body := range []string{`{"callIds": []}`, `{}`} {
			w := s.do(http.MethodPost, "/api/ajenda", body)
			gt.Value(t, w.Code).Equal(http.StatusBadRequest)
			gt.Value(t, decode[utils.ErrorResponse](t, w).ErrorCode).Equal("validation_error")
		}
		gt.Value(t, s.finder.calls).Equal(0)
	})

	t.Run("unknown calls are not found", func(t *testing.T) {
		s := newTestServer(t, nil)
		s.seed(t)

		w := s.do(http.MethodPost, "/api/ajenda", `{"callIds": [404]}`)
		gt.Value(t, w.Code).Equal(http.StatusNotFound)
		gt.Value(t, decode[utils.ErrorResponse](t, w).ErrorCode).Equal("keywords_not_found")
	})

	t.Run("topic sentence", func(t *testing.T) {
		s := newTestServer(t, nil)
		s.seed(t)
		s.gen.reply = "How did the exam and the hospital visit go?"

		w := s.do(http.MethodPost, "/api/ajenda/topic", `{"callIds": [15352, 92737]}`)
		gt.Value(t, w.Code).Equal(http.StatusOK)
		resp := decode[models.RecommendResponse](t, w)
		gt.Value(t, resp.RecommendedTopic).Equal("How did the exam and the hospital visit go?")
		gt.Array(t, resp.RecommendedKeywords).Length(2)
	})
}

func TestPostLetter(t *testing.T) {
	s := newTestServer(t, nil)
	s.gen.reply = "Dear Mom,\n\nI am well."

	w := s.do(http.MethodPost, "/api/letter", `{"text": "uh dear mom i am well"}`)
	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.Value(t, decode[models.LetterResponse](t, w).Letter).Equal("Dear Mom,\n\nI am well.")

	gt.Value(t, s.do(http.MethodPost, "/api/letter", `{}`).Code).Equal(http.StatusBadRequest)
}
