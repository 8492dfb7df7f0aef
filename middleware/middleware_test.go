package middleware_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/m-mizutani/gt"
	"github.com/redis/go-redis/v9"

	"gamo-keyword-api/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.GetRequestID(c))
	})

	t.Run("generates an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		id := w.Header().Get(middleware.RequestIDHeader)
		gt.Value(t, len(id)).Equal(36)
		gt.Value(t, w.Body.String()).Equal(id)
	})

	t.Run("keeps the caller's id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.RequestIDHeader, "call-15352")
		r.ServeHTTP(w, req)
		gt.Value(t, w.Header().Get(middleware.RequestIDHeader)).Equal("call-15352")
	})
}

func TestRequestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestSizeLimit(16))
	r.POST("/echo", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too large")
			return
		}
		c.String(http.StatusOK, string(body))
	})

	t.Run("small body passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("hello")))
		gt.Value(t, w.Code).Equal(http.StatusOK)
		gt.Value(t, w.Body.String()).Equal("hello")
	})

	t.Run("declared length over the cap", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 64))))
		gt.Value(t, w.Code).Equal(http.StatusRequestEntityTooLarge)
		gt.Bool(t, strings.Contains(w.Body.String(), "request_too_large")).True()
	})

	t.Run("undeclared length is capped while reading", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/echo", io.NopCloser(bytes.NewReader(bytes.Repeat([]byte("x"), 64))))
		req.ContentLength = -1
		r.ServeHTTP(w, req)
		gt.Value(t, w.Code).Equal(http.StatusRequestEntityTooLarge)
	})
}

func TestRateLimitFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	r := gin.New()
	r.Use(middleware.RateLimitMiddleware(rdb, 1, time.Minute))
	r.POST("/api/ajenda", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/ajenda", nil))
		gt.Value(t, w.Code).Equal(http.StatusOK)
	}
}

func TestRateLimitWithRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR is not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	gt.NoError(t, rdb.FlushDB(context.Background()).Err()).Required()

	r := gin.New()
	r.Use(middleware.RateLimitMiddleware(rdb, 2, time.Minute))
	r.POST("/api/ajenda", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/ajenda", nil))
		codes = append(codes, w.Code)
	}
	gt.Value(t, codes).Equal([]int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		gt.Value(t, w.Code).Equal(http.StatusOK)
	}
}
