package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-matcher/internal/config"
	"course-matcher/internal/fetcher"
	"course-matcher/internal/storage"
)

type stubLauncher struct {
	launches int32
	renders  int32
	closed   int32
}

func (l *stubLauncher) Launch(ctx context.Context) (fetcher.Browser, error) {
	atomic.AddInt32(&l.launches, 1)
	return &stubBrowser{launcher: l}, nil
}

type stubBrowser struct {
	launcher *stubLauncher
}

func (b *stubBrowser) NewSession(ctx context.Context) (fetcher.Session, error) {
	return &stubSession{launcher: b.launcher}, nil
}

func (b *stubBrowser) Close() error {
	atomic.AddInt32(&b.launcher.closed, 1)
	return nil
}

type stubSession struct {
	launcher *stubLauncher
	url      string
}

func (s *stubSession) BlockResources(ctx context.Context, types []fetcher.ResourceType) error {
	return nil
}

func (s *stubSession) Navigate(ctx context.Context, url string) error {
	s.url = url
	return nil
}

func (s *stubSession) Content(ctx context.Context) (string, error) {
	atomic.AddInt32(&s.launcher.renders, 1)
	return "<html><body>" + s.url + "</body></html>", nil
}

func (s *stubSession) Close() error { return nil }

type oracleServer struct {
	mu      sync.Mutex
	prompts []string
}

func (o *oracleServer) handler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	o.mu.Lock()
	if len(payload.Messages) > 0 {
		o.prompts = append(o.prompts, payload.Messages[0].Content)
	}
	o.mu.Unlock()

	body, _ := json.Marshal(map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]interface{}{{
			"index":         0,
			"finish_reason": "stop",
			"message": map[string]interface{}{
				"role":    "assistant",
				"content": "Both courses teach loops and recursion. Similarity: 72",
			},
		}},
	})
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func testConfig(t *testing.T, oracleURL string) *config.Config {
	return &config.Config{
		Port:                 "8000",
		LogFile:              filepath.Join(t.TempDir(), "app.log"),
		CacheBackend:         "memory",
		OpenAIAPIKey:         "sk-test",
		OpenAIBaseURL:        oracleURL + "/v1/",
		OpenAIModel:          "gpt-4o-mini",
		OracleBreakerEnabled: true,
		BrowserMaxSessions:   4,
		ContentFormat:        "html",
		RateLimitEnabled:     true,
		DatabaseType:         "sqlite",
		DatabasePath:         filepath.Join(t.TempDir(), "matches.db"),
	}
}

func setupApp(t *testing.T, mutate func(*config.Config)) (*App, http.Handler, *stubLauncher, *oracleServer) {
	t.Helper()

	oracle := &oracleServer{}
	server := httptest.NewServer(http.HandlerFunc(oracle.handler))
	t.Cleanup(server.Close)

	cfg := testConfig(t, server.URL)
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	launcher := &stubLauncher{}
	application, err := New(cfg, WithLauncher(launcher))
	require.NoError(t, err)
	t.Cleanup(application.Cleanup)

	return application, application.Handler(), launcher, oracle
}

func post(handler http.Handler, target string, body interface{}, remoteAddr string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest("POST", target, reader)
	req.Header.Set("Content-Type", "application/json")
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestApp_CompareEndToEnd(t *testing.T) {
	application, handler, launcher, oracle := setupApp(t, nil)

	body := map[string]interface{}{
		"urls_university_1": []string{"https://a.example.edu/cs101", "https://a.example.edu/cs102"},
		"urls_university_2": []string{"https://b.example.edu/info1"},
		"university_1":      "TU Berlin",
		"university_2":      "ETH Zurich",
	}

	rr := post(handler, "/compare-courses", body, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "10", rr.Header().Get("X-RateLimit-Limit"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Both courses teach loops and recursion. Similarity: 72", resp["comparison_result"])

	require.Len(t, oracle.prompts, 1)
	assert.Contains(t, oracle.prompts[0],
		"<html><body>https://a.example.edu/cs101</body></html> <html><body>https://a.example.edu/cs102</body></html>")

	assert.Equal(t, int32(1), atomic.LoadInt32(&launcher.launches))
	assert.Equal(t, int32(3), atomic.LoadInt32(&launcher.renders))

	records, err := application.Records.ListMatches(context.Background(), storage.MatchFilter{University1: "TU Berlin"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 72, *records[0].Score)

	t.Run("second run is served from cache", func(t *testing.T) {
		rr := post(handler, "/compare-courses", body, "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, int32(3), atomic.LoadInt32(&launcher.renders))
	})

	t.Run("invalidation forces a new render", func(t *testing.T) {
		rr := post(handler, "/invalidate-cache?url=https://b.example.edu/info1", nil, "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "invalidated")

		rr = post(handler, "/compare-courses", body, "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, int32(4), atomic.LoadInt32(&launcher.renders))
	})

	t.Run("cleanup closes the browser once", func(t *testing.T) {
		require.True(t, application.Engine.Started())

		application.Cleanup()
		application.Cleanup()
		assert.Equal(t, int32(1), atomic.LoadInt32(&launcher.closed))
		assert.False(t, application.Engine.Started())
	})
}

func TestApp_CleanupWithoutRender(t *testing.T) {
	application, _, launcher, _ := setupApp(t, nil)

	assert.False(t, application.Engine.Started())
	application.Cleanup()
	assert.Equal(t, int32(0), atomic.LoadInt32(&launcher.closed))
}

func TestApp_ValidationAndMalformedBodies(t *testing.T) {
	_, handler, launcher, _ := setupApp(t, nil)

	rr := post(handler, "/compare-courses", map[string]interface{}{
		"urls_university_1": []string{},
		"urls_university_2": []string{"https://b.example.edu/info1"},
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "urls_university_1")

	req := httptest.NewRequest("POST", "/compare-courses", strings.NewReader("{not json"))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	assert.Equal(t, int32(0), atomic.LoadInt32(&launcher.launches))
}

func TestApp_RateLimits(t *testing.T) {
	t.Run("eleventh compare is rejected", func(t *testing.T) {
		_, handler, _, _ := setupApp(t, nil)
		body := map[string]interface{}{
			"urls_university_1": []string{"https://a.example.edu/cs101"},
			"urls_university_2": []string{"https://b.example.edu/info1"},
		}

		for i := 0; i < 10; i++ {
			rr := post(handler, "/compare-courses", body, "192.0.2.10:4000")
			require.Equal(t, http.StatusOK, rr.Code, "request %d", i+1)
		}

		rr := post(handler, "/compare-courses", body, "192.0.2.10:4000")
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.JSONEq(t, `{"detail":"rate limit exceeded"}`, rr.Body.String())

		rr = post(handler, "/compare-courses", body, "192.0.2.11:4000")
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("sixth invalidation is rejected", func(t *testing.T) {
		_, handler, _, _ := setupApp(t, nil)

		for i := 0; i < 5; i++ {
			rr := post(handler, "/invalidate-cache?url=https://a.example.edu/cs101", nil, "192.0.2.10:4000")
			require.Equal(t, http.StatusOK, rr.Code)
		}

		rr := post(handler, "/invalidate-cache?url=https://a.example.edu/cs101", nil, "192.0.2.10:4000")
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	})

	t.Run("disabled", func(t *testing.T) {
		application, handler, _, _ := setupApp(t, func(c *config.Config) { c.RateLimitEnabled = false })
		assert.Nil(t, application.Limiter)

		for i := 0; i < 7; i++ {
			rr := post(handler, "/invalidate-cache?url=https://a.example.edu/cs101", nil, "192.0.2.10:4000")
			require.Equal(t, http.StatusOK, rr.Code)
		}
	})
}

func TestApp_RedisBackend(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	application, handler, _, _ := setupApp(t, func(c *config.Config) {
		c.CacheBackend = "redis"
		c.RedisAddress = mr.Addr()
		c.RedisPoolSize = 5
		c.PublishEvents = true
	})
	require.NotNil(t, application.RedisClient)

	rr := post(handler, "/compare-courses", map[string]interface{}{
		"urls_university_1": []string{"https://a.example.edu/cs101"},
		"urls_university_2": []string{"https://b.example.edu/info1"},
	}, "192.0.2.10:4000")
	require.Equal(t, http.StatusOK, rr.Code)

	// two cached pages plus the limiter window
	assert.Len(t, mr.Keys(), 3)
	assert.True(t, mr.Exists("ratelimit:compare:192.0.2.10"))

	req := httptest.NewRequest("GET", "/health", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "healthy", health["records_status"])
}

func TestApp_RedisUnavailable(t *testing.T) {
	oracle := httptest.NewServer(http.HandlerFunc((&oracleServer{}).handler))
	defer oracle.Close()

	cfg := testConfig(t, oracle.URL)
	cfg.CacheBackend = "redis"
	cfg.RedisAddress = "127.0.0.1:1"
	cfg.RedisPoolSize = 1

	_, err := New(cfg, WithLauncher(&stubLauncher{}))
	assert.Error(t, err)

	application, err := New(cfg, WithLauncher(&stubLauncher{}), WithMemoryFallback())
	require.NoError(t, err)
	defer application.Cleanup()
	assert.Nil(t, application.RedisClient)
	assert.NotNil(t, application.Cache)
}
