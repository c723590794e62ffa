package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-matcher/internal/app"
	"course-matcher/internal/common/errors"
	"course-matcher/internal/fetcher"
)

type pageLauncher struct{}

func (pageLauncher) Launch(ctx context.Context) (fetcher.Browser, error) { return pageBrowser{}, nil }

type pageBrowser struct{}

func (pageBrowser) NewSession(ctx context.Context) (fetcher.Session, error) {
	return &pageSession{}, nil
}
func (pageBrowser) Close() error { return nil }

type pageSession struct{ url string }

func (s *pageSession) BlockResources(ctx context.Context, types []fetcher.ResourceType) error {
	return nil
}
func (s *pageSession) Navigate(ctx context.Context, url string) error {
	s.url = url
	return nil
}
func (s *pageSession) Content(ctx context.Context) (string, error) {
	return "<p>" + s.url + "</p>", nil
}
func (s *pageSession) Close() error { return nil }

func setupEnv(t *testing.T) {
	t.Helper()

	oracle := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o-mini",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]interface{}{"role": "assistant", "content": "Mostly the same syllabus. Similarity: 90"},
			}},
		})
	}))
	t.Cleanup(oracle.Close)

	dir := t.TempDir()
	t.Setenv("PORT", "8000")
	t.Setenv("LOG_FILE", filepath.Join(dir, "app.log"))
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", oracle.URL+"/v1/")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "")
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "matches.db"))
	t.Setenv("CONTENT_FORMAT", "text")
	t.Setenv("PUBLISH_EVENTS", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(app.WithLauncher(pageLauncher{}))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCompareCommand(t *testing.T) {
	setupEnv(t)

	t.Run("prints verdict", func(t *testing.T) {
		out, err := run(t, "compare", "--a", "https://a.example.edu/cs101", "--b", "https://b.example.edu/info1")
		require.NoError(t, err)
		assert.Contains(t, out, "Mostly the same syllabus. Similarity: 90")
		assert.Contains(t, out, "Similarity: 90/100 (1 vs 1 pages, 0 cached)")
	})

	t.Run("json output", func(t *testing.T) {
		out, err := run(t, "compare", "--json",
			"--a", "https://a.example.edu/cs101,https://a.example.edu/cs102",
			"--b", "https://b.example.edu/info1",
			"--university-1", "TU Berlin", "--university-2", "ETH Zurich")
		require.NoError(t, err)

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, "Mostly the same syllabus. Similarity: 90", result["comparison_result"])
		assert.EqualValues(t, 90, result["score"])
		assert.NotNil(t, result["record_id"])
	})

	t.Run("missing side", func(t *testing.T) {
		_, err := run(t, "compare", "--a", "https://a.example.edu/cs101")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"b"`)
	})

	t.Run("invalid url is rejected before startup", func(t *testing.T) {
		_, err := run(t, "compare", "--a", "ftp://a.example.edu", "--b", "https://b.example.edu/info1")
		assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
	})
}

func TestInvalidateCommand(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "invalidate", "https://a.example.edu/cs101")
	require.NoError(t, err)
	assert.Contains(t, out, "No cache entry found for https://a.example.edu/cs101")

	_, err = run(t, "invalidate")
	assert.Error(t, err)

	_, err = run(t, "invalidate", "not a url")
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestBootstrapRejectsInvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("CONTENT_FORMAT", "pdf")

	_, err := run(t, "invalidate", "https://a.example.edu/cs101")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONTENT_FORMAT")
}
