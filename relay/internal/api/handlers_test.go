package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AstreaTSS/basic-discord-html-viewer/pkg/auth"
	"github.com/AstreaTSS/basic-discord-html-viewer/pkg/models"
	redispkg "github.com/AstreaTSS/basic-discord-html-viewer/pkg/redis"
	"github.com/AstreaTSS/basic-discord-html-viewer/relay/internal/proxy"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const attachmentURL = "https://cdn.discordapp.com/attachments/123/456/page.html"

var testAdmin = auth.Credentials{Username: "admin", Password: "admin123"}

// rewriteTransport sends every request to the test upstream regardless of
// the Discord host in the URL.
type rewriteTransport struct {
	target *url.URL
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = rt.target.Scheme
	out.URL.Host = rt.target.Host
	out.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(out)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.DisplayEvent
	err    error
}

func (p *recordingPublisher) PublishDisplayEvent(event models.DisplayEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) IsConnected() bool { return p.err == nil }

func (p *recordingPublisher) Events() []models.DisplayEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.DisplayEvent(nil), p.events...)
}

type testEnv struct {
	router   *gin.Engine
	hits     *atomic.Int32
	lastPath *atomic.Value
	events   *recordingPublisher
	redis    *miniredis.Miniredis
}

func setupTestEnv(t *testing.T, maxBytes int64, upstream http.HandlerFunc) *testEnv {
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		hits:     &atomic.Int32{},
		lastPath: &atomic.Value{},
		events:   &recordingPublisher{},
		redis:    miniredis.RunT(t),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.hits.Add(1)
		env.lastPath.Store(r.URL.RequestURI())
		upstream(w, r)
	}))
	t.Cleanup(server.Close)

	serverURL, err := url.Parse(server.URL)
	require.NoError(t, err)

	client := proxy.NewHTTPClient(proxy.ClientOptions{Timeout: 5 * time.Second})
	client.Transport = rewriteTransport{target: serverURL}

	stats, err := redispkg.NewClient(context.Background(), redispkg.Config{Address: env.redis.Addr(), Enabled: true})
	require.NoError(t, err)
	t.Cleanup(func() { stats.Close() })

	handler := NewHandler(proxy.NewFetcher(client, maxBytes), stats, env.events)
	env.router = SetupRouter(handler, testAdmin)

	return env
}

func serveHTML(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}
}

func displayPath(values map[string]string) string {
	q := url.Values{}
	for k, v := range values {
		q.Set(k, v)
	}
	return "/display?" + q.Encode()
}

func (env *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var response models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response.Error
}

func TestRoot(t *testing.T) {
	env := setupTestEnv(t, 0, serveHTML("unused"))

	w := env.get(t, "/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Hello World"}`, w.Body.String())
}

func TestHead(t *testing.T) {
	env := setupTestEnv(t, 0, serveHTML("unused"))

	req := httptest.NewRequest(http.MethodHead, "/", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"HEAD request received"}`, w.Body.String())
}

func TestDisplaySuccess(t *testing.T) {
	env := setupTestEnv(t, 0, serveHTML("<html>ok</html>"))

	w := env.get(t, displayPath(map[string]string{"url": attachmentURL, "is": "abc", "hm": "def"}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "<html>ok</html>", w.Body.String())
	assert.Equal(t, int32(1), env.hits.Load())
	assert.Equal(t, "/attachments/123/456/page.html&is=abc&hm=def", env.lastPath.Load())
}

func TestDisplayPassesBytesThrough(t *testing.T) {
	raw := "<html><script>alert('x')</script>\xff\xfe</html>"
	env := setupTestEnv(t, 0, serveHTML(raw))

	w := env.get(t, displayPath(map[string]string{"url": attachmentURL, "is": "abc", "hm": "def"}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, raw, w.Body.String())
}

func TestDisplayMissingParameters(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
	}{
		{"missing is", map[string]string{"url": attachmentURL, "hm": "def"}},
		{"missing hm", map[string]string{"url": attachmentURL, "is": "abc"}},
		{"empty is", map[string]string{"url": attachmentURL, "is": "", "hm": "def"}},
		{"missing url", map[string]string{"is": "abc", "hm": "def"}},
		{"nothing", map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t, 0, serveHTML("<html>ok</html>"))

			w := env.get(t, displayPath(tt.params))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Invalid URL format", decodeError(t, w))
			assert.Equal(t, int32(0), env.hits.Load())
		})
	}
}

func TestDisplayPatternMismatch(t *testing.T) {
	env := setupTestEnv(t, 0, serveHTML("<html>ok</html>"))

	w := env.get(t, displayPath(map[string]string{
		"url": "https://evil.example.com/attachments/1/2/page.html",
		"is":  "a",
		"hm":  "b",
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid URL format", decodeError(t, w))
	assert.Equal(t, int32(0), env.hits.Load())
}

func TestDisplayMalformedURL(t *testing.T) {
	env := setupTestEnv(t, 0, serveHTML("<html>ok</html>"))

	w := env.get(t, displayPath(map[string]string{
		"url": "https://cdn.discordapp.com/attachments/1/2/a%zz.html",
		"is":  "a",
		"hm":  "b",
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid URL", decodeError(t, w))
	assert.Equal(t, int32(0), env.hits.Load())
}

func TestDisplayUpstreamStatus(t *testing.T) {
	env := setupTestEnv(t, 0, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	w := env.get(t, displayPath(map[string]string{"url": attachmentURL, "is": "abc", "hm": "def"}))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Request failed with status code 404", decodeError(t, w))
}

func TestDisplayTooLarge(t *testing.T) {
	env := setupTestEnv(t, 32, serveHTML(strings.Repeat("<p>", 64)))

	w := env.get(t, displayPath(map[string]string{"url": attachmentURL, "is": "abc", "hm": "def"}))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "File too large", decodeError(t, w))
}

func TestDisplayEmptyBody(t *testing.T) {
	env := setupTestEnv(t, 0, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	w := env.get(t, displayPath(map[string]string{"url": attachmentURL, "is": "abc", "hm": "def"}))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "No content received from the URL", decodeError(t, w))
}

func TestDisplayRecordsOutcomes(t *testing.T) {
	env := setupTestEnv(t, 0, serveHTML("<html>ok</html>"))

	env.get(t, displayPath(map[string]string{"url": attachmentURL, "is": "abc", "hm": "def"}))
	env.get(t, displayPath(map[string]string{"url": attachmentURL, "is": "abc", "hm": "def"}))
	env.get(t, displayPath(map[string]string{"url": attachmentURL, "hm": "def"}))

	assert.Equal(t, "2", env.redis.HGet(redispkg.StatsKey, proxy.OutcomeOK))
	assert.Equal(t, "1", env.redis.HGet(redispkg.StatsKey, proxy.OutcomeMissingParameter))

	events := env.events.Events()
	require.Len(t, events, 3)
	assert.Equal(t, proxy.OutcomeOK, events[0].Outcome)
	assert.Equal(t, "cdn.discordapp.com", events[0].Host)
	assert.Equal(t, len("<html>ok</html>"), events[0].Bytes)
	assert.NotEmpty(t, events[0].ID)
	assert.NotEmpty(t, events[0].RequestID)
	assert.Equal(t, proxy.OutcomeMissingParameter, events[2].Outcome)
	assert.Empty(t, events[2].Host)
}

func TestDisplayEventsNeverCarrySignature(t *testing.T) {
	env := setupTestEnv(t, 0, serveHTML("<html>ok</html>"))

	env.get(t, displayPath(map[string]string{"url": attachmentURL + "?ex=1", "is": "secret-is", "hm": "secret-hm"}))

	events := env.events.Events()
	require.Len(t, events, 1)
	payload, err := json.Marshal(events[0])
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "secret-is")
	assert.NotContains(t, string(payload), "secret-hm")
}

func TestDisplaySinkFailureDoesNotChangeResponse(t *testing.T) {
	env := setupTestEnv(t, 0, serveHTML("<html>ok</html>"))
	env.events.err = errors.New("nats down")
	env.redis.Close()

	w := env.get(t, displayPath(map[string]string{"url": attachmentURL, "is": "abc", "hm": "def"}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<html>ok</html>", w.Body.String())
}

func TestRequestIDHeader(t *testing.T) {
	env := setupTestEnv(t, 0, serveHTML("unused"))

	w := env.get(t, "/")
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "caller-chosen")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, "caller-chosen", w.Header().Get(RequestIDHeader))
}

func TestHealthCheck(t *testing.T) {
	env := setupTestEnv(t, 0, serveHTML("unused"))

	w := env.get(t, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	var response models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
	assert.True(t, response.Redis)
	assert.True(t, response.NATS)
}

func TestHealthCheckWithoutSinks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(proxy.NewFetcher(nil, 0), nil, nil)
	router := gin.New()
	router.GET("/health", handler.HealthCheck)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","redis":false,"nats":false}`, w.Body.String())
}

func TestStatsRequiresAdmin(t *testing.T) {
	env := setupTestEnv(t, 0, serveHTML("unused"))

	w := env.get(t, "/stats")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStats(t *testing.T) {
	env := setupTestEnv(t, 0, serveHTML("<html>ok</html>"))
	env.get(t, displayPath(map[string]string{"url": attachmentURL, "is": "abc", "hm": "def"}))

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("Authorization", testAdmin.Header())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response models.StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(1), response.Outcomes[proxy.OutcomeOK])
}

func TestStatsWithoutStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(proxy.NewFetcher(nil, 0), nil, nil)
	router := gin.New()
	router.GET("/stats", handler.Stats)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Stats store unavailable", decodeError(t, w))
}

func TestStatusForOutcome(t *testing.T) {
	assert.Equal(t, http.StatusOK, statusForOutcome(proxy.OutcomeOK))
	assert.Equal(t, http.StatusBadRequest, statusForOutcome(proxy.OutcomePatternMismatch))
	assert.Equal(t, http.StatusBadGateway, statusForOutcome(proxy.OutcomeTooLarge))
	assert.Equal(t, http.StatusBadGateway, statusForOutcome(proxy.OutcomeUpstreamStatus))
	assert.Equal(t, http.StatusInternalServerError, statusForOutcome(proxy.OutcomeInternal))
}
