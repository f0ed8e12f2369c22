package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/scnpatch/internal/config"
	"github.com/JonMunkholm/scnpatch/internal/core"
	"github.com/JonMunkholm/scnpatch/internal/scene"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const kickScene = "#2.7# \"Sunday\" \"\" %000000000 1 X32 1 0 0\n" +
	"/config/routing/IN AN1-8\n" +
	"/ch/01/config \"Kick\" 1 RD 1\n" +
	"/outputs/p16/01 26 POST 0\n"

// newTestServer builds a server over an in-memory history. Rate limiting
// is off unless env turns it on.
func newTestServer(t *testing.T, env map[string]string) *Server {
	t.Helper()
	vars := map[string]string{"RATE_LIMIT_ENABLED": "false"}
	for k, v := range env {
		vars[k] = v
	}
	cfg, err := config.LoadFrom(func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewServer(core.NewService(cfg, nil, logger), cfg)
	t.Cleanup(s.Close)
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

// multipartRequest builds a form post; an empty filename omits the file.
func multipartRequest(t *testing.T, target, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("scene", filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func rawSceneRequest(target, content string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(content))
	req.Header.Set("Content-Type", "application/octet-stream")
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="scene"`)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestIndex_CSPDisabled(t *testing.T) {
	s := newTestServer(t, map[string]string{"SECURITY_ENABLE_CSP": "false"})
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestGenerate(t *testing.T) {
	s := newTestServer(t, nil)
	req := multipartRequest(t, "/generate", "sunday.scn", kickScene, map[string]string{
		"title":        "Sunday <Service>",
		"set-bg-color": "on",
		"hide-blank":   "1",
	})
	rec := serve(s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Contains(t, body, "Kick")
	assert.Contains(t, body, "Sunday &lt;Service&gt;")
	assert.Contains(t, body, "Local 01")
	assert.Contains(t, body, "background:")
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		want     int
		wantCode string
	}{
		{
			name:     "no file part",
			req:      func(t *testing.T) *http.Request { return multipartRequest(t, "/generate", "", "", map[string]string{"title": "x"}) },
			want:     http.StatusBadRequest,
			wantCode: "FILE004",
		},
		{
			name:     "not multipart",
			req:      func(*testing.T) *http.Request { return rawSceneRequest("/generate", kickScene) },
			want:     http.StatusBadRequest,
			wantCode: "FILE004",
		},
		{
			name:     "malformed record",
			req:      func(t *testing.T) *http.Request { return multipartRequest(t, "/generate", "bad.scn", "/ch/01/config \"Kick\" 1 RD\n", nil) },
			want:     http.StatusUnprocessableEntity,
			wantCode: "SCN001",
		},
		{
			name:     "empty file",
			req:      func(t *testing.T) *http.Request { return multipartRequest(t, "/generate", "empty.scn", "", nil) },
			want:     http.StatusBadRequest,
			wantCode: "FILE005",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			rec := serve(s, tt.req(t))

			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			assert.Contains(t, rec.Body.String(), tt.wantCode)
		})
	}
}

func TestGenerate_HTMXError(t *testing.T) {
	s := newTestServer(t, nil)
	req := multipartRequest(t, "/generate", "", "", nil)
	req.Header.Set("HX-Request", "true")
	rec := serve(s, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<html")
	assert.Contains(t, rec.Body.String(), "FILE004")
}

func TestAPIScene_JSON(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, rawSceneRequest("/api/scene?filename=sunday.scn&hide-blank=1", kickScene))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp SceneResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sunday.scn", resp.Filename)
	assert.NotEmpty(t, resp.ID)
	assert.EqualValues(t, len(kickScene), resp.Bytes)
	assert.Equal(t, 1, resp.Scene.Stats.Channels)
	assert.Len(t, resp.Scene.Routes, 8)

	require.NotNil(t, resp.Sheet)
	assert.True(t, resp.Sheet.Options.HideBlank)
	require.NotEmpty(t, resp.Sheet.Inputs)
	local := resp.Sheet.Inputs[0]
	require.Len(t, local.Rows, 1)
	assert.Equal(t, "Kick", local.Rows[0].Name)
}

func TestAPIScene_Multipart(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, multipartRequest(t, "/api/scene", "form.scn", kickScene, nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp SceneResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "form.scn", resp.Filename)
}

func TestAPIScene_DefaultFilename(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, rawSceneRequest("/api/scene", kickScene))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp SceneResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, defaultFilename, resp.Filename)
}

func TestAPIScene_YAML(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, rawSceneRequest("/api/scene?format=yaml&filename=sunday.scn", kickScene))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))

	var doc struct {
		Filename string `yaml:"filename"`
		Scene    struct {
			Channels []struct {
				Key  string `yaml:"key"`
				Kind string `yaml:"kind"`
				Name string `yaml:"name"`
			} `yaml:"channels"`
		} `yaml:"scene"`
	}
	require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "sunday.scn", doc.Filename)
	// One parsed channel plus the console's talkback and monitor pair.
	require.Len(t, doc.Scene.Channels, 4)
	assert.Equal(t, "in.01", doc.Scene.Channels[0].Key)
	assert.Equal(t, "Kick", doc.Scene.Channels[0].Name)
	for _, ch := range doc.Scene.Channels[1:] {
		assert.Equal(t, "internal", ch.Kind, ch.Key)
	}
}

func TestAPIScene_Errors(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		body     string
		want     int
		wantCode string
	}{
		{"malformed", nil, "/ch/01/config \"Kick\" 1 RD\n", http.StatusUnprocessableEntity, "SCN001"},
		{"empty", nil, "", http.StatusBadRequest, "FILE005"},
		{"too large", map[string]string{"UPLOAD_MAX_SCENE_SIZE": "32"}, kickScene, http.StatusRequestEntityTooLarge, "FILE001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.env)
			rec := serve(s, rawSceneRequest("/api/scene", tt.body))

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestAPIScene_MultipartTooLarge(t *testing.T) {
	s := newTestServer(t, map[string]string{"UPLOAD_MAX_SCENE_SIZE": "16"})
	big := strings.Repeat("/ch/01/config \"Kick\" 1 RD 1\n", 4096)
	rec := serve(s, multipartRequest(t, "/api/scene", "big.scn", big, nil))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "FILE001", decodeError(t, rec).Code)
}

func TestAPIHistory(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entries":[]}`, rec.Body.String())

	for i := range 3 {
		serve(s, rawSceneRequest(fmt.Sprintf("/api/scene?filename=s%d.scn", i), kickScene))
	}
	serve(s, rawSceneRequest("/api/scene?filename=bad.scn", "/ch/01/config \"Kick\" 1 RD\n"))

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/history?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Entries []core.HistoryEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "bad.scn", resp.Entries[0].Filename)
	assert.Equal(t, core.StatusFailed, resp.Entries[0].Status)
	assert.Equal(t, "SCN001", resp.Entries[0].ErrorCode)
	assert.Equal(t, "s2.scn", resp.Entries[1].Filename)
	assert.Equal(t, "192.0.2.1", resp.Entries[1].IPAddress)
}

func TestHistoryPage(t *testing.T) {
	s := newTestServer(t, nil)
	serve(s, rawSceneRequest("/api/scene?filename=sunday.scn", kickScene))

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sunday.scn")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, map[string]string{"UPLOAD_MAX_CONCURRENT": "3"})
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Parses.MaxConcurrent)
	assert.Equal(t, 3, resp.Parses.Available)
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t, map[string]string{"REQUIRE_API_KEY": "true", "API_KEYS": "k1,k2"})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("X-API-Key", "k2")
	rec = serve(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The HTML pages stay open.
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/history", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_Uploads(t *testing.T) {
	s := newTestServer(t, map[string]string{"RATE_LIMIT_ENABLED": "true", "RATE_LIMIT_UPLOAD": "1"})

	rec := serve(s, rawSceneRequest("/api/scene", kickScene))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(s, rawSceneRequest("/api/scene", kickScene))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE001", decodeError(t, rec).Code)

	// Other routes draw from the general budget.
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_WindowReset(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("a"))
	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))
	assert.True(t, rl.allow("b"), "budgets are per client")

	now = now.Add(time.Minute + time.Second)
	assert.True(t, rl.allow("a"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("parse x: %w", core.ErrSceneTooLarge), http.StatusRequestEntityTooLarge},
		{core.ErrNoScene, http.StatusBadRequest},
		{fmt.Errorf("%w: eof", errInvalidForm), http.StatusBadRequest},
		{&scene.MalformedRecordError{Line: 3}, http.StatusUnprocessableEntity},
		{core.ErrTooManyParses, http.StatusServiceUnavailable},
		{fmt.Errorf("recent: %w", core.ErrHistoryUnavailable), http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestRespondError_BusySetsRetryAfter(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/scene", nil)
	rec := httptest.NewRecorder()
	respondError(rec, req, core.ErrTooManyParses, statusFor(core.ErrTooManyParses))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.Equal(t, "UPL002", decodeError(t, rec).Code)
}

func TestShutdown_WithoutStart(t *testing.T) {
	s := newTestServer(t, map[string]string{"RATE_LIMIT_ENABLED": "true"})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))
}
