package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"community_hub/internal/pkg"

	qt "github.com/frankban/quicktest"
	"github.com/gin-gonic/gin"
)

const testSecret = "middleware-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newIdentityRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/me", mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": UserID(c), "role": c.GetString(ContextRoleKey)})
	})
	return r
}

func doGet(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	tokens := pkg.NewTokenManager(testSecret, time.Hour)
	valid, err := tokens.Generate("u1", "admin")
	qt.Assert(t, err, qt.IsNil)
	foreign, err := pkg.NewTokenManager("another-secret-value", time.Hour).Generate("u1", "")
	qt.Assert(t, err, qt.IsNil)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid", "Bearer " + valid, http.StatusOK, `{"role":"admin","userId":"u1"}`},
		{"missing", "", http.StatusUnauthorized, `{"error":"Unauthorized","statusCode":401,"success":false}`},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, `{"error":"Unauthorized","statusCode":401,"success":false}`},
		{"foreign signature", "Bearer " + foreign, http.StatusUnauthorized, `{"error":"Unauthorized","statusCode":401,"success":false}`},
		{"garbage", "Bearer abc.def", http.StatusUnauthorized, `{"error":"Unauthorized","statusCode":401,"success":false}`},
	}
	r := newIdentityRouter(Auth(tokens))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(r, tt.header)
			qt.Assert(t, w.Code, qt.Equals, tt.wantStatus)
			qt.Assert(t, w.Body.String(), qt.JSONEquals, jsonRaw(tt.wantBody))
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	c := qt.New(t)
	tokens := pkg.NewTokenManager(testSecret, time.Hour)
	valid, err := tokens.Generate("u1", "")
	c.Assert(err, qt.IsNil)
	r := newIdentityRouter(OptionalAuth(tokens))

	w := doGet(r, "Bearer "+valid)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(w.Body.String(), qt.JSONEquals, jsonRaw(`{"role":"","userId":"u1"}`))

	w = doGet(r, "")
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(w.Body.String(), qt.JSONEquals, jsonRaw(`{"role":"","userId":""}`))

	w = doGet(r, "Bearer nope")
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(w.Body.String(), qt.JSONEquals, jsonRaw(`{"role":"","userId":""}`))
}

func TestCORS(t *testing.T) {
	c := qt.New(t)
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:4200"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(w.Header().Get("Access-Control-Allow-Origin"), qt.Equals, "http://localhost:4200")

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	c.Assert(w.Header().Get("Access-Control-Allow-Origin"), qt.Equals, "")

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	c.Assert(w.Code, qt.Equals, http.StatusNoContent)
}

type captureHandler struct {
	records []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return nil
}
func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func recordAttrs(r slog.Record) map[string]string {
	out := map[string]string{}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.String()
		return true
	})
	return out
}

func TestRequestLoggerLevels(t *testing.T) {
	c := qt.New(t)
	capture := &captureHandler{}
	r := gin.New()
	r.Use(RequestLogger(slog.New(capture)))
	r.GET("/ok/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok/42", "/boom"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	c.Assert(capture.records, qt.HasLen, 2)
	c.Assert(capture.records[0].Level, qt.Equals, slog.LevelInfo)
	c.Assert(capture.records[1].Level, qt.Equals, slog.LevelError)
	attrs := recordAttrs(capture.records[0])
	c.Assert(attrs["route"], qt.Equals, "/ok/:id")
	c.Assert(attrs["path"], qt.Equals, "/ok/42")
	c.Assert(attrs["status"], qt.Equals, "200")
}

func TestRecovery(t *testing.T) {
	c := qt.New(t)
	r := gin.New()
	r.Use(Recovery(slog.New(&captureHandler{})))
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	c.Assert(w.Code, qt.Equals, http.StatusInternalServerError)
	c.Assert(w.Body.String(), qt.JSONEquals, jsonRaw(`{"error":"Internal server error","statusCode":500,"success":false}`))
}

func jsonRaw(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		panic(err)
	}
	return v
}
