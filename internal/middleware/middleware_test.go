package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuacenter/applicant-intake/internal/config"
	"github.com/joshuacenter/applicant-intake/internal/utils"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func echoEmail(c echo.Context) error {
	return c.String(http.StatusOK, VerifiedEmailFrom(c))
}

func TestVerifiedEmail(t *testing.T) {
	e := echo.New()
	e.POST("/submit", echoEmail, VerifiedEmail("secret"))

	tok, err := utils.NewVerificationToken("secret", "jane@x.com", time.Hour)
	require.NoError(t, err)

	t.Run("header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.Header.Set(VerificationTokenHeader, tok.Token)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "jane@x.com", rec.Body.String())
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.Header.Set("Authorization", "Bearer "+tok.Token)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, "jane@x.com", rec.Body.String())
	})

	t.Run("absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/submit", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("invalid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.Header.Set(VerificationTokenHeader, "garbage")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"kind":"verification"`)
	})
}

func TestVerifiedEmailDisabledWithoutSecret(t *testing.T) {
	e := echo.New()
	e.POST("/submit", echoEmail, VerifiedEmail(""))

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set(VerificationTokenHeader, "garbage")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/verify-code", nil)
	req.Header.Set(echo.HeaderXRealIP, "203.0.113.9")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/verify-code")

	cfg := config.RateLimitConfig{Prefix: "intake:rl"}

	cfg.KeyStrategy = "ip_route"
	assert.Equal(t, "intake:rl:ip:203.0.113.9:route:POST /api/verify-code", buildRateKey(cfg, c))

	cfg.KeyStrategy = "ip"
	assert.Equal(t, "intake:rl:ip:203.0.113.9", buildRateKey(cfg, c))

	c.Set(VerifiedEmailKey, "jane@x.com")
	cfg.KeyStrategy = "subject_route"
	assert.Equal(t, "intake:rl:sub:jane@x.com:route:POST /api/verify-code", buildRateKey(cfg, c))
}

func TestTokenBucketWithoutRedisPassesThrough(t *testing.T) {
	e := echo.New()
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, discard())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, mw)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 0, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(1))
	assert.Equal(t, 30, retryAfterSeconds(29_500))
	assert.Equal(t, 0, retryAfterSeconds(-50))
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	body := []byte(`[{"id":1,"name":"North"}]`)

	bs, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, body, gotBody)

	_, _, _, ok = decodePayload(bs[:6])
	assert.False(t, ok)
}

func TestCacheKeyIgnoresMethodByDefault(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "intake:cache"}

	c1 := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/locations?x=1", nil), httptest.NewRecorder())
	c1.SetPath("/api/locations")
	c2 := e.NewContext(httptest.NewRequest(http.MethodHead, "/api/locations?x=1", nil), httptest.NewRecorder())
	c2.SetPath("/api/locations")
	c3 := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/locations?x=2", nil), httptest.NewRecorder())
	c3.SetPath("/api/locations")

	k1 := cacheKeyFrom(cfg, c1)
	assert.Equal(t, k1, cacheKeyFrom(cfg, c2))
	assert.NotEqual(t, k1, cacheKeyFrom(cfg, c3))
	assert.Regexp(t, `^intake:cache:[0-9a-f]{40}$`, k1)
}

func TestCacheWithoutRedis(t *testing.T) {
	ca := NewCache(config.CacheConfig{Enabled: true}, nil, discard())
	ca.Purge(context.Background())

	e := echo.New()
	e.GET("/api/locations", func(c echo.Context) error { return c.JSON(http.StatusOK, []int{1}) }, ca.Middleware())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/locations", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestCaptureWriterLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	_, _ = cw.Write([]byte("def"))
	assert.Equal(t, "abcd", cw.buf.String())
	assert.Equal(t, int64(6), cw.size)
	assert.Equal(t, "abcdef", rec.Body.String())
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	e := echo.New()
	e.Use(RequestLogger(logger))
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/api/missing", func(c echo.Context) error { return c.NoContent(http.StatusNotFound) })

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, buf.String())

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/missing", nil))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "status=404")
	assert.Contains(t, buf.String(), "path=/api/missing")
}
