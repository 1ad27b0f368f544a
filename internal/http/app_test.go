package handlers_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"medimart/internal/config"
	"medimart/internal/http/handlers"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandlerHidesDetail(t *testing.T) {
	for _, dev := range []bool{false, true} {
		app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(dev)})
		app.Get("/err", func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusInternalServerError, "db timeout: secret trace")
		})
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/err", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), `"message":"Server error"`)
		assert.Equal(t, dev, strings.Contains(string(body), "secret trace"), "dev=%v body=%s", dev, body)
	}
}

func TestHealthMetricsAndNotFound(t *testing.T) {
	a := newTestApp(t)

	resp, body := a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	resp, body = a.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "http_requests_total")

	resp, body = a.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Not found"}`, string(body))
}

func TestRateLimit(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) {
		c.RateLimitMax = 2
		c.RateLimitWindow = time.Minute
	})
	for i := 0; i < 2; i++ {
		resp, _ := a.do(t, http.MethodGet, "/api/categories", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, body := a.do(t, http.MethodGet, "/api/categories", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, string(body), "rate limit exceeded")
	assert.Contains(t, actions(a.logs), "rate.limit.hit")

	// Health checks are never limited.
	resp, _ = a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUpload(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) { c.MaxUploadBytes = 16 })

	send := func(name string, content []byte) *http.Response {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		fw, err := w.CreateFormFile("file", name)
		require.NoError(t, err)
		_, _ = fw.Write(content)
		require.NoError(t, w.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
		req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
		resp, err := a.app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp := send("../my photo.png", []byte("png"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Regexp(t, `"url":"/uploads/\d+-my_photo\.png"`, string(body))

	resp = send("big.png", bytes.Repeat([]byte("x"), 64))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = a.do(t, http.MethodPost, "/api/upload", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
