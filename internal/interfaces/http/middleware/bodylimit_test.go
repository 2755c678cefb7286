package middleware

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// limitedConsole mounts a form patch and an image upload behind BodyLimit.
// Both report a body cut short by the limit as 413 the way the handlers do.
func limitedConsole(maxBytes int64) *gin.Engine {
	tooLarge := func(c *gin.Context, err error) bool {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.String(http.StatusRequestEntityTooLarge, "too large")
			return true
		}
		return false
	}

	router := gin.New()
	router.Use(BodyLimit(maxBytes))
	router.PATCH("/admin/forms/articles", func(c *gin.Context) {
		var patch map[string]any
		if err := c.ShouldBindJSON(&patch); err != nil {
			if !tooLarge(c, err) {
				c.String(http.StatusBadRequest, err.Error())
			}
			return
		}
		c.JSON(http.StatusOK, patch)
	})
	router.POST("/admin/forms/articles/image/upload", func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			if !tooLarge(c, err) {
				c.String(http.StatusBadRequest, err.Error())
			}
			return
		}
		c.String(http.StatusOK, file.Filename)
	})
	router.GET("/admin/views/articles", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func uploadBody(t *testing.T, size int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "cover.png")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0x89}, size))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("form patch within limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/admin/forms/articles", strings.NewReader(`{"title":"SME lending in Q3"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		limitedConsole(1024).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"title":"SME lending in Q3"}`, w.Body.String())
	})

	t.Run("declared length over limit is rejected before the handler", func(t *testing.T) {
		body := `{"content":"` + strings.Repeat("x", 300) + `"}`
		req := httptest.NewRequest(http.MethodPatch, "/admin/forms/articles", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		limitedConsole(256).ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_PAYLOAD_TOO_LARGE")
	})

	t.Run("streamed form patch is cut at the limit", func(t *testing.T) {
		body := `{"content":"` + strings.Repeat("x", 300) + `"}`
		req := httptest.NewRequest(http.MethodPatch, "/admin/forms/articles", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.ContentLength = -1
		w := httptest.NewRecorder()
		limitedConsole(256).ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "too large", w.Body.String())
	})

	t.Run("image upload within limit", func(t *testing.T) {
		body, contentType := uploadBody(t, 512)
		req := httptest.NewRequest(http.MethodPost, "/admin/forms/articles/image/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		limitedConsole(4096).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "cover.png", w.Body.String())
	})

	t.Run("oversized image upload", func(t *testing.T) {
		body, contentType := uploadBody(t, 8192)
		req := httptest.NewRequest(http.MethodPost, "/admin/forms/articles/image/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		limitedConsole(4096).ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_PAYLOAD_TOO_LARGE")
	})

	t.Run("disabled limit and bodiless reads pass", func(t *testing.T) {
		w := httptest.NewRecorder()
		limitedConsole(10).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/views/articles", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		body, contentType := uploadBody(t, 8192)
		req := httptest.NewRequest(http.MethodPost, "/admin/forms/articles/image/upload", body)
		req.Header.Set("Content-Type", contentType)
		w = httptest.NewRecorder()
		limitedConsole(0).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
