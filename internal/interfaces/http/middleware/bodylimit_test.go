package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func bodyLimitRouter(maxBytes int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(BodyLimit(maxBytes))
	router.POST("/api/v1/invoices", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusBadRequest, "body too large")
			return
		}
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestBodyLimit(t *testing.T) {
	t.Run("accepts a payload under the limit", func(t *testing.T) {
		router := bodyLimitRouter(1024)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/invoices", strings.NewReader(`{"customer_name":"Acme"}`))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects an oversized declared Content-Length up front", func(t *testing.T) {
		router := bodyLimitRouter(64)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/invoices", strings.NewReader(strings.Repeat("x", 256)))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "REQUEST_TOO_LARGE")
		assert.Contains(t, w.Body.String(), `"success":false`)
	})

	t.Run("caps streamed bodies without a declared length", func(t *testing.T) {
		router := bodyLimitRouter(64)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/invoices", strings.NewReader(strings.Repeat("x", 256)))
		req.ContentLength = -1
		router.ServeHTTP(w, req)

		// MaxBytesReader fires while the handler reads
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("leaves bodiless requests alone", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(BodyLimit(16))
		router.GET("/api/v1/invoices", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/invoices", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
