package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "brigade/internal/core/context"
)

func traceTestRouter(seen *appctx.TraceContext) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Trace())
	router.GET("/ping", func(c *gin.Context) {
		if trace := appctx.GetTrace(c.Request.Context()); trace != nil {
			*seen = *trace
		}
		c.Status(http.StatusOK)
	})
	return router
}

func TestTraceGeneratesRequestID(t *testing.T) {
	var seen appctx.TraceContext
	router := traceTestRouter(&seen)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, seen.RequestID)
	assert.Equal(t, seen.RequestID, rec.Header().Get(requestIDHeader))
}

func TestTraceHonorsCallerRequestID(t *testing.T) {
	var seen appctx.TraceContext
	router := traceTestRouter(&seen)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-42")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", seen.RequestID)
	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
}
