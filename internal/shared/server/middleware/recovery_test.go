package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"social-insight/internal/shared/telemetry"
)

func TestRecoveryReturns500Envelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	telemetry.Configure(io.Discard, "info")
	t.Cleanup(func() { telemetry.Configure(os.Stdout, "info") })

	var seenRequestID string
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) {
		seenRequestID = telemetry.RequestIDFromContext(c.Request.Context())
		panic("kaboom")
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if seenRequestID == "" || seenRequestID != resp.Header().Get("X-Request-Id") {
		t.Fatalf("expected request id on request context, got %q", seenRequestID)
	}
}
