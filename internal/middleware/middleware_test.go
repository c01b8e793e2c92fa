package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// operatorRouter mirrors the operator endpoint's middleware stack.
func operatorRouter(limits RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS(DefaultCORSConfig()))
	router.Use(RateLimit(limits))

	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"started": true})
	})
	router.POST("/faults/primary", GlobalRateLimit(FaultRateLimitConfig()), func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"terminated": "controller-1"})
	})
	return router
}

func send(router *gin.Engine, method, path, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestFaultInjectionLimitedAcrossClients(t *testing.T) {
	router := operatorRouter(DefaultRateLimitConfig())

	first := send(router, http.MethodPost, "/faults/primary", "10.0.0.1:4000")
	assert.Equal(t, http.StatusAccepted, first.Code)

	// a second operator does not get a bucket of their own
	second := send(router, http.MethodPost, "/faults/primary", "10.0.0.2:4000")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, second.Body.String())

	status := send(router, http.MethodGet, "/status", "10.0.0.2:4000")
	assert.Equal(t, http.StatusOK, status.Code, "reads are not held back by the fault limiter")
}

func TestFaultInjectionRecoversAfterOneSecond(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the fault limiter to refill")
	}
	router := operatorRouter(DefaultRateLimitConfig())

	require.Equal(t, http.StatusAccepted, send(router, http.MethodPost, "/faults/primary", "10.0.0.1:4000").Code)
	require.Equal(t, http.StatusTooManyRequests, send(router, http.MethodPost, "/faults/primary", "10.0.0.1:4000").Code)

	assert.Eventually(t, func() bool {
		return send(router, http.MethodPost, "/faults/primary", "10.0.0.1:4000").Code == http.StatusAccepted
	}, 2*time.Second, 100*time.Millisecond)
}

func TestStatusPollingLimitedPerClient(t *testing.T) {
	limits := DefaultRateLimitConfig()
	limits.RequestsPerSecond = 0.001
	router := operatorRouter(limits)

	for i := 0; i < limits.Burst; i++ {
		require.Equal(t, http.StatusOK, send(router, http.MethodGet, "/status", "10.0.0.1:4000").Code, "request %d", i)
	}
	assert.Equal(t, http.StatusTooManyRequests, send(router, http.MethodGet, "/status", "10.0.0.1:4000").Code)

	// the port is not part of the client key
	assert.Equal(t, http.StatusTooManyRequests, send(router, http.MethodGet, "/status", "10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusOK, send(router, http.MethodGet, "/status", "10.0.0.9:4000").Code)
}

func TestIdleClientsSweptActiveClientsKept(t *testing.T) {
	router := operatorRouter(RateLimitConfig{
		RequestsPerSecond: 0.001,
		Burst:             1,
		IdleTTL:           200 * time.Millisecond,
	})
	const busy, idle = "10.0.0.1:4000", "10.0.0.2:4000"

	for _, remote := range []string{busy, idle} {
		require.Equal(t, http.StatusOK, send(router, http.MethodGet, "/status", remote).Code)
		require.Equal(t, http.StatusTooManyRequests, send(router, http.MethodGet, "/status", remote).Code)
	}

	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, http.StatusTooManyRequests, send(router, http.MethodGet, "/status", busy).Code)

	// this request runs the sweep: busy was seen recently, idle was not
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, http.StatusTooManyRequests, send(router, http.MethodGet, "/status", busy).Code, "a recently seen client keeps its bucket")
	assert.Equal(t, http.StatusOK, send(router, http.MethodGet, "/status", idle).Code, "a swept client starts with a fresh bucket")
}

func TestFaultPreflightFromAnyOrigin(t *testing.T) {
	router := operatorRouter(DefaultRateLimitConfig())

	req := httptest.NewRequest(http.MethodOptions, "/faults/primary", nil)
	req.Header.Set("Origin", "http://dashboard.plant.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))

	// the preflight did not spend the fault budget
	post := send(router, http.MethodPost, "/faults/primary", "10.0.0.1:4000")
	assert.Equal(t, http.StatusAccepted, post.Code)
}
