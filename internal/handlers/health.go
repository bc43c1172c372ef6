package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthCheck handles the health check endpoint. The service has no hard
// dependencies, so it is healthy whenever it answers.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// TokenCacheStatus describes the cached upstream token.
type TokenCacheStatus struct {
	Cached    bool       `json:"cached"`
	Valid     bool       `json:"valid"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// StatusResponse is the body of GET /internal/status.
type StatusResponse struct {
	Status          string           `json:"status"`
	UpstreamBaseURL string           `json:"upstreamBaseUrl"`
	Token           TokenCacheStatus `json:"token"`
}

// InternalStatus reports the upstream wiring and the token cache.
// GET /internal/status
func InternalStatus(c *gin.Context) {
	resp := StatusResponse{Status: "ok", UpstreamBaseURL: upstreamBaseURL}
	if tokenStatus != nil {
		st := tokenStatus.Status()
		resp.Token = TokenCacheStatus{Cached: st.Cached, Valid: st.Valid}
		if st.Cached {
			exp := st.ExpiresAt
			resp.Token.ExpiresAt = &exp
		}
	}
	c.JSON(http.StatusOK, resp)
}
