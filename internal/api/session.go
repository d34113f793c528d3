package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"laundry-dashboard/internal/dashboard"
)

const (
	sessionCookie = "dashboard_session"
	sessionKey    = "session_id"
)

// Session makes sure every request carries a session id cookie and stores the
// id in the gin context.
func Session(maxAge time.Duration, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(sessionCookie)
		if err != nil {
			id = dashboard.NewID()
		} else if _, perr := uuid.Parse(id); perr != nil {
			id = dashboard.NewID()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, id, int(maxAge.Seconds()), "/", "", secure, true)
		c.Set(sessionKey, id)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
