package api

import (
	"embed"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"laundry-dashboard/config"
	"laundry-dashboard/internal/mw"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig) *gin.Engine {
	r := gin.Default()
	r.SetHTMLTemplate(template.Must(template.New("").ParseFS(templatesFS, "templates/*.tmpl")))

	rateLimiter := mw.RateLimiter(mw.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, 10*time.Minute))

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	caching := mw.Cache(cache.New(cacheTTL, 2*cacheTTL), cacheTTL, h.store.Version)

	session := Session(time.Duration(cfg.SessionTTLMinutes)*time.Minute, cfg.SecureCookies)

	r.GET("/", session, h.GetIndex)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Snapshot reads are session independent and cached per store version.
		api.GET("/machines", caching, h.GetMachines)
		api.GET("/floors", caching, h.GetFloors)
		api.GET("/stats", caching, h.GetStats)
		api.GET("/bookings/active", caching, h.GetActiveBookings)

		api.GET("/events", h.GetEvents)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)

		withSession := api.Group("", session)
		withSession.GET("/dashboard", h.GetDashboard)
		withSession.POST("/refresh", h.PostRefresh)

		sess := withSession.Group("/session")
		sess.PUT("/floor", h.PutFloor)
		sess.POST("/booking", h.PostBooking)
		sess.PATCH("/booking", h.PatchBooking)
		sess.DELETE("/booking", h.DeleteBooking)
		sess.POST("/booking/submit", h.PostSubmitBooking)
		sess.POST("/admin", h.PostAdmin)
		sess.DELETE("/admin", h.DeleteAdmin)
		sess.DELETE("/message", h.DeleteMessage)

		admin := withSession.Group("/admin")
		admin.GET("", h.GetAdmin)
		admin.PUT("/machines/:id/status", h.PutMachineStatus)
		admin.PUT("/bookings/:id/complete", h.PutCompleteBooking)
		admin.GET("/actions", h.GetActions)
	}

	return r
}
