package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the dashboard and the JSON API onto a gin engine.
func NewRouter(api *ApplicationHandler, dashboard *DashboardHandler, middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware...)

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	r.SetHTMLTemplate(Templates())
	r.GET("/", dashboard.Show)
	r.POST("/", dashboard.Submit)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", HealthCheck)

		v1.GET("/applications", api.ListApplications)
		v1.POST("/applications", api.SubmitApplication)
		v1.POST("/applications/extract", api.ExtractApplication)
		v1.GET("/events", api.ListEvents)
	}
	return r
}
