package handler

import (
	"github.com/gin-gonic/gin"
)

// Routes groups everything Register mounts.
type Routes struct {
	Auth    *AuthHandler
	Card    *CardHandler
	Metrics *MetricsHandler
	// RequireSession guards every session route.
	RequireSession gin.HandlerFunc
	// LoginLimit throttles the login route; nil disables it.
	LoginLimit gin.HandlerFunc
}

// Register mounts the ops endpoints on r and the card API under prefix.
func Register(r *gin.Engine, prefix string, routes Routes) {
	if routes.Metrics != nil {
		r.GET("/health", routes.Metrics.Health)
		r.GET("/ready", routes.Metrics.Ready)
		r.GET("/metrics", routes.Metrics.Prometheus)
	}

	api := r.Group(prefix)

	login := []gin.HandlerFunc{routes.Auth.Login}
	if routes.LoginLimit != nil {
		login = append([]gin.HandlerFunc{routes.LoginLimit}, login...)
	}
	api.POST("/auth/login", login...)
	api.POST("/auth/logout", routes.RequireSession, routes.Auth.Logout)

	api.GET("/card/themes", routes.Card.Themes)
	api.GET("/card/downloads/:token", routes.Card.Download)

	card := api.Group("/card", routes.RequireSession)
	card.GET("", routes.Card.Get)
	card.POST("/theme", routes.Card.ApplyTheme)
	card.PUT("/scheme", routes.Card.SetScheme)
	card.PATCH("/colors/:channel", routes.Card.SetColor)
	card.POST("/flip", routes.Card.Flip)
	card.POST("/avatar/refresh", routes.Card.RefreshAvatar)
	card.GET("/avatar.svg", routes.Card.AvatarSVG)
	card.GET("/avatar.png", routes.Card.AvatarPNG)
	card.GET("/qr.png", routes.Card.QRCode)
	card.GET("/export/:face", routes.Card.ExportFace)
	card.POST("/export/links", routes.Card.CreateLinks)
}
