// Package web serves the browser chat interface from embedded assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"philoschat/internal/persona"
)

//go:embed templates/*.html static/*
var assets embed.FS

// RegisterRoutes mounts the page and static asset routes on the router.
func RegisterRoutes(router *gin.Engine, personas *persona.Registry) error {
	tmpl, err := template.ParseFS(assets, "templates/*.html")
	if err != nil {
		return err
	}
	router.SetHTMLTemplate(tmpl)

	static, err := fs.Sub(assets, "static")
	if err != nil {
		return err
	}
	router.StaticFS("/static", http.FS(static))

	router.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", gin.H{
			"Philosophers": personas.List(),
		})
	})
	router.GET("/chat", func(c *gin.Context) {
		c.HTML(http.StatusOK, "chat.html", gin.H{
			"Philosophers": personas.List(),
		})
	})
	return nil
}
