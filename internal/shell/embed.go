// Package shell provides the embedded application shell: the static assets a
// client precaches so the app can load without a network.
package shell

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed all:assets
var assetsFS embed.FS

// AssetsFS returns the embedded shell assets as a filesystem rooted at the
// asset directory (e.g. "index.html", not "assets/index.html").
func AssetsFS() (fs.FS, error) {
	return fs.Sub(assetsFS, "assets")
}

// PrecachePaths lists the shell assets a client caches ahead of time. "/" and
// "/index.html" are the same document; both are listed so either form of the
// request hits the cache.
func PrecachePaths() []string {
	return []string{
		"/",
		"/index.html",
		"/manifest.json",
		"/icon.svg",
	}
}

// RegisterRoutes serves the shell on the router. Unmatched non-API paths fall
// back to index.html so client-side routes resolve to the shell document.
func RegisterRoutes(router *gin.Engine) error {
	assets, err := AssetsFS()
	if err != nil {
		return err
	}

	index, err := fs.ReadFile(assets, "index.html")
	if err != nil {
		return err
	}

	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	})
	router.StaticFS("/assets", http.FS(assets))
	router.GET("/index.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	})
	router.GET("/manifest.json", func(c *gin.Context) {
		serveAsset(c, assets, "manifest.json", "application/manifest+json")
	})
	router.GET("/icon.svg", func(c *gin.Context) {
		serveAsset(c, assets, "icon.svg", "image/svg+xml")
	})

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "route not found",
			}})
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	})

	return nil
}

func serveAsset(c *gin.Context, assets fs.FS, name, contentType string) {
	data, err := fs.ReadFile(assets, name)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, contentType, data)
}
