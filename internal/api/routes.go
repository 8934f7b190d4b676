package api

import (
	"github.com/gin-gonic/gin"

	infragin "github.com/jonesrussell/company-url-collector/infrastructure/gin"
)

// RegisterRoutes mounts the versioned API and the unversioned legacy
// aliases. Both require a JWT when jwtSecret is set.
func RegisterRoutes(router *gin.Engine, h *URLHandler, jwtSecret string) {
	v1 := infragin.ProtectedGroup(router, "/api/v1", jwtSecret)
	v1.POST("/collect-urls", h.Collect)
	v1.GET("/urls/:company", h.URLs)
	v1.GET("/companies", h.Companies)

	legacy := infragin.ProtectedGroup(router, "/api", jwtSecret)
	legacy.POST("/collect-urls", h.CollectLegacy)
	legacy.GET("/get-urls/:company", h.URLs)
}
