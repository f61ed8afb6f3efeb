package admin

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts /admin. Routes other than login use auth; login runs
// loginLimit first.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc, loginLimit ...gin.HandlerFunc) *gin.RouterGroup {
	admin := rg.Group("/admin")
	admin.POST("/login", append(append([]gin.HandlerFunc{}, loginLimit...), h.Login)...)

	protected := admin.Group("", auth)
	{
		protected.GET("/verify", h.Verify)
		protected.GET("/test-email", h.TestEmail)
	}
	return protected
}
