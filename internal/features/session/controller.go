package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type SessionController struct{}

func (c *SessionController) RegisterRoutes(router *gin.RouterGroup) {
	routes := router.Group("/session", RequireSession())

	routes.GET("/me", c.GetCurrentUser)
}

// GetCurrentUser
// @Summary Current visitor
// @Description Returns the visitor identified by the auth provider access token.
// @Tags session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SessionUser
// @Failure 401 {object} map[string]string "Authorization token required"
// @Router /v1/session/me [get]
func (c *SessionController) GetCurrentUser(ctx *gin.Context) {
	user, _ := GetUserFromContext(ctx)
	ctx.JSON(http.StatusOK, user)
}
