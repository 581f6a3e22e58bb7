package handler

import (
	"dealflow/internal/authz"
	"dealflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Guard bundles the route-level checks shared by every handler.
type Guard struct {
	Session  gin.HandlerFunc
	Enforcer *authz.Enforcer
}

// Can requires a session whose role holds the permission.
func (g Guard) Can(resource, action string) []gin.HandlerFunc {
	return []gin.HandlerFunc{g.Session, middleware.RequirePermission(g.Enforcer, resource, action)}
}

func with(chain []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(chain)+1)
	out = append(out, chain...)
	return append(out, h)
}
