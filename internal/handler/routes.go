package handler

import "github.com/gin-gonic/gin"

// Handlers groups every API handler for registration.
type Handlers struct {
	Auth       *AuthHandler
	Requests   *DealRequestHandler
	Review     *ReviewHandler
	Catalog    *CatalogHandler
	Statistics *StatisticsHandler
}

func (h Handlers) Register(router *gin.RouterGroup, guard Guard) {
	h.Auth.RegisterRoutes(router, guard)
	h.Catalog.RegisterRoutes(router, guard)
	h.Requests.RegisterRoutes(router, guard)
	h.Review.RegisterRoutes(router, guard)
	h.Statistics.RegisterRoutes(router, guard)
}
