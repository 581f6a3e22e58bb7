package handler

import (
	"log/slog"
	"net/http"

	"dealflow/internal/middleware"
	"dealflow/internal/service"
	"dealflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService service.CatalogService
	logger         *slog.Logger
}

func NewCatalogHandler(catalogService service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, logger: logger}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup, guard Guard) {
	router.GET("/api/catalog", guard.Session, h.GetCatalog)
}

// GetCatalog handles GET /api/catalog
// @Summary      Form options
// @Description  Deal types, classes of trade, materials, outlets, sales areas and brands
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.Catalog}
// @Router       /api/catalog [get]
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	catalog, err := h.catalogService.Catalog(middleware.SessionFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, catalog))
}
