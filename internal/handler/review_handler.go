package handler

import (
	"log/slog"
	"net/http"

	"dealflow/internal/authz"
	"dealflow/internal/middleware"
	"dealflow/internal/service"
	"dealflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviewService service.ReviewService
	logger        *slog.Logger
}

func NewReviewHandler(reviewService service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, logger: logger}
}

func (h *ReviewHandler) RegisterRoutes(router *gin.RouterGroup, guard Guard) {
	review := router.Group("/api/review")
	{
		review.GET("/users", with(guard.Can(authz.ResourceUsers, authz.ActionRead), h.ListUsers)...)
		review.GET("/users/:id/requests", with(guard.Can(authz.ResourceRequests, authz.ActionReadAll), h.UserRequests)...)
	}
}

// ListUsers handles GET /api/review/users
// @Summary      List known submitters
// @Description  Submitters that have logged in at least once, with their request counts
// @Tags         review
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.ReviewUser}
// @Router       /api/review/users [get]
func (h *ReviewHandler) ListUsers(c *gin.Context) {
	users, err := h.reviewService.ListUsers(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, users))
}

// UserRequests handles GET /api/review/users/:id/requests
// @Summary      List a submitter's submitted requests
// @Tags         review
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=[]model.DealRequest}
// @Failure      404  {object}  response.Response
// @Router       /api/review/users/{id}/requests [get]
func (h *ReviewHandler) UserRequests(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	requests, err := h.reviewService.UserRequests(c.Request.Context(), middleware.SessionFrom(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, requests))
}
