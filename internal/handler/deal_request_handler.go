package handler

import (
	"log/slog"
	"net/http"

	"dealflow/internal/authz"
	"dealflow/internal/middleware"
	"dealflow/internal/service"
	"dealflow/pkg/pagination"
	"dealflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DealRequestHandler struct {
	dealService   service.DealRequestService
	exportService service.ExportService
	logger        *slog.Logger
}

func NewDealRequestHandler(dealService service.DealRequestService, exportService service.ExportService, logger *slog.Logger) *DealRequestHandler {
	return &DealRequestHandler{dealService: dealService, exportService: exportService, logger: logger}
}

func (h *DealRequestHandler) RegisterRoutes(router *gin.RouterGroup, guard Guard) {
	requests := router.Group("/api/requests")
	{
		requests.POST("", with(guard.Can(authz.ResourceRequests, authz.ActionCreate), h.Create)...)
		requests.POST("/preview", with(guard.Can(authz.ResourceRequests, authz.ActionCreate), h.Preview)...)
		requests.GET("/mine", with(guard.Can(authz.ResourceRequests, authz.ActionReadOwn), h.ListMine)...)
		requests.POST("/submit", with(guard.Can(authz.ResourceRequests, authz.ActionSubmit), h.BulkSubmit)...)
		requests.POST("/:id/submit", with(guard.Can(authz.ResourceRequests, authz.ActionSubmit), h.Submit)...)

		requests.GET("", with(guard.Can(authz.ResourceRequests, authz.ActionReadAll), h.List)...)
		requests.GET("/export", with(guard.Can(authz.ResourceRequests, authz.ActionExport), h.Export)...)
		requests.POST("/decisions", with(guard.Can(authz.ResourceRequests, authz.ActionDecide), h.BulkDecide)...)
		requests.POST("/:id/decision", with(guard.Can(authz.ResourceRequests, authz.ActionDecide), h.Decide)...)
		requests.POST("/:id/redecision", with(guard.Can(authz.ResourceRequests, authz.ActionRedecide), h.Redecide)...)

		// owner or reviewer, checked by the service
		requests.GET("/:id", guard.Session, h.Get)
	}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid request id")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /api/requests
// @Summary      Create deal request
// @Description  Validates the form and stores a new pending, unsubmitted request owned by the caller
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateDealRequestInput  true  "Request form"
// @Success      201      {object}  response.Response{data=model.DealRequest}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/requests [post]
func (h *DealRequestHandler) Create(c *gin.Context) {
	var in service.CreateDealRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	req, err := h.dealService.Create(c.Request.Context(), middleware.SessionFrom(c), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, req))
}

// Preview handles POST /api/requests/preview
// @Summary      Preview deal request
// @Description  Runs validation and normalisation without saving
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateDealRequestInput  true  "Request form"
// @Success      200      {object}  response.Response{data=model.DealRequest}
// @Failure      422      {object}  response.Response
// @Router       /api/requests/preview [post]
func (h *DealRequestHandler) Preview(c *gin.Context) {
	var in service.CreateDealRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	req, err := h.dealService.Preview(c.Request.Context(), middleware.SessionFrom(c), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// ListMine handles GET /api/requests/mine
// @Summary      List own requests
// @Description  Returns the caller's requests in creation order
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200      {object}  response.Response{data=[]model.DealRequest}
// @Router       /api/requests/mine [get]
func (h *DealRequestHandler) ListMine(c *gin.Context) {
	requests, err := h.dealService.ListMine(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, requests))
}

// Submit handles POST /api/requests/:id/submit
// @Summary      Submit request for approval
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=model.DealRequest}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/requests/{id}/submit [post]
func (h *DealRequestHandler) Submit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, err := h.dealService.SubmitForApproval(c.Request.Context(), middleware.SessionFrom(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// BulkSubmit handles POST /api/requests/submit
// @Summary      Submit several requests
// @Description  Submits each id independently and reports a result per id
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.BulkSubmitInput  true  "Request ids"
// @Success      200      {object}  response.Response{data=[]service.BulkResult}
// @Router       /api/requests/submit [post]
func (h *DealRequestHandler) BulkSubmit(c *gin.Context) {
	var in service.BulkSubmitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	results, err := h.dealService.BulkSubmit(c.Request.Context(), middleware.SessionFrom(c), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, results))
}

// List handles GET /api/requests
// @Summary      List all requests
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        status     query  string  false  "pending, approved or rejected"
// @Param        submitted  query  bool    false  "only requests submitted for approval"
// @Param        user_id    query  string  false  "owner id"
// @Param        page       query  int     false  "page"
// @Param        limit      query  int     false  "page size"
// @Success      200  {object}  response.Response{data=response.Page}
// @Router       /api/requests [get]
func (h *DealRequestHandler) List(c *gin.Context) {
	p, err := pagination.Parse(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	filter := service.ListFilter{
		Status:        c.Query("status"),
		SubmittedOnly: c.Query("submitted") == "true",
		Offset:        p.Offset,
		Limit:         p.Limit,
	}
	if raw := c.Query("user_id"); raw != "" {
		uid, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "Invalid user_id")
			return
		}
		filter.UserID = &uid
	}

	requests, total, err := h.dealService.List(c.Request.Context(), middleware.SessionFrom(c), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page{
		Items: requests,
		Total: total,
		Page:  p.Page,
		Limit: p.Limit,
	}))
}

// Get handles GET /api/requests/:id
// @Summary      Get request
// @Description  Visible to the owner and to reviewers
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=model.DealRequest}
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id} [get]
func (h *DealRequestHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, err := h.dealService.Get(c.Request.Context(), middleware.SessionFrom(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// Decide handles POST /api/requests/:id/decision
// @Summary      Approve or reject a request
// @Tags         review
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Request ID"
// @Param        payload  body      service.DecisionInput  true  "Decision"
// @Success      200      {object}  response.Response{data=model.DealRequest}
// @Failure      409      {object}  response.Response
// @Router       /api/requests/{id}/decision [post]
func (h *DealRequestHandler) Decide(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in service.DecisionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	req, err := h.dealService.Decide(c.Request.Context(), middleware.SessionFrom(c), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// BulkDecide handles POST /api/requests/decisions
// @Summary      Decide several requests
// @Description  Applies one outcome and feedback to every id and reports a result per id
// @Tags         review
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.BulkDecisionInput  true  "Decision"
// @Success      200      {object}  response.Response{data=[]service.BulkResult}
// @Router       /api/requests/decisions [post]
func (h *DealRequestHandler) BulkDecide(c *gin.Context) {
	var in service.BulkDecisionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	results, err := h.dealService.BulkDecide(c.Request.Context(), middleware.SessionFrom(c), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, results))
}

// Redecide handles POST /api/requests/:id/redecision
// @Summary      Change a decided outcome
// @Description  Only available when re-decisions are enabled. A reason is required.
// @Tags         review
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Request ID"
// @Param        payload  body      service.RedecisionInput  true  "Re-decision"
// @Success      200      {object}  response.Response{data=model.DealRequest}
// @Failure      403      {object}  response.Response
// @Router       /api/requests/{id}/redecision [post]
func (h *DealRequestHandler) Redecide(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in service.RedecisionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	req, err := h.dealService.Redecide(c.Request.Context(), middleware.SessionFrom(c), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// Export handles GET /api/requests/export
// @Summary      Export requests
// @Description  Downloads every request as an XLSX workbook
// @Tags         review
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Success      200
// @Router       /api/requests/export [get]
func (h *DealRequestHandler) Export(c *gin.Context) {
	data, name, err := h.exportService.ExportRequests(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
