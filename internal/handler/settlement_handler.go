package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stayloop/service-booking/internal/application"
	"github.com/stayloop/service-booking/internal/platform/auth"
	"github.com/stayloop/service-booking/internal/platform/middleware"
	"github.com/stayloop/service-booking/internal/platform/response"
)

// SettlementHandler handles HTTP requests for dues and settlement operations.
type SettlementHandler struct {
	service *application.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(service *application.SettlementService) *SettlementHandler {
	return &SettlementHandler{service: service}
}

// RegisterRoutes registers settlement routes on the given router group.
func (h *SettlementHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	settlements := r.Group("/settlements")
	settlements.Use(middleware.AuthMiddleware(jwtManager))
	{
		settlements.POST("", middleware.RequireRole(auth.RoleAdmin, auth.RoleWorker), h.SettlePayment)
	}

	hosts := r.Group("/hosts")
	hosts.Use(middleware.AuthMiddleware(jwtManager))
	{
		hosts.GET("/me/dues", middleware.RequireRole(auth.RoleHost), h.GetMyDues)
	}
}

// SettlePayment handles POST /api/v1/settlements
func (h *SettlementHandler) SettlePayment(c *gin.Context) {
	var req application.SettlePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.SettlePayment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// GetMyDues handles GET /api/v1/hosts/me/dues
func (h *SettlementHandler) GetMyDues(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	dto, err := h.service.GetHostDues(c.Request.Context(), actor, actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}
