package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stayloop/service-booking/internal/application"
	"github.com/stayloop/service-booking/internal/platform/auth"
	"github.com/stayloop/service-booking/internal/platform/middleware"
	"github.com/stayloop/service-booking/internal/platform/response"
)

// AdminHandler handles admin HTTP requests for booking and dues management.
type AdminHandler struct {
	bookingService    *application.BookingService
	settlementService *application.SettlementService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(bookingService *application.BookingService, settlementService *application.SettlementService) *AdminHandler {
	return &AdminHandler{
		bookingService:    bookingService,
		settlementService: settlementService,
	}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.BookingStats)
		admin.GET("/hosts/:id/dues", h.HostDues)
		admin.POST("/fines", h.CreateFine)
		admin.POST("/sweeps/aggregate", h.RunAggregation)
		admin.POST("/sweeps/reminders", h.RunReminders)
		admin.POST("/sweeps/enforce", h.RunEnforcement)
		admin.POST("/sweeps/end-stays", h.RunEndStays)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	bookings, total, err := h.bookingService.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	stats, err := h.bookingService.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// HostDues handles GET /api/v1/admin/hosts/:id/dues.
func (h *AdminHandler) HostDues(c *gin.Context) {
	hostID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid host ID")
		return
	}

	actor, _ := middleware.GetActor(c)
	dto, err := h.settlementService.GetHostDues(c.Request.Context(), actor, hostID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// CreateFine handles POST /api/v1/admin/fines.
func (h *AdminHandler) CreateFine(c *gin.Context) {
	var req application.CreateFineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.settlementService.CreateFine(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// RunAggregation handles POST /api/v1/admin/sweeps/aggregate. The period
// defaults to the previous calendar month.
func (h *AdminHandler) RunAggregation(c *gin.Context) {
	period := application.PreviousMonth(time.Now().UTC())
	if raw := c.Query("period"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			response.BadRequest(c, "invalid period, expected YYYY-MM")
			return
		}
		period = parsed
	}

	billed, err := h.settlementService.RunMonthlyAggregation(c.Request.Context(), period)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"hosts_billed": billed})
}

// RunReminders handles POST /api/v1/admin/sweeps/reminders.
func (h *AdminHandler) RunReminders(c *gin.Context) {
	sent, err := h.settlementService.RunReminderSweep(c.Request.Context(), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"reminders_sent": sent})
}

// RunEnforcement handles POST /api/v1/admin/sweeps/enforce.
func (h *AdminHandler) RunEnforcement(c *gin.Context) {
	blocked, err := h.settlementService.EnforceOverdue(c.Request.Context(), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"hosts_blocked": blocked})
}

// RunEndStays handles POST /api/v1/admin/sweeps/end-stays.
func (h *AdminHandler) RunEndStays(c *gin.Context) {
	ended, err := h.bookingService.EndElapsedStays(c.Request.Context(), time.Now().UTC(), 500)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"stays_ended": ended})
}
