package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/usamapuri/frontbench-api/internal/middleware"
	"github.com/usamapuri/frontbench-api/internal/repository"
	"github.com/usamapuri/frontbench-api/internal/services"
)

type InvoiceHandler struct {
	billingService *services.BillingService
}

func NewInvoiceHandler(billingService *services.BillingService) *InvoiceHandler {
	return &InvoiceHandler{billingService: billingService}
}

type GenerateInvoicesRequest struct {
	TargetDate string `json:"target_date"` // YYYY-MM-DD, defaults to today
}

// @Summary Generate Monthly Invoices
// @Description Run the monthly invoice batch for all students with active enrollments. Safe to re-run; already billed students are skipped.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param request body GenerateInvoicesRequest false "Batch parameters"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /billing/invoices/generate [post]
func (h *InvoiceHandler) Generate(c *gin.Context) {
	var req GenerateInvoicesRequest
	_ = c.ShouldBindJSON(&req)

	targetDate := time.Now()
	if req.TargetDate != "" {
		parsed, err := time.Parse("2006-01-02", req.TargetDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target_date must be YYYY-MM-DD"})
			return
		}
		targetDate = parsed
	}

	invoices, err := h.billingService.GenerateMonthlyInvoices(
		c.Request.Context(), middleware.GetTenantID(c), targetDate, middleware.GetUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	responses := make([]interface{}, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, invoices[i].ToResponse())
	}

	c.JSON(http.StatusCreated, gin.H{
		"invoices": responses,
		"created":  len(invoices),
	})
}

type ProratedInvoiceRequest struct {
	StudentID      uint   `json:"student_id" binding:"required"`
	EnrollmentDate string `json:"enrollment_date" binding:"required"`
	FullMonth      bool   `json:"full_month"`
}

// @Summary Generate Pro-Rated Invoice
// @Description Create an invoice for an enrollment starting mid-month, charging only the remaining days unless full_month is set.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param request body ProratedInvoiceRequest true "Pro-ration parameters"
// @Success 201 {object} models.InvoiceResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /billing/invoices/prorated [post]
func (h *InvoiceHandler) Prorated(c *gin.Context) {
	var req ProratedInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	enrollmentDate, err := time.Parse("2006-01-02", req.EnrollmentDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enrollment_date must be YYYY-MM-DD"})
		return
	}

	invoice, err := h.billingService.GenerateProRatedInvoice(
		c.Request.Context(), middleware.GetTenantID(c), req.StudentID,
		enrollmentDate, req.FullMonth, middleware.GetUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"invoice": invoice.ToResponse()})
}

// @Summary List Invoices
// @Description Get a paginated list of invoices with optional filters
// @Tags Invoices
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param student_id query int false "Filter by student"
// @Param status query string false "Filter by status"
// @Param invoice_type query string false "Filter by type"
// @Param search query string false "Search by invoice number"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /billing/invoices [get]
func (h *InvoiceHandler) Index(c *gin.Context) {
	query := &repository.InvoiceQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Status = c.Query("status")
	query.InvoiceType = c.Query("invoice_type")
	query.Search = c.Query("search")
	if studentID, err := strconv.ParseUint(c.Query("student_id"), 10, 32); err == nil {
		query.StudentID = uint(studentID)
	}

	// Parse sort parameter (format: field-direction)
	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		query.SortBy = parts[0]
		if len(parts) > 1 {
			query.SortDir = parts[1]
		}
	}

	invoices, total, err := h.billingService.ListInvoices(c.Request.Context(), middleware.GetTenantID(c), query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	responses := make([]interface{}, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, invoices[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"invoices": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Invoice
// @Description Get an invoice with its adjustment history
// @Tags Invoices
// @Produce json
// @Param invoice_id path int true "Invoice ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /billing/invoices/{invoice_id} [get]
func (h *InvoiceHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("invoice_id"), 10, 32)

	invoice, adjustments, err := h.billingService.GetInvoice(c.Request.Context(), middleware.GetTenantID(c), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	adjustmentResponses := make([]interface{}, 0, len(adjustments))
	for i := range adjustments {
		adjustmentResponses = append(adjustmentResponses, adjustments[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"invoice":     invoice.ToResponse(),
		"adjustments": adjustmentResponses,
	})
}

type AdjustmentRequest struct {
	Type   string          `json:"type" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Reason string          `json:"reason" binding:"required"`
	Notes  *string         `json:"notes"`
}

// @Summary Adjust Invoice
// @Description Apply a discount, late fee, writeoff, refund or manual total edit to an invoice. Every adjustment is recorded with actor and reason.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param invoice_id path int true "Invoice ID"
// @Param request body AdjustmentRequest true "Adjustment"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /billing/invoices/{invoice_id}/adjustments [post]
func (h *InvoiceHandler) Adjust(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("invoice_id"), 10, 32)

	var req AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.billingService.ApplyInvoiceAdjustment(
		c.Request.Context(), middleware.GetTenantID(c), uint(id),
		services.AdjustmentInput{
			Type:      req.Type,
			Amount:    req.Amount,
			Reason:    req.Reason,
			AppliedBy: middleware.GetUserID(c),
			Notes:     req.Notes,
		},
		c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invoice":    result.Invoice.ToResponse(),
		"adjustment": result.Adjustment.ToResponse(),
		"outcome":    result.Outcome,
	})
}
