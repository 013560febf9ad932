package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/usamapuri/frontbench-api/internal/middleware"
	"github.com/usamapuri/frontbench-api/internal/repository"
	"github.com/usamapuri/frontbench-api/internal/services"
)

type PaymentHandler struct {
	billingService *services.BillingService
}

func NewPaymentHandler(billingService *services.BillingService) *PaymentHandler {
	return &PaymentHandler{billingService: billingService}
}

type PaymentRequest struct {
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	Method            string          `json:"method" binding:"required"`
	TransactionNumber *string         `json:"transaction_number"`
	PaymentDate       string          `json:"payment_date"` // YYYY-MM-DD, defaults to today
	Notes             *string         `json:"notes"`
}

func (r *PaymentRequest) toMeta(c *gin.Context) (services.PaymentMeta, bool) {
	meta := services.PaymentMeta{
		Method:            r.Method,
		TransactionNumber: r.TransactionNumber,
		ReceivedBy:        middleware.GetUserID(c),
		Notes:             r.Notes,
	}
	if r.PaymentDate != "" {
		parsed, err := time.Parse("2006-01-02", r.PaymentDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payment_date must be YYYY-MM-DD"})
			return meta, false
		}
		meta.PaymentDate = parsed
	}
	return meta, true
}

type AdvancePaymentRequest struct {
	StudentID uint `json:"student_id" binding:"required"`
	PaymentRequest
}

// @Summary Record Advance Payment
// @Description Record a payment not tied to any invoice. The amount is allocated across the student's open invoices oldest first; anything left over becomes credit.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body AdvancePaymentRequest true "Payment"
// @Success 201 {object} services.AdvancePaymentResult
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /billing/payments/advance [post]
func (h *PaymentHandler) Advance(c *gin.Context) {
	var req AdvancePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meta, ok := req.toMeta(c)
	if !ok {
		return
	}

	result, err := h.billingService.ProcessAdvancePayment(
		c.Request.Context(), middleware.GetTenantID(c), req.StudentID,
		req.Amount, meta, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment":          result.Payment.ToResponse(),
		"allocations":      result.Allocations,
		"remaining_credit": result.RemainingCredit,
	})
}

// @Summary Record Partial Payment
// @Description Record a payment against one invoice. Amounts above the invoice's balance due are rejected.
// @Tags Payments
// @Accept json
// @Produce json
// @Param invoice_id path int true "Invoice ID"
// @Param request body PaymentRequest true "Payment"
// @Success 201 {object} services.PartialPaymentResult
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /billing/invoices/{invoice_id}/payments [post]
func (h *PaymentHandler) Partial(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("invoice_id"), 10, 32)

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meta, ok := req.toMeta(c)
	if !ok {
		return
	}

	result, err := h.billingService.ProcessPartialPayment(
		c.Request.Context(), middleware.GetTenantID(c), uint(id),
		req.Amount, meta, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment":     result.Payment.ToResponse(),
		"invoice":     result.Invoice.ToResponse(),
		"new_balance": result.NewBalance,
	})
}

type ReversePaymentRequest struct {
	Action string `json:"action" binding:"required"` // refund or void
	Reason string `json:"reason" binding:"required"`
}

// @Summary Reverse Payment
// @Description Refund or void a completed payment, backing its allocations out of the affected invoices.
// @Tags Payments
// @Accept json
// @Produce json
// @Param payment_id path int true "Payment ID"
// @Param request body ReversePaymentRequest true "Reversal"
// @Success 200 {object} models.PaymentResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /billing/payments/{payment_id}/reverse [post]
func (h *PaymentHandler) Reverse(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("payment_id"), 10, 32)

	var req ReversePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment, err := h.billingService.ReversePayment(
		c.Request.Context(), middleware.GetTenantID(c), uint(id),
		req.Action, req.Reason, middleware.GetUserID(c),
		c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment.ToResponse()})
}

// @Summary List Payments
// @Description Get a paginated list of payments
// @Tags Payments
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param method query string false "Filter by method"
// @Param search query string false "Search by receipt number"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /billing/payments [get]
func (h *PaymentHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["status"] = c.Query("status")
	query.Filters["method"] = c.Query("method")
	query.Search = c.Query("search")

	payments, total, err := h.billingService.ListPayments(c.Request.Context(), middleware.GetTenantID(c), query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	responses := make([]interface{}, 0, len(payments))
	for i := range payments {
		responses = append(responses, payments[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Payment
// @Description Get a payment with its allocation breakdown
// @Tags Payments
// @Produce json
// @Param payment_id path int true "Payment ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /billing/payments/{payment_id} [get]
func (h *PaymentHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("payment_id"), 10, 32)

	payment, allocations, err := h.billingService.GetPaymentAllocations(c.Request.Context(), middleware.GetTenantID(c), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	allocationResponses := make([]interface{}, 0, len(allocations))
	for i := range allocations {
		allocationResponses = append(allocationResponses, allocations[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"payment":     payment.ToResponse(),
		"allocations": allocationResponses,
	})
}
