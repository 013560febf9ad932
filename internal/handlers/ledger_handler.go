package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/usamapuri/frontbench-api/internal/middleware"
	"github.com/usamapuri/frontbench-api/internal/services"
)

type LedgerHandler struct {
	billingService *services.BillingService
}

func NewLedgerHandler(billingService *services.BillingService) *LedgerHandler {
	return &LedgerHandler{billingService: billingService}
}

// @Summary Student Ledger
// @Description Get a student's full account history: invoices, payments, allocations, adjustments and summary totals.
// @Tags Ledger
// @Produce json
// @Param student_id path int true "Student ID"
// @Success 200 {object} services.StudentLedger
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /students/{student_id}/ledger [get]
func (h *LedgerHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("student_id"), 10, 32)

	ledger, err := h.billingService.GetStudentLedger(c.Request.Context(), middleware.GetTenantID(c), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	invoices := make([]interface{}, 0, len(ledger.Invoices))
	for i := range ledger.Invoices {
		invoices = append(invoices, ledger.Invoices[i].ToResponse())
	}
	payments := make([]interface{}, 0, len(ledger.Payments))
	for i := range ledger.Payments {
		payments = append(payments, ledger.Payments[i].ToResponse())
	}
	allocations := make([]interface{}, 0, len(ledger.Allocations))
	for i := range ledger.Allocations {
		allocations = append(allocations, ledger.Allocations[i].ToResponse())
	}
	adjustments := make([]interface{}, 0, len(ledger.Adjustments))
	for i := range ledger.Adjustments {
		adjustments = append(adjustments, ledger.Adjustments[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":     ledger.Summary,
		"invoices":    invoices,
		"payments":    payments,
		"allocations": allocations,
		"adjustments": adjustments,
	})
}

// @Summary Student Credit Balance
// @Description Get a student's unallocated overpayment balance.
// @Tags Ledger
// @Produce json
// @Param student_id path int true "Student ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /students/{student_id}/credit [get]
func (h *LedgerHandler) Credit(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("student_id"), 10, 32)

	credit, err := h.billingService.GetStudentCredit(c.Request.Context(), middleware.GetTenantID(c), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"student_id":     uint(id),
		"credit_balance": credit,
	})
}
