package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/usamapuri/frontbench-api/internal/middleware"
	"github.com/usamapuri/frontbench-api/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// @Summary Student Ledger XLSX
// @Description Download a student's ledger as a spreadsheet
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param student_id query int true "Student ID"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/student_ledger_xlsx [get]
func (h *ReportHandler) StudentLedgerXLSX(c *gin.Context) {
	studentID, err := strconv.ParseUint(c.Query("student_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student_id is required"})
		return
	}

	data, filename, err := h.reportService.ExportStudentLedgerXLSX(c.Request.Context(), middleware.GetTenantID(c), uint(studentID))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *ReportHandler) collectionsPeriod(c *gin.Context) (int, time.Month, bool) {
	year, _ := strconv.Atoi(c.Query("year"))
	month, _ := strconv.Atoi(c.Query("month"))
	if month < 1 || month > 12 || year < 2000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month or year"})
		return 0, 0, false
	}
	return year, time.Month(month), true
}

// @Summary Monthly Collections XLSX
// @Description Download all completed payments for a month as a spreadsheet with per-method totals
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param year query int true "Year (YYYY)"
// @Param month query int true "Month (1-12)"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/collections_xlsx [get]
func (h *ReportHandler) CollectionsXLSX(c *gin.Context) {
	year, month, ok := h.collectionsPeriod(c)
	if !ok {
		return
	}

	data, filename, err := h.reportService.ExportMonthlyCollectionsXLSX(c.Request.Context(), middleware.GetTenantID(c), year, month)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// @Summary Monthly Collections CSV
// @Description Download all completed payments for a month as CSV
// @Tags Reports
// @Produce text/csv
// @Param year query int true "Year (YYYY)"
// @Param month query int true "Month (1-12)"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/collections_csv [get]
func (h *ReportHandler) CollectionsCSV(c *gin.Context) {
	year, month, ok := h.collectionsPeriod(c)
	if !ok {
		return
	}

	data, filename, err := h.reportService.ExportMonthlyCollectionsCSV(c.Request.Context(), middleware.GetTenantID(c), year, month)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", data)
}
