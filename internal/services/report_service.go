package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/usamapuri/frontbench-api/internal/models"
	"github.com/usamapuri/frontbench-api/internal/repository"
	"github.com/xuri/excelize/v2"
)

type ReportService struct {
	billingSvc *BillingService
	repos      *repository.Repositories
}

func NewReportService(billingSvc *BillingService, repos *repository.Repositories) *ReportService {
	return &ReportService{billingSvc: billingSvc, repos: repos}
}

// ExportStudentLedgerXLSX renders a student's full ledger as a spreadsheet
// with a summary block, the invoice list and the payment list.
func (s *ReportService) ExportStudentLedgerXLSX(ctx context.Context, tenantID, studentID uint) ([]byte, string, error) {
	ledger, err := s.billingSvc.GetStudentLedger(ctx, tenantID, studentID)
	if err != nil {
		return nil, "", err
	}
	student, err := s.repos.Directory.FindStudent(ctx, tenantID, studentID)
	if err != nil {
		return nil, "", notFoundOr(err, "load student")
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Ledger"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Student Ledger - %s", student.FullName))
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	_ = f.SetCellValue(sheet, "A3", "Summary")
	_ = f.SetCellValue(sheet, "A4", "Total Invoiced")
	_ = f.SetCellValue(sheet, "B4", ledger.Summary.TotalInvoiced.InexactFloat64())
	_ = f.SetCellValue(sheet, "A5", "Total Paid")
	_ = f.SetCellValue(sheet, "B5", ledger.Summary.TotalPaid.InexactFloat64())
	_ = f.SetCellValue(sheet, "A6", "Total Outstanding")
	_ = f.SetCellValue(sheet, "B6", ledger.Summary.TotalOutstanding.InexactFloat64())
	_ = f.SetCellValue(sheet, "A7", "Credit Balance")
	_ = f.SetCellValue(sheet, "B7", ledger.Summary.CreditBalance.InexactFloat64())

	row := 9
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Invoices")
	row++
	for i, h := range []string{"Number", "Type", "Issue Date", "Due Date", "Total", "Paid", "Balance", "Status"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, h)
	}
	row++
	for i := range ledger.Invoices {
		inv := &ledger.Invoices[i]
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), inv.InvoiceNumber)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), inv.InvoiceType)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), inv.IssueDate.Format("2006-01-02"))
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), inv.DueDate.Format("2006-01-02"))
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), inv.Total.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), inv.AmountPaid.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), inv.BalanceDue.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), inv.Status)
		row++
	}

	row++
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Payments")
	row++
	for i, h := range []string{"Receipt", "Date", "Method", "Amount", "Source", "Status"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, h)
	}
	row++
	for i := range ledger.Payments {
		p := &ledger.Payments[i]
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), p.ReceiptNumber)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), p.PaymentDate.Format("2006-01-02"))
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), p.Method)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), p.Amount.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), p.Source)
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), p.Status)
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("student_ledger_%d_%s.xlsx", studentID, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportMonthlyCollectionsXLSX renders all completed payments for a calendar
// month with per-method subtotals.
func (s *ReportService) ExportMonthlyCollectionsXLSX(ctx context.Context, tenantID uint, year int, month time.Month) ([]byte, string, error) {
	payments, err := s.repos.Payment.FindCompletedByPeriod(ctx, tenantID, year, int(month))
	if err != nil {
		return nil, "", fmt.Errorf("load payments: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Collections"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	period := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Collections - %s", period.Format("January 2006")))
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	for i, h := range []string{"Receipt", "Date", "Student", "Method", "Amount", "Source"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		_ = f.SetCellValue(sheet, cell, h)
	}

	total := decimal.Zero
	byMethod := map[string]decimal.Decimal{}
	row := 4
	for i := range payments {
		p := &payments[i]
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), p.ReceiptNumber)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), p.PaymentDate.Format("2006-01-02"))
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), p.Student.FullName)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), p.Method)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), p.Amount.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), p.Source)
		total = total.Add(p.Amount)
		byMethod[p.Method] = byMethod[p.Method].Add(p.Amount)
		row++
	}

	row++
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Total")
	_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), total.InexactFloat64())
	row++
	for _, method := range []string{
		models.PaymentMethodCash, models.PaymentMethodBankTransfer,
		models.PaymentMethodCard, models.PaymentMethodCheque,
		models.PaymentMethodCreditBalance,
	} {
		if amount, ok := byMethod[method]; ok {
			_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), method)
			_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), amount.InexactFloat64())
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("collections_%04d-%02d.xlsx", year, month)
	return buf.Bytes(), filename, nil
}

// ExportMonthlyCollectionsCSV is the plain-text sibling of the XLSX export.
func (s *ReportService) ExportMonthlyCollectionsCSV(ctx context.Context, tenantID uint, year int, month time.Month) ([]byte, string, error) {
	payments, err := s.repos.Payment.FindCompletedByPeriod(ctx, tenantID, year, int(month))
	if err != nil {
		return nil, "", fmt.Errorf("load payments: %w", err)
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"receipt_number", "payment_date", "student", "method", "amount", "source"})
	total := decimal.Zero
	for i := range payments {
		p := &payments[i]
		_ = writer.Write([]string{
			p.ReceiptNumber,
			p.PaymentDate.Format("2006-01-02"),
			p.Student.FullName,
			p.Method,
			p.Amount.StringFixed(2),
			p.Source,
		})
		total = total.Add(p.Amount)
	}
	_ = writer.Write([]string{"", "", "", "total", total.StringFixed(2), ""})
	writer.Flush()

	filename := fmt.Sprintf("collections_%04d-%02d.csv", year, month)
	return buf.Bytes(), filename, nil
}
