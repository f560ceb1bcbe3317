package payslip

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/warp/payroll-engine/payroll"
)

const (
	labelWidth  = 130.0
	amountWidth = 50.0
	rowHeight   = 7.0
)

// RenderPDF returns an A4 payslip.
func RenderPDF(result *payroll.PayrollResult, employeeName string) ([]byte, error) {
	if result == nil {
		return nil, payroll.NewValidationError("result", "result is required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payslip "+result.EmployeeID+" "+result.Period.String(), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Employee: %s (ID: %s)", employeeName, result.EmployeeID))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s",
		result.Period.Start.Format(dateLayout), result.Period.End.Format(dateLayout)))
	pdf.Ln(10)

	section(pdf, "Earnings", append(
		result.LinesIn(payroll.CategoryEarning),
		result.LinesIn(payroll.CategoryAllowance)...,
	))
	total(pdf, "Gross Pay", result.GrossPay.String())
	pdf.Ln(4)

	section(pdf, "Deductions", result.LinesIn(payroll.CategoryDeduction))
	total(pdf, "Total Deductions", result.DeductionsTotal.String())
	pdf.Ln(4)

	if len(result.TaxBreakdown) > 0 {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(0, rowHeight, fmt.Sprintf("Tax on taxable income %s", result.TaxableIncome))
		pdf.Ln(rowHeight)
		pdf.SetFont("Helvetica", "", 10)
		for _, tl := range result.TaxBreakdown {
			row(pdf, fmt.Sprintf("%s @ %s%%", tl.Label, tl.Rate.String()), tl.Amount.String())
		}
		pdf.Ln(4)
	}

	total(pdf, "Net Pay", result.NetPay.String())
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, rowHeight, "Employer costs: "+result.EmployerCosts.String())
	pdf.Ln(rowHeight)
	for _, w := range result.Warnings {
		pdf.Cell(0, rowHeight, "Warning: "+w)
		pdf.Ln(rowHeight)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render payslip: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string, lines []payroll.LineItem) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(labelWidth, rowHeight, title, "1", 0, "L", true, 0, "")
	pdf.CellFormat(amountWidth, rowHeight, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	if len(lines) == 0 {
		row(pdf, "None", "")
	}
	for _, li := range lines {
		row(pdf, li.Description, li.Amount.String())
	}
}

func row(pdf *gofpdf.Fpdf, label, amount string) {
	pdf.CellFormat(labelWidth, rowHeight, label, "1", 0, "L", false, 0, "")
	pdf.CellFormat(amountWidth, rowHeight, amount, "1", 1, "R", false, 0, "")
}

func total(pdf *gofpdf.Fpdf, label, amount string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(labelWidth, rowHeight, label, "1", 0, "L", false, 0, "")
	pdf.CellFormat(amountWidth, rowHeight, amount, "1", 1, "R", false, 0, "")
}
