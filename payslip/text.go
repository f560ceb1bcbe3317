/*
Package payslip renders a PayrollResult for an employee.

FORMATS:
  RenderText: plain text, one line per line item
  RenderPDF:  A4 PDF with earnings and deductions tables (gofpdf)

Both read only the result; they never recompute. Amounts print with the
result's fixed two decimals.
*/
package payslip

import (
	"fmt"
	"strings"

	"github.com/warp/payroll-engine/payroll"
)

const dateLayout = "2006-01-02"

// RenderText returns a plain-text payslip.
func RenderText(result *payroll.PayrollResult, employeeName string) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	if id := result.Audit["computation_id"]; id != "" {
		line("Payslip ID: %s", id)
	}
	line("Employee: %s (ID: %s)", employeeName, result.EmployeeID)
	line("Period: %s to %s", result.Period.Start.Format(dateLayout), result.Period.End.Format(dateLayout))
	line("")

	line("Earnings:")
	for _, li := range result.LinesIn(payroll.CategoryEarning) {
		line(" - %s: %s", li.Description, li.Amount)
	}
	line("")

	line("Allowances:")
	allowances := result.LinesIn(payroll.CategoryAllowance)
	if len(allowances) == 0 {
		line(" - None")
	}
	for _, li := range allowances {
		line(" - %s: %s", li.Description, li.Amount)
	}
	line("Total Allowances: %s", result.AllowancesTotal)
	line("Gross Pay: %s", result.GrossPay)
	line("")

	line("Deductions:")
	deductions := result.LinesIn(payroll.CategoryDeduction)
	if len(deductions) == 0 {
		line(" - None")
	}
	for _, li := range deductions {
		line(" - %s: %s", li.Description, li.Amount)
	}
	line("Total Deductions: %s", result.DeductionsTotal)
	line("")

	line("Taxable Income: %s", result.TaxableIncome)
	line("Tax: %s", result.TaxTotal)
	for _, tl := range result.TaxBreakdown {
		line(" - %s @ %s%%: %s", tl.Label, tl.Rate.String(), tl.Amount)
	}
	line("")

	line("Net Pay: %s", result.NetPay)
	line("Employer Costs: %s", result.EmployerCosts)
	for _, w := range result.Warnings {
		line("Warning: %s", w)
	}
	if at := result.Audit["computed_at"]; at != "" {
		line("")
		line("Generated on: %s", at)
	}
	return b.String()
}
