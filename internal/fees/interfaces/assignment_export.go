package interfaces

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	fees "schoolfin-cloud/internal/fees/domain"
)

// BuildInvoicePDF renders a per-student fee invoice.
func BuildInvoicePDF(a *fees.Assignment) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Fee Invoice")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Student: %s (%s)", a.StudentName, a.StudentID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Class: %s", a.ClassID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Academic Year: %s", a.AcademicYear))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Term: %s", a.Term))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", a.Status))
	pdf.Ln(5)
	if a.DueDate != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Due Date: %s", a.DueDate))
		pdf.Ln(5)
	}
	if a.ScholarshipID != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Scholarship: %s (%s)", a.ScholarshipName, a.ScholarshipType))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Fee Item", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Mandatory", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Selected", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, item := range a.FeeItems {
		pdf.CellFormat(70, 6, item.CategoryName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", item.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, yesNo(item.IsMandatory), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, yesNo(item.IsSelected), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Original Amount (%s): %.2f", a.Currency, a.OriginalAmount))
	pdf.Ln(5)
	if a.DiscountAmount > 0 {
		pdf.Cell(0, 6, fmt.Sprintf("Discount (%s): %.2f", a.Currency, a.DiscountAmount))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Total Amount (%s): %.2f", a.Currency, a.TotalAmount))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Amount Paid (%s): %.2f", a.Currency, a.AmountPaid))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Balance (%s): %.2f", a.Currency, a.Balance))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildClassBillingXLSX renders a class billing workbook, one row per
// student assignment.
func BuildClassBillingXLSX(classID, academicYear, term string, list []fees.Assignment) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	billingSheet := "billing"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(billingSheet)

	var totalBilled, totalPaid, totalOutstanding float64
	for _, a := range list {
		totalBilled += a.TotalAmount
		totalPaid += a.AmountPaid
		totalOutstanding += a.Balance
	}

	_ = f.SetCellValue(summarySheet, "A1", "Class Billing")
	_ = f.SetCellValue(summarySheet, "A3", "Class")
	_ = f.SetCellValue(summarySheet, "B3", classID)
	_ = f.SetCellValue(summarySheet, "A4", "Academic Year")
	_ = f.SetCellValue(summarySheet, "B4", academicYear)
	_ = f.SetCellValue(summarySheet, "A5", "Term")
	_ = f.SetCellValue(summarySheet, "B5", term)
	_ = f.SetCellValue(summarySheet, "A6", "Students")
	_ = f.SetCellValue(summarySheet, "B6", len(list))
	_ = f.SetCellValue(summarySheet, "A7", "Total Billed")
	_ = f.SetCellValue(summarySheet, "B7", totalBilled)
	_ = f.SetCellValue(summarySheet, "A8", "Total Paid")
	_ = f.SetCellValue(summarySheet, "B8", totalPaid)
	_ = f.SetCellValue(summarySheet, "A9", "Total Outstanding")
	_ = f.SetCellValue(summarySheet, "B9", totalOutstanding)

	headers := []string{"Student", "Student ID", "Original", "Discount", "Total", "Paid", "Balance", "Status", "Scholarship"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(billingSheet, cell, header)
	}
	for i, a := range list {
		row := i + 2
		_ = f.SetCellValue(billingSheet, fmt.Sprintf("A%d", row), a.StudentName)
		_ = f.SetCellValue(billingSheet, fmt.Sprintf("B%d", row), a.StudentID)
		_ = f.SetCellValue(billingSheet, fmt.Sprintf("C%d", row), a.OriginalAmount)
		_ = f.SetCellValue(billingSheet, fmt.Sprintf("D%d", row), a.DiscountAmount)
		_ = f.SetCellValue(billingSheet, fmt.Sprintf("E%d", row), a.TotalAmount)
		_ = f.SetCellValue(billingSheet, fmt.Sprintf("F%d", row), a.AmountPaid)
		_ = f.SetCellValue(billingSheet, fmt.Sprintf("G%d", row), a.Balance)
		_ = f.SetCellValue(billingSheet, fmt.Sprintf("H%d", row), a.Status)
		_ = f.SetCellValue(billingSheet, fmt.Sprintf("I%d", row), a.ScholarshipName)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
