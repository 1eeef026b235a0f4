package infra

// pdf.go renders receipts and the end-of-day summary with go-pdf/fpdf.
// Receipts use a 74mm x 105mm page (thermal paper width); the daily report is A4.

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bookpos/internal/dto"
	"bookpos/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateReceiptPDF writes the receipt of a committed sale to
// storagePath/receipt_{sale id}.pdf and returns the file path.
// Item titles come from SaleItem.Book, so the sale must be loaded with books.
func GenerateReceiptPDF(sale *model.Sale, shopName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("receipt_%s.pdf", sale.ID))

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(true, 4)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, tr(shopName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Sales receipt", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, "Sale #"+sale.Ref(), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, sale.SaleDate.Format("2006-01-02  15:04"), "", 1, "L", false, 0, "")
	if sale.CustomerName != nil {
		pdf.CellFormat(contentW, 4, tr("Customer: "+*sale.CustomerName), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	col1 := contentW * 0.52
	col2 := contentW * 0.16
	col3 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Title", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range sale.Items {
		title := ""
		if item.Book != nil {
			title = item.Book.Title
		}
		pdf.CellFormat(col1, 5, tr(truncate(title, 22)), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", item.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "$"+item.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(col1+col2, 5, "Subtotal:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 5, "$"+sale.Subtotal().StringFixed(2), "", 1, "R", false, 0, "")
	if !sale.Discount.IsZero() {
		pdf.CellFormat(col1+col2, 5, "Discount:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, "-$"+sale.Discount.StringFixed(2), "", 1, "R", false, 0, "")
	}
	if !sale.Tax.IsZero() {
		pdf.CellFormat(col1+col2, 5, "Tax:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, "$"+sale.Tax.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "$"+sale.TotalAmount.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.Ln(1)
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "Paid by: "+sale.PaymentMethod, "", 1, "L", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "Thank you for reading with us!", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

// DailyReport is the content of the end-of-day summary.
type DailyReport struct {
	ShopName  string
	Day       time.Time
	Summary   dto.SalesSummary
	Payments  []dto.PaymentBreakdownRow
	Top       []dto.TopSeller
	LowStock  []dto.BookResponse
	Inventory dto.InventorySummary
}

// GenerateDailyReportPDF writes storagePath/daily_{YYYY-MM-DD}.pdf.
func GenerateDailyReportPDF(r DailyReport, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	day := r.Day.Format("2006-01-02")
	filePath := filepath.Join(storagePath, "daily_"+day+".pdf")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, tr(r.ShopName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Daily summary for "+day, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	section := func(title string) {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, title, "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
	}
	kv := func(k, v string) {
		pdf.CellFormat(70, 6, k, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, v, "", 1, "L", false, 0, "")
	}

	section("Sales")
	kv("Sales", fmt.Sprintf("%d", r.Summary.SalesCount))
	kv("Revenue", "$"+r.Summary.Revenue.StringFixed(2))
	kv("Discounts", "$"+r.Summary.TotalDiscount.StringFixed(2))
	kv("Tax", "$"+r.Summary.TotalTax.StringFixed(2))
	kv("Average sale", "$"+r.Summary.AverageSale.StringFixed(2))

	if len(r.Payments) > 0 {
		section("Payment methods")
		for _, p := range r.Payments {
			kv(p.PaymentMethod, fmt.Sprintf("%d sales, $%s", p.SalesCount, p.Revenue.StringFixed(2)))
		}
	}

	if len(r.Top) > 0 {
		section("Top sellers")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(110, 6, "Title", "B", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, "Units", "B", 0, "R", false, 0, "")
		pdf.CellFormat(0, 6, "Revenue", "B", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, t := range r.Top {
			pdf.CellFormat(110, 6, tr(truncate(t.Title, 60)), "", 0, "L", false, 0, "")
			pdf.CellFormat(25, 6, fmt.Sprintf("%d", t.UnitsSold), "", 0, "R", false, 0, "")
			pdf.CellFormat(0, 6, "$"+t.Revenue.StringFixed(2), "", 1, "R", false, 0, "")
		}
	}

	section("Inventory")
	kv("Titles in catalog", fmt.Sprintf("%d", r.Inventory.Titles))
	kv("Units in stock", fmt.Sprintf("%d", r.Inventory.Units))
	kv("Stock value (sale price)", "$"+r.Inventory.Value.StringFixed(2))
	kv("Low stock titles", fmt.Sprintf("%d", r.Inventory.LowStockCount))
	kv("Out of stock titles", fmt.Sprintf("%d", r.Inventory.OutOfStockCount))

	if len(r.LowStock) > 0 {
		section("Restock soon")
		pdf.SetFont("Helvetica", "", 9)
		for _, b := range r.LowStock {
			pdf.CellFormat(135, 6, tr(truncate(b.Title+" - "+b.Author, 75)), "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 6, fmt.Sprintf("%d / min %d", b.StockQuantity, b.MinStock), "", 1, "R", false, 0, "")
		}
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "..."
}
