package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/jrsteele09/go-tender-client/simulate"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
)

// pdfReport wraps an A4 document with the helpers both reports share.
type pdfReport struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newPDFReport(title string, generated time.Time) *pdfReport {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetTitle(title, true)

	r := &pdfReport{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 20)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(contentWidth, 12, r.tr(title), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "I", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Generated: %s", generated.Format("2 January 2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(6)
	return r
}

func (r *pdfReport) heading(s string) {
	r.pdf.Ln(4)
	r.pdf.SetFont("Arial", "B", 12)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 8, r.tr(s), "", 1, "L", false, 0, "")
}

func (r *pdfReport) table(headers []string, rows [][]string) {
	width := contentWidth / float64(len(headers))

	r.pdf.SetFillColor(245, 247, 250)
	r.pdf.SetDrawColor(200, 200, 200)
	r.pdf.SetFont("Arial", "B", 10)
	r.pdf.SetTextColor(0, 51, 102)
	for _, h := range headers {
		r.pdf.CellFormat(width, 7, r.tr(h), "1", 0, "C", true, 0, "")
	}
	r.pdf.Ln(-1)

	r.pdf.SetFont("Arial", "", 10)
	r.pdf.SetTextColor(50, 50, 50)
	for _, row := range rows {
		for i, cell := range row {
			align := "R"
			if i == 0 {
				align = "L"
			}
			r.pdf.CellFormat(width, 6, r.tr(cell), "1", 0, align, false, 0, "")
		}
		r.pdf.Ln(-1)
	}
}

func (r *pdfReport) output(w io.Writer) error {
	if err := r.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// ListPricePDF writes a list simulation report to w.
func ListPricePDF(w io.Writer, res *simulate.Result, generated time.Time, decimals int) error {
	r := newPDFReport("List Price Simulation", generated)

	r.heading("Line items")
	means := res.ItemMeans()
	items := make([][]string, len(res.Items))
	for i, item := range res.Items {
		items[i] = []string{item.Name, Format(item.Baseline(), decimals), Format(means[i], decimals)}
	}
	r.table([]string{"Item", "Baseline", "Mean simulated"}, items)

	r.heading("Summary")
	stats := make([][]string, 0, len(res.Groups)+1)
	for gi, g := range res.Groups {
		stats = append(stats, statsRow(fmt.Sprintf("Group %d", gi+1), g.Stats, decimals))
	}
	stats = append(stats, statsRow("All", res.Stats, decimals))
	r.table([]string{"", "Count", "Min", "Max", "Mean"}, stats)

	r.heading("Simulated totals")
	totals := make([][]string, len(res.Totals))
	for i, v := range res.Totals {
		totals[i] = []string{strconv.Itoa(i + 1), Format(v, decimals)}
	}
	r.table([]string{"#", "Total"}, totals)

	return r.output(w)
}

// TotalPricePDF writes a total-price simulation report to w.
func TotalPricePDF(w io.Writer, res *simulate.TotalResult, generated time.Time, decimals int) error {
	r := newPDFReport("Total Price Simulation", generated)

	r.heading("Mean bid " + Format(res.Mean, decimals))
	rec := make([][]string, len(res.Recommended))
	for i, v := range res.Recommended {
		rec[i] = []string{strconv.Itoa(i + 1), Format(v, decimals)}
	}
	r.table([]string{"#", "Recommended control price"}, rec)

	r.heading("Simulated bids")
	rows := make([][]string, len(res.Samples))
	for i, v := range res.Samples {
		rows[i] = []string{strconv.Itoa(i + 1), Format(v, decimals)}
	}
	r.table([]string{"#", "Bid"}, rows)

	return r.output(w)
}
