// Package report renders collection listings as downloadable PDF documents.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"

	"modelhub/internal/model"
	"modelhub/internal/utils"
)

// listingColumns caps how many fields fit a landscape table row.
const listingColumns = 6

// Listing renders a tabular PDF of the records' declared scalar fields and
// returns the document bytes plus a download filename.
func Listing(d *model.Descriptor, recs []*model.Record) ([]byte, string, error) {
	fields := d.Fields
	if len(fields) > listingColumns {
		fields = fields[:listingColumns]
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(d.GroupName(), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("%s (%d)", d.GroupName(), len(recs)))
	pdf.Ln(12)

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := (pageW - left - right - 20) / float64(len(fields))

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(20, 7, "id", "1", 0, "", false, 0, "")
	for _, f := range fields {
		pdf.CellFormat(colW, 7, f.Name, "1", 0, "", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, rec := range recs {
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", rec.ID()), "1", 0, "", false, 0, "")
		for _, f := range fields {
			pdf.CellFormat(colW, 6, cellValue(rec.Get(f.Name)), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("%s_%s.pdf", d.GroupName(), time.Now().Format("20060102"))
	return buf.Bytes(), filename, nil
}

func cellValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		return utils.FormatDate(x)
	default:
		return fmt.Sprint(x)
	}
}
