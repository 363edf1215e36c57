package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"modelhub/internal/model"
)

func TestListing_ProducesPDFWithDatedFilename(t *testing.T) {
	reg := model.NewRegistry()
	d := reg.Register(&model.Descriptor{
		Name: "Project",
		Fields: []model.Field{
			{Name: "name", Kind: model.KindString},
			{Name: "created_at", Kind: model.KindTime},
		},
	})

	rec := d.New()
	rec.MarkPersisted(1)
	rec.Set("name", "Apollo")
	rec.Set("created_at", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))

	body, filename, err := Listing(d, []*model.Record{rec})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		t.Fatalf("output is not a PDF document")
	}
	if !strings.HasPrefix(filename, "projects_") || !strings.HasSuffix(filename, ".pdf") {
		t.Fatalf("filename = %q", filename)
	}
}

func TestListing_CapsColumns(t *testing.T) {
	reg := model.NewRegistry()
	fields := make([]model.Field, 0, 10)
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		fields = append(fields, model.Field{Name: n, Kind: model.KindString})
	}
	d := reg.Register(&model.Descriptor{Name: "Wide", Fields: fields})

	body, _, err := Listing(d, nil)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(body) == 0 {
		t.Fatalf("empty document")
	}
}
