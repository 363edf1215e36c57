package controller

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestExportPDF_DownloadsListing(t *testing.T) {
	h := newHarness(t)
	h.mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM projects").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	h.mock.ExpectQuery("SELECT id, name, description, owner_id FROM projects").
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "owner_id"}).
			AddRow(1, "Apollo", nil, nil))

	w := h.request(t, http.MethodGet, "/projects/export.pdf", "7", nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, `attachment; filename="projects_`) {
		t.Fatalf("disposition = %q", cd)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("body is not a PDF document")
	}
}

func TestExportPDF_GuestDenied(t *testing.T) {
	h := newHarness(t)

	w := h.request(t, http.MethodGet, "/projects/export.pdf", "", nil, false)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if err := h.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("denied export must not query: %v", err)
	}
}
