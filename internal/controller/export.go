package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"modelhub/internal/report"
)

// ExportPDF downloads the current filtered, sorted listing as a tabular PDF.
// The same pagination parameters apply, so page 2 of a listing exports page 2.
func (ct *Controller) ExportPDF(c *gin.Context, opts *Options) {
	if !ct.Gates.CanView(CurrentUser(c), ct.Desc.New(), "") {
		ct.permissionDenied(c, opts)
		return
	}

	recs, _, err := ct.paginatedFind(c, opts, nil, "")
	if err != nil {
		ct.renderFailed(c, opts, err)
		return
	}

	body, filename, err := report.Listing(ct.Desc, recs)
	if err != nil {
		ct.renderFailed(c, opts, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", body)
}
