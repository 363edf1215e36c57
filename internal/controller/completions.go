package controller

import (
	"html"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"modelhub/internal/store"
	"modelhub/internal/utils"
)

// Completions serves autocomplete requests: ?for=<attr>&query=<q>. The
// attribute must have a registered completer (inherited through the parent
// controller chain); matching is a bounded contains-filter on the attribute.
func (ct *Controller) Completions(c *gin.Context) {
	attr := c.Query("for")
	def, ok := ct.completer(attr)
	if !ok {
		c.String(http.StatusNotFound, "No completer for %s", attr)
		return
	}

	q := utils.NormalizeSpace(c.Query("query"))
	pred := store.Predicate{
		Expr: attr + " LIKE ?",
		Args: []any{"%" + q + "%"},
	}
	items, err := ct.Store.Select(c.Request.Context(), ct.Desc, store.Spec{
		Limit: def.Limit,
		Where: pred,
	})
	if err != nil {
		ct.renderFailed(c, NewOptions(), err)
		return
	}

	var b strings.Builder
	b.WriteString("<ul>\n")
	for _, item := range items {
		val, _ := item.Get(attr).(string)
		b.WriteString("<li>")
		b.WriteString(html.EscapeString(val))
		b.WriteString("</li>\n")
	}
	b.WriteString("</ul>")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(b.String()))
}
