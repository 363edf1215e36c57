package controller

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"modelhub/internal/domain"
	"modelhub/internal/model"
	"modelhub/internal/query"
	"modelhub/internal/view"
)

// wantsJS selects the response channel: partial-update (ajax) requests get the
// js channel, everything else the page-navigation html channel.
func wantsJS(c *gin.Context) bool {
	if c.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "text/javascript") || strings.Contains(accept, "application/json")
}

// overridable runs the caller-supplied response for the key if present and
// reports whether it did.
func overridable(c *gin.Context, opts *Options, key string) bool {
	if fn := opts.Response(key); fn != nil {
		fn(c)
		return true
	}
	return false
}

// permissionDenied resolves the denied outcome: caller override, then the
// controller hook, then the built-in 403 with an overridable message.
func (ct *Controller) permissionDenied(c *gin.Context, opts *Options) {
	if overridable(c, opts, OptPermissionDeniedResponse) {
		return
	}
	if ct.PermissionDeniedResponse != nil {
		ct.PermissionDeniedResponse(c)
		return
	}
	c.String(http.StatusForbidden, opts.String(OptMessage, "Permission Denied"))
}

func (ct *Controller) notFound(c *gin.Context, opts *Options) {
	if overridable(c, opts, OptNotFoundResponse) {
		return
	}
	if ct.NotFoundResponse != nil {
		ct.NotFoundResponse(c)
		return
	}
	c.String(http.StatusNotFound,
		domain.NotFoundError{Resource: ct.Desc.Name, ID: c.Param("id")}.Error())
}

// viewData assembles the bag handed to templates.
func (ct *Controller) viewData(c *gin.Context, this any, pages query.Paginator) view.Data {
	data := view.Data{
		"This":  this,
		"Model": ct.Desc.Name,
		"Pages": pages,
		"User":  CurrentUser(c),
		"Path":  c.Request.URL.Path,
	}
	if rec, ok := this.(*model.Record); ok && rec != nil {
		data["Errors"] = rec.Errors().Full()
	}
	return data
}

// renderPage resolves the kind against the page type's ancestor chain and
// renders the first matching template; with none found it falls back to the
// generic composite page for the fixed generic kinds. Reports false when no
// view exists either way.
func (ct *Controller) renderPage(c *gin.Context, opts *Options, kind string, pageDesc *model.Descriptor, data view.Data) bool {
	if pageDesc == nil {
		pageDesc = ct.Desc
	}
	path, ok := ct.Views.Find(pageDesc, kind, false)
	if !ok {
		path, ok = ct.Views.FindGeneric(kind)
	}
	if !ok {
		return false
	}

	var buf bytes.Buffer
	if err := ct.Views.Render(&buf, path, data); err != nil {
		ct.renderFailed(c, opts, err)
		return true
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	return true
}

// render is renderPage for the common case where a missing view is a defect.
func (ct *Controller) render(c *gin.Context, opts *Options, kind string, data view.Data) {
	if !ct.renderPage(c, opts, kind, ct.Desc, data) {
		ct.renderFailed(c, opts, domain.InternalError{
			Msg: fmt.Sprintf("no view for %s %s", ct.Desc.Name, kind),
		})
	}
}

// renderFailed handles failures surfaced by the rendering collaborator. A
// sign-in requirement (possibly raised inside a nested render) becomes a
// login redirect for guests and a plain denial otherwise; anything else is
// re-raised for the recovery middleware.
func (ct *Controller) renderFailed(c *gin.Context, opts *Options, err error) {
	var signIn domain.SignInRequiredError
	if errors.As(err, &signIn) {
		if CurrentUser(c).IsGuest() {
			target := ct.LoginPath
			if len(signIn.Models) > 0 {
				target += "?as=" + url.QueryEscape(signIn.Models[0])
			}
			c.Redirect(http.StatusFound, target)
			return
		}
		ct.permissionDenied(c, cloneWithMessage(opts, signIn.Error()))
		return
	}
	panic(err)
}

func cloneWithMessage(opts *Options, msg string) *Options {
	out := NewOptions()
	if fn := opts.Response(OptPermissionDeniedResponse); fn != nil {
		out.Set(OptPermissionDeniedResponse, fn)
	}
	out.Set(OptMessage, msg)
	return out
}
