package controller

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"modelhub/internal/model"
	"modelhub/internal/mutate"
	"modelhub/internal/query"
)

// Index lists the root collection. The collection option supplies a
// pre-fetched result set and skips query building.
func (ct *Controller) Index(c *gin.Context, opts *Options) {
	user := CurrentUser(c)
	if !ct.Gates.CanView(user, ct.Desc.New(), "") {
		ct.permissionDenied(c, opts)
		return
	}

	coll := opts.Records(OptCollection)
	var pages query.Paginator
	if coll == nil {
		var err error
		if coll, pages, err = ct.paginatedFind(c, opts, nil, ""); err != nil {
			ct.renderFailed(c, opts, err)
			return
		}
	}
	ct.render(c, opts, "index", ct.viewData(c, coll, pages))
}

// Show exposes a single resolved, authorized instance.
func (ct *Controller) Show(c *gin.Context, opts *Options) {
	ct.showWithKind(c, opts, "show")
}

// Edit prepares the edit form; it is show under the edit view kind.
func (ct *Controller) Edit(c *gin.Context, opts *Options) {
	ct.showWithKind(c, opts, "edit")
}

func (ct *Controller) showWithKind(c *gin.Context, opts *Options, kind string) {
	rec, ok := ct.findInstance(c, opts)
	if !ok {
		return
	}
	if !ct.Gates.CanView(CurrentUser(c), rec, "") {
		ct.permissionDenied(c, opts)
		return
	}
	ct.render(c, opts, kind, ct.viewData(c, rec, query.Paginator{}))
}

// New prepares an unsaved instance for the create form, assigning the acting
// user as creator unless suppressed.
func (ct *Controller) New(c *gin.Context, opts *Options) {
	user := CurrentUser(c)
	rec := opts.Record(OptThis)
	if rec == nil {
		rec = ct.Desc.New()
	}
	ct.assignCreator(rec, user, opts)

	if !ct.Gates.CanCreate(user, rec) {
		ct.permissionDenied(c, opts)
		return
	}
	ct.render(c, opts, "new", ct.viewData(c, rec, query.Paginator{}))
}

func (ct *Controller) assignCreator(rec *model.Record, user model.User, opts *Options) {
	if opts.Has(OptSetCreator) && !opts.Bool(OptSetCreator, true) {
		return
	}
	if d := rec.Descriptor(); d.CreatorField != "" && !user.IsGuest() {
		rec.SetToOne(d.CreatorField, user.Record())
	}
}

// Create applies the posted attributes inside a transaction and negotiates
// the tri-state outcome.
func (ct *Controller) Create(c *gin.Context, opts *Options) {
	user := CurrentUser(c)
	attrs, typeName := ct.requestAttrs(c)

	var (
		rec    *model.Record
		status mutate.Status
		err    error
	)
	if rec = opts.Record(OptThis); rec != nil {
		// Caller-built instance: authorize and save as-is.
		status, err = ct.Mut.SaveNew(c.Request.Context(), rec, user)
	} else {
		setCreator := !opts.Has(OptSetCreator) || opts.Bool(OptSetCreator, true)
		rec, status, err = ct.Mut.Create(c.Request.Context(), ct.Desc, typeName, user, attrs, setCreator)
	}
	if err != nil {
		ct.renderFailed(c, opts, err)
		return
	}

	switch status {
	case mutate.StatusNotAllowed:
		ct.permissionDenied(c, opts)
	case mutate.StatusValid:
		if wantsJS(c) {
			if !overridable(c, opts, OptJSResponse) {
				c.String(http.StatusOK, "")
			}
			return
		}
		if !overridable(c, opts, OptHTMLResponse) {
			c.Redirect(http.StatusFound, ct.objectURL(rec))
		}
	default:
		ct.respondInvalid(c, opts, rec, "new",
			fmt.Sprintf("There was a problem creating that %s.", rec.Descriptor().Name))
	}
}

// Update mirrors create from a resolved instance, applying only the provided
// changed fields.
func (ct *Controller) Update(c *gin.Context, opts *Options) {
	user := CurrentUser(c)
	rec, ok := ct.findInstance(c, opts)
	if !ok {
		return
	}
	changes, _ := ct.requestAttrs(c)

	status, err := ct.Mut.Update(c.Request.Context(), rec, user, changes)
	if err != nil {
		ct.renderFailed(c, opts, err)
		return
	}

	switch status {
	case mutate.StatusNotAllowed:
		ct.permissionDenied(c, opts)
	case mutate.StatusValid:
		ct.refreshCurrentUser(c, user, rec)
		if wantsJS(c) {
			if overridable(c, opts, OptJSResponse) {
				return
			}
			if len(changes) == 1 {
				// Single-field change: hand back the re-rendered value for
				// in-place editors.
				for field := range changes {
					c.Data(http.StatusOK, "text/html; charset=utf-8",
						[]byte(ct.fieldFragment(rec, field)))
				}
				return
			}
			c.String(http.StatusOK, "")
			return
		}
		if !overridable(c, opts, OptHTMLResponse) {
			c.Redirect(http.StatusFound, ct.objectURL(rec))
		}
	default:
		ct.respondInvalid(c, opts, rec, "edit", "There was a problem with that change.")
	}
}

// refreshCurrentUser keeps the acting identity fresh when a user updates
// their own record.
func (ct *Controller) refreshCurrentUser(c *gin.Context, user model.User, rec *model.Record) {
	u := user.Record()
	if u != nil && u.Descriptor() == rec.Descriptor() && u.ID() == rec.ID() {
		SetCurrentUser(c, model.AuthenticatedUser(rec))
	}
}

func (ct *Controller) fieldFragment(rec *model.Record, field string) string {
	v := rec.Get(field)
	if v == nil {
		if one := rec.ToOne(field); one != nil {
			return html.EscapeString(one.Display())
		}
		return ""
	}
	return html.EscapeString(fmt.Sprint(v))
}

func (ct *Controller) respondInvalid(c *gin.Context, opts *Options, rec *model.Record, formKind, headline string) {
	if wantsJS(c) {
		if overridable(c, opts, OptInvalidJSResponse) {
			return
		}
		lines := append([]string{headline}, rec.Errors().Full()...)
		c.String(http.StatusInternalServerError, strings.Join(lines, "\n"))
		return
	}
	if overridable(c, opts, OptInvalidHTMLResponse) {
		return
	}
	// Re-render the form with the field messages retained on the record.
	ct.render(c, opts, formKind, ct.viewData(c, rec, query.Paginator{}))
}

// Destroy removes an authorized instance and negotiates the response.
func (ct *Controller) Destroy(c *gin.Context, opts *Options) {
	rec, ok := ct.findInstance(c, opts)
	if !ok {
		return
	}
	if !ct.Gates.CanDelete(CurrentUser(c), rec) {
		ct.permissionDenied(c, opts)
		return
	}
	if err := ct.Store.Delete(c.Request.Context(), rec); err != nil {
		ct.renderFailed(c, opts, err)
		return
	}

	if wantsJS(c) {
		if !overridable(c, opts, OptJSResponse) {
			c.String(http.StatusOK, "")
		}
		return
	}
	if !overridable(c, opts, OptHTMLResponse) {
		c.Redirect(http.StatusFound, ct.BasePath)
	}
}

// CallWebMethod resolves the instance and invokes a registered web method
// after the CanCall check.
func (ct *Controller) CallWebMethod(c *gin.Context, name string, opts *Options) {
	rec, ok := ct.findInstance(c, opts)
	if !ok {
		return
	}
	if !ct.Gates.CanCall(CurrentUser(c), rec, name) {
		ct.permissionDenied(c, opts)
		return
	}
	ct.webMethods[name](c, rec)
}

var formAttrRx = regexp.MustCompile(`^([a-z_]+)\[([a-z_0-9]+)\]$`)

// requestAttrs extracts the attribute changes for this controller's type from
// the request: a JSON body keyed by the underscored type name, or bracketed
// form fields. The type discriminator travels beside the attributes.
func (ct *Controller) requestAttrs(c *gin.Context) (mutate.Changes, string) {
	key := model.Underscore(ct.Desc.Name)

	if strings.Contains(c.ContentType(), "json") {
		var body map[string]any
		if err := json.NewDecoder(c.Request.Body).Decode(&body); err == nil {
			typeName, _ := body["type"].(string)
			if nested, ok := body[key].(map[string]any); ok {
				return mutate.Changes(nested), typeName
			}
		}
		return mutate.Changes{}, ""
	}

	attrs := mutate.Changes{}
	if err := c.Request.ParseForm(); err != nil {
		return attrs, ""
	}
	for k, vals := range c.Request.PostForm {
		m := formAttrRx.FindStringSubmatch(k)
		if m == nil || m[1] != key || len(vals) == 0 {
			continue
		}
		if len(vals) == 1 {
			attrs[m[2]] = vals[0]
		} else {
			anyVals := make([]any, len(vals))
			for i, v := range vals {
				anyVals[i] = v
			}
			attrs[m[2]] = anyVals
		}
	}
	return attrs, c.Request.PostForm.Get("type")
}
