// Package controller turns a registered entity descriptor plus its capability
// bindings into the full CRUD and collection action surface: index, show,
// new, create, edit, update, destroy, show_<collection>, new_<singular>,
// completions and a PDF listing export.
package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"modelhub/internal/access"
	"modelhub/internal/model"
	"modelhub/internal/mutate"
	"modelhub/internal/query"
	"modelhub/internal/store"
	"modelhub/internal/view"
)

const currentUserKey = "current_user"

// SetCurrentUser stores the acting identity for the request; the auth
// middleware calls this.
func SetCurrentUser(c *gin.Context, u model.User) {
	c.Set(currentUserKey, u)
}

// CurrentUser returns the acting identity, guest when unauthenticated.
func CurrentUser(c *gin.Context) model.User {
	if v, ok := c.Get(currentUserKey); ok {
		if u, ok := v.(model.User); ok {
			return u
		}
	}
	return model.Guest()
}

// Completer is a per-attribute autocomplete definition.
type Completer struct {
	Limit int
}

// WebMethod is a named POST action on an instance, gated by CanCall.
type WebMethod func(c *gin.Context, subject *model.Record)

// Controller composes the resolution, authorization, mutation, pagination and
// rendering steps for one entity type. All registries are populated before
// mounting and read-only afterwards.
type Controller struct {
	Desc     *model.Descriptor
	Store    store.Store
	Gates    *access.Bindings
	Views    *view.Resolver
	Mut      *mutate.Mutator
	Registry *model.Registry
	Filters  *query.Filters
	Parent   *Controller

	// LoginPath is where a sign-in requirement redirects guests.
	LoginPath string
	// BasePath is set at mount time and backs canonical object URLs.
	BasePath string

	// Locally overridden default-response hooks, consulted between a
	// caller-supplied override and the built-in default.
	PermissionDeniedResponse func(*gin.Context)
	NotFoundResponse         func(*gin.Context)

	completers  map[string]Completer
	webMethods  map[string]WebMethod
	methodOrder []string
	showActions []string
	collections []string
}

// New builds a controller for the descriptor. A non-nil parent makes this a
// subtype controller inheriting the parent's data filters and completers.
func New(desc *model.Descriptor, st store.Store, gates *access.Bindings, views *view.Resolver, reg *model.Registry, parent *Controller) *Controller {
	var parentFilters *query.Filters
	if parent != nil {
		parentFilters = parent.Filters
	}
	ct := &Controller{
		Desc:       desc,
		Store:      st,
		Gates:      gates,
		Views:      views,
		Registry:   reg,
		Filters:    query.NewFilters(parentFilters),
		Parent:     parent,
		LoginPath:  "/login",
		completers: map[string]Completer{},
		webMethods: map[string]WebMethod{},
		// Collection actions come from the declared to-many associations,
		// resolved once here and dispatched by table lookup.
		collections: desc.Collections(),
	}
	ct.Mut = &mutate.Mutator{Store: st, Gates: gates, Registry: reg}
	return ct
}

// DefDataFilter registers a named data filter selectable by a where_<name>
// request parameter.
func (ct *Controller) DefDataFilter(name string, fn query.FilterFunc) {
	ct.Filters.Define(name, fn)
}

// AutocompleteFor registers an autocomplete definition for an attribute.
func (ct *Controller) AutocompleteFor(attr string, def Completer) {
	if def.Limit <= 0 {
		def.Limit = 15
	}
	ct.completers[attr] = def
}

func (ct *Controller) completer(attr string) (Completer, bool) {
	for c := ct; c != nil; c = c.Parent {
		if def, ok := c.completers[attr]; ok {
			return def, true
		}
	}
	return Completer{}, false
}

// ShowAction registers extra GET instance actions that behave as show,
// rendered under their own view kind.
func (ct *Controller) ShowAction(names ...string) {
	ct.showActions = append(ct.showActions, names...)
}

// DefWebMethod registers a named POST instance action gated by CanCall.
func (ct *Controller) DefWebMethod(name string, fn WebMethod) {
	if _, dup := ct.webMethods[name]; !dup {
		ct.methodOrder = append(ct.methodOrder, name)
	}
	ct.webMethods[name] = fn
}

// PublishCollection adds a collection action for an association path beyond
// the declared to-many set (e.g. a dotted path through a to-one owner).
func (ct *Controller) PublishCollection(names ...string) {
	ct.collections = append(ct.collections, names...)
}

// Mount registers the action routes on the group, one route per action from
// the precomputed tables.
func (ct *Controller) Mount(parent *gin.RouterGroup) {
	g := parent.Group("/" + ct.Desc.GroupName())
	ct.BasePath = g.BasePath()

	g.GET("", ct.handler(func(c *gin.Context) { ct.Index(c, NewOptions()) }))
	g.GET("/new", ct.handler(func(c *gin.Context) { ct.New(c, NewOptions()) }))
	g.POST("", ct.handler(func(c *gin.Context) { ct.Create(c, NewOptions()) }))
	g.GET("/completions", ct.handler(func(c *gin.Context) { ct.Completions(c) }))
	g.GET("/export.pdf", ct.handler(func(c *gin.Context) { ct.ExportPDF(c, NewOptions()) }))
	g.GET("/:id", ct.handler(func(c *gin.Context) { ct.Show(c, NewOptions()) }))
	g.GET("/:id/edit", ct.handler(func(c *gin.Context) { ct.Edit(c, NewOptions()) }))
	g.PUT("/:id", ct.handler(func(c *gin.Context) { ct.Update(c, NewOptions()) }))
	g.DELETE("/:id", ct.handler(func(c *gin.Context) { ct.Destroy(c, NewOptions()) }))

	for _, name := range ct.collections {
		name := name
		g.GET("/:id/"+name, ct.handler(func(c *gin.Context) {
			ct.ShowCollection(c, name, NewOptions())
		}))
		if assoc, ok := ct.Desc.Assoc(name); ok && assoc.ToMany {
			g.GET("/:id/"+name+"/new", ct.handler(func(c *gin.Context) {
				ct.NewInCollection(c, name, NewOptions())
			}))
		}
	}
	for _, name := range ct.showActions {
		name := name
		g.GET("/:id/"+name, ct.handler(func(c *gin.Context) {
			ct.showWithKind(c, NewOptions(), name)
		}))
	}
	for _, name := range ct.methodOrder {
		name := name
		g.POST("/:id/"+name, ct.handler(func(c *gin.Context) {
			ct.CallWebMethod(c, name, NewOptions())
		}))
	}
}

// handler wraps every action with the no-cache headers the layer always sets.
func (ct *Controller) handler(fn gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Pragma", "no-cache")
		c.Header("Cache-Control", "no-store")
		c.Header("Expires", "0")
		fn(c)
	}
}

// objectURL is the canonical location of a record.
func (ct *Controller) objectURL(rec *model.Record) string {
	base := ct.BasePath
	if base == "" {
		base = "/" + rec.Descriptor().GroupName()
	}
	return base + "/" + rec.Param()
}

func isNumericID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// findInstance resolves the :id path parameter to a persisted record. A
// non-numeric identifier on a friendly-id type goes to the secondary key;
// every miss collapses into the not-found response.
func (ct *Controller) findInstance(c *gin.Context, opts *Options) (*model.Record, bool) {
	if rec := opts.Record(OptThis); rec != nil {
		return rec, true
	}
	id := c.Param("id")
	var (
		rec *model.Record
		err error
	)
	if ct.Desc.FriendlyKey != "" && !isNumericID(id) {
		rec, err = ct.Store.FindByKey(c.Request.Context(), ct.Desc, id)
	} else {
		var n int64
		if n, err = strconv.ParseInt(id, 10, 64); err == nil {
			rec, err = ct.Store.Find(c.Request.Context(), ct.Desc, n)
		}
	}
	if err != nil || rec == nil {
		ct.notFound(c, opts)
		return nil, false
	}
	return rec, true
}
