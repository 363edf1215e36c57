package controller

import (
	"strings"

	"github.com/gin-gonic/gin"

	"modelhub/internal/domain"
	"modelhub/internal/model"
	"modelhub/internal/query"
	"modelhub/internal/view"
)

// ShowCollection lists a to-many association of an owner instance, authorized
// at (owner, collection) granularity before any member is read.
func (ct *Controller) ShowCollection(c *gin.Context, collection string, opts *Options) {
	owner := opts.Record(OptOwner)
	if owner == nil {
		var ok bool
		if owner, ok = ct.findInstance(c, opts); !ok {
			return
		}
	}

	toplevel := strings.SplitN(collection, ".", 2)[0]
	if !ct.Gates.CanView(CurrentUser(c), owner, toplevel) {
		ct.permissionDenied(c, opts)
		return
	}

	coll := opts.Records(OptCollection)
	var pages query.Paginator
	if coll == nil {
		var err error
		if coll, pages, err = ct.paginatedFind(c, opts, owner, collection); err != nil {
			ct.renderFailed(c, opts, err)
			return
		}
	}

	data := ct.viewData(c, coll, pages)
	data["Owner"] = owner
	data["Collection"] = collection
	if ct.renderPage(c, opts, "show_"+underscorePath(collection), ct.Desc, data) {
		return
	}
	ct.renderGenericCollection(c, opts, collection, "show_collection", data)
}

// NewInCollection prepares an unsaved member of an owner's to-many
// association, with the owner side already assigned.
func (ct *Controller) NewInCollection(c *gin.Context, collection string, opts *Options) {
	owner := opts.Record(OptOwner)
	if owner == nil {
		var ok bool
		if owner, ok = ct.findInstance(c, opts); !ok {
			return
		}
	}

	user := CurrentUser(c)
	if !ct.Gates.CanView(user, owner, collection) {
		ct.permissionDenied(c, opts)
		return
	}

	assoc, ok := ct.Desc.Assoc(collection)
	if !ok || !assoc.ToMany {
		ct.notFound(c, opts)
		return
	}
	target, ok := ct.Registry.Lookup(assoc.Target)
	if !ok {
		ct.notFound(c, opts)
		return
	}

	rec := opts.Record(OptThis)
	if rec == nil {
		rec = target.New()
		rec.Set(assoc.FK, owner.ID())
	}
	ct.assignCreator(rec, user, opts)

	if !ct.Gates.CanCreate(user, rec) {
		ct.permissionDenied(c, opts)
		return
	}

	data := ct.viewData(c, rec, query.Paginator{})
	data["Owner"] = owner
	data["Collection"] = collection
	if ct.renderPage(c, opts, "new_"+model.Singularize(collection), ct.Desc, data) {
		return
	}
	ct.renderGenericCollection(c, opts, collection, "new_in_collection", data)
}

// renderGenericCollection falls back to the composite page for the kind,
// resolved against the association's member type.
func (ct *Controller) renderGenericCollection(c *gin.Context, opts *Options, collection, kind string, data view.Data) {
	pageDesc := ct.Desc
	walk := ct.Desc
	for _, seg := range strings.Split(collection, ".") {
		assoc, ok := walk.Assoc(seg)
		if !ok {
			break
		}
		if target, ok := ct.Registry.Lookup(assoc.Target); ok {
			walk = target
			pageDesc = target
		}
	}
	if !ct.renderPage(c, opts, kind, pageDesc, data) {
		ct.renderFailed(c, opts, domain.InternalError{
			Msg: "no view for " + kind + " of " + collection,
		})
	}
}

func underscorePath(collection string) string {
	return strings.ReplaceAll(collection, ".", "_")
}
