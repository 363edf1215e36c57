package controller

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"modelhub/internal/model"
	"modelhub/internal/query"
	"modelhub/internal/store"
)

// paginatedFind computes a bounded, ordered, filtered result page for the
// root collection (owner nil) or for an association path walked from an
// owner. Data filters and the caller predicate apply after the path resolves.
func (ct *Controller) paginatedFind(c *gin.Context, opts *Options, owner *model.Record, path string) ([]*model.Record, query.Paginator, error) {
	ctx := c.Request.Context()
	params := c.Request.URL.Query()

	target, err := ct.resolveTarget(c, opts, owner, path)
	if err != nil {
		return nil, query.Paginator{}, err
	}

	where, _ := ct.Filters.FromParams(params)
	where = store.And(where, opts.Predicate(OptWhere))

	total, hasTotal := opts.Int(OptTotal)
	if !hasTotal {
		if target != nil {
			total, err = ct.Store.CountAssoc(ctx, target.Owner, target.Assoc)
		} else {
			total, err = ct.Store.Count(ctx, ct.Desc, where)
		}
		if err != nil {
			return nil, query.Paginator{}, err
		}
	}

	pageSize, ok := opts.Int(OptPageSize)
	if !ok {
		pageSize = query.DefaultPageSize
	}
	page, ok := opts.Int(OptPage)
	if !ok {
		page, _ = strconv.Atoi(params.Get("page"))
	}
	pages := query.NewPaginator(total, pageSize, page)

	order := ""
	switch {
	case opts.Has(OptOrder):
		order = opts.String(OptOrder, "")
	default:
		if sort, ok := query.ParseSort(params.Get("sort")); ok {
			if clause, ok := sort.OrderClause(ct.Desc, ct.Registry); ok {
				order = clause
				pages.SortField = sort.Raw
				pages.SortDirection = sort.Direction
			}
		}
		if order == "" && target == nil {
			// Type-default order applies to root collections only.
			order = ct.Desc.DefaultOrder
		}
	}

	spec := store.Spec{
		Limit:  pages.PageSize,
		Offset: pages.Offset(),
		Order:  order,
		Where:  where,
	}

	var results []*model.Record
	if target != nil {
		results, err = ct.Store.SelectAssoc(ctx, target.Owner, target.Assoc, spec)
	} else {
		results, err = ct.Store.Select(ctx, ct.Desc, spec)
	}
	return results, pages, err
}

// resolveTarget turns an owner plus association path into the final
// association to list. Intermediate path segments must be to-one; the last
// must be to-many. A pre-resolved OptAssociation short-circuits the walk.
func (ct *Controller) resolveTarget(c *gin.Context, opts *Options, owner *model.Record, path string) (*AssocTarget, error) {
	if t, ok := opts.Get(OptAssociation).(*AssocTarget); ok && t != nil {
		return t, nil
	}
	if owner == nil || path == "" {
		return nil, nil
	}

	segs := strings.Split(path, ".")
	cur := owner
	for _, seg := range segs[:len(segs)-1] {
		assoc, ok := cur.Descriptor().Assoc(seg)
		if !ok || assoc.ToMany {
			return nil, store.ErrBadAssociationPath
		}
		next := cur.ToOne(seg)
		if next == nil {
			fk, ok := cur.Get(assoc.FK).(int64)
			if !ok {
				return nil, store.ErrBadAssociationPath
			}
			target, ok := ct.Registry.Lookup(assoc.Target)
			if !ok {
				return nil, store.ErrBadAssociationPath
			}
			var err error
			if next, err = ct.Store.Find(c.Request.Context(), target, fk); err != nil {
				return nil, err
			}
		}
		cur = next
	}
	last, ok := cur.Descriptor().Assoc(segs[len(segs)-1])
	if !ok || !last.ToMany {
		return nil, store.ErrBadAssociationPath
	}
	return &AssocTarget{Owner: cur, Assoc: last}, nil
}
