package query

import (
	"net/url"

	"modelhub/internal/store"
)

// FilterFunc builds a predicate from the request parameter values of a
// where_<name> parameter.
type FilterFunc func(args []string) store.Predicate

// Filters is a named data-filter registry attached to a controller. Lookups
// try the local map first and then delegate to the parent registry, so
// subtype controllers inherit their supertype's filters.
type Filters struct {
	parent *Filters
	local  map[string]FilterFunc
	order  []string
}

func NewFilters(parent *Filters) *Filters {
	return &Filters{parent: parent, local: map[string]FilterFunc{}}
}

// Define registers a named filter. Registration happens once at controller
// set-up and the registry is read-only afterwards.
func (f *Filters) Define(name string, fn FilterFunc) {
	if _, dup := f.local[name]; !dup {
		f.order = append(f.order, name)
	}
	f.local[name] = fn
}

// Lookup resolves a filter name through the parent chain.
func (f *Filters) Lookup(name string) (FilterFunc, bool) {
	for r := f; r != nil; r = r.parent {
		if fn, ok := r.local[name]; ok {
			return fn, true
		}
	}
	return nil, false
}

// names walks the chain in registration order, local registrations first.
func (f *Filters) names() []string {
	var out []string
	seen := map[string]bool{}
	for r := f; r != nil; r = r.parent {
		for _, n := range r.order {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

// FromParams picks the filter selected by a where_<name> request parameter.
// When several where_* parameters are present only the first registered match
// is honored. The values are passed as a slice even for single-valued params.
func (f *Filters) FromParams(params url.Values) (store.Predicate, bool) {
	if f == nil {
		return store.Predicate{}, false
	}
	for _, name := range f.names() {
		vals, ok := params["where_"+name]
		if !ok {
			continue
		}
		fn, _ := f.Lookup(name)
		return fn(vals), true
	}
	return store.Predicate{}, false
}
