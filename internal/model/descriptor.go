package model

import (
	"fmt"
	"sort"
)

// Kind enumerates the scalar field kinds the mutator knows how to coerce.
type Kind int

const (
	KindString Kind = iota
	KindText
	KindInt
	KindFloat
	KindBool
	KindTime
	KindDate
)

// Field declares one scalar column. Declaration order is the column order used by
// the store, so it must stay stable per descriptor.
type Field struct {
	Name string
	Kind Kind
}

// Assoc declares a typed relationship to another registered descriptor.
type Assoc struct {
	Name   string
	Target string // descriptor name
	ToMany bool
	FK     string // to-one: column on this table; to-many: column on the target table
}

// Descriptor identifies a domain type: its table, fields, associations and lookup
// strategy. Descriptors are immutable after Registry.Register links them.
type Descriptor struct {
	Name         string
	Table        string
	Fields       []Field
	Assocs       []Assoc
	ParentName   string // supertype descriptor, "" for top-level types
	DefaultOrder string // SQL order applied to unsorted root listings
	FriendlyKey  string // column holding the human-readable secondary key, "" if none
	CreatorField string // to-one assoc auto-assigned to the acting user, "" if none
	LoginType    bool   // type can act as an authenticated user
	Required     []string
	Validate     func(*Record) // extra validation, appends to the record's errors

	registry  *Registry
	parent    *Descriptor
	ancestors []*Descriptor
	subtypes  map[string]*Descriptor
	fieldKind map[string]Kind
	assocs    map[string]Assoc
}

// GroupName is the conventional view-group / URL segment for the type
// ("TaskReport" -> "task_reports").
func (d *Descriptor) GroupName() string {
	return Pluralize(Underscore(d.Name))
}

// Parent returns the supertype descriptor, nil for top-level types.
func (d *Descriptor) Parent() *Descriptor { return d.parent }

// Ancestors is the precomputed chain self..topmost, excluding the persistence root.
func (d *Descriptor) Ancestors() []*Descriptor { return d.ancestors }

// Subtype resolves a type discriminator against the declared subtype set.
// Unknown discriminators fall back to the base descriptor.
func (d *Descriptor) Subtype(name string) *Descriptor {
	if s, ok := d.subtypes[name]; ok {
		return s
	}
	return d
}

// SubtypeNames lists this type plus its declared subtypes, sorted, for
// discriminator scoping.
func (d *Descriptor) SubtypeNames() []string {
	names := []string{d.Name}
	for n := range d.subtypes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FieldKind reports the declared kind of a scalar field, walking the ancestor
// chain so subtypes see inherited columns.
func (d *Descriptor) FieldKind(name string) (Kind, bool) {
	for _, a := range d.ancestors {
		if k, ok := a.fieldKind[name]; ok {
			return k, true
		}
	}
	return 0, false
}

// Assoc looks up a declared association by name, walking the ancestor chain.
func (d *Descriptor) Assoc(name string) (Assoc, bool) {
	for _, a := range d.ancestors {
		if as, ok := a.assocs[name]; ok {
			return as, true
		}
	}
	return Assoc{}, false
}

// Collections lists the to-many association names published by this type,
// supertype collections first.
func (d *Descriptor) Collections() []string {
	var out []string
	seen := map[string]bool{}
	for i := len(d.ancestors) - 1; i >= 0; i-- {
		for _, as := range d.ancestors[i].Assocs {
			if as.ToMany && !seen[as.Name] {
				seen[as.Name] = true
				out = append(out, as.Name)
			}
		}
	}
	return out
}

// Registry resolves descriptor names. It is populated once at startup and
// read-only during request handling.
type Registry struct {
	byName map[string]*Descriptor
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Descriptor{}}
}

// Register links the descriptor into the registry, wiring the parent pointer,
// the subtype set and the precomputed ancestor chain. Parents must be
// registered before their subtypes.
func (r *Registry) Register(d *Descriptor) *Descriptor {
	d.registry = r
	d.subtypes = map[string]*Descriptor{}
	d.fieldKind = make(map[string]Kind, len(d.Fields))
	for _, f := range d.Fields {
		d.fieldKind[f.Name] = f.Kind
	}
	d.assocs = make(map[string]Assoc, len(d.Assocs))
	for i, as := range d.Assocs {
		if as.FK == "" {
			if as.ToMany {
				as.FK = Underscore(d.Name) + "_id"
			} else {
				as.FK = as.Name + "_id"
			}
			d.Assocs[i] = as
		}
		d.assocs[as.Name] = as
	}
	if d.ParentName != "" {
		p, ok := r.byName[d.ParentName]
		if !ok {
			panic(fmt.Sprintf("model: parent %q of %q is not registered", d.ParentName, d.Name))
		}
		d.parent = p
		p.subtypes[d.Name] = d
		// Subtypes share the base type's table (single-table inheritance).
		if d.Table == "" {
			d.Table = p.Table
		}
	}
	if d.Table == "" {
		d.Table = d.GroupName()
	}
	d.ancestors = []*Descriptor{d}
	for p := d.parent; p != nil; p = p.parent {
		d.ancestors = append(d.ancestors, p)
	}
	r.byName[d.Name] = d
	return d
}

// Lookup finds a descriptor by type name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// New builds an unsaved record of this type.
func (d *Descriptor) New() *Record {
	return &Record{
		desc:   d,
		values: map[string]any{},
		toOne:  map[string]*Record{},
		toMany: map[string][]*Record{},
		errs:   Errors{},
	}
}
