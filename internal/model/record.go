package model

import (
	"fmt"
	"sort"
	"strconv"
)

// Errors accumulates field-level validation messages.
type Errors map[string][]string

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e Errors) Empty() bool { return len(e) == 0 }

// Full flattens the messages into "field msg" lines, field-sorted so output is
// stable for responses and tests.
func (e Errors) Full() []string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	var out []string
	for _, f := range fields {
		for _, m := range e[f] {
			out = append(out, f+" "+m)
		}
	}
	return out
}

// Record is a generic persisted entity: a typed bag of scalar values plus
// resolved association members.
type Record struct {
	desc      *Descriptor
	id        int64
	values    map[string]any
	toOne     map[string]*Record
	toMany    map[string][]*Record
	errs      Errors
	persisted bool
}

func (r *Record) Descriptor() *Descriptor { return r.desc }
func (r *Record) ID() int64               { return r.id }
func (r *Record) IsNew() bool             { return !r.persisted }
func (r *Record) Errors() Errors          { return r.errs }

// MarkPersisted stamps the record as stored under the given id.
func (r *Record) MarkPersisted(id int64) {
	r.id = id
	r.persisted = true
}

func (r *Record) Get(field string) any { return r.values[field] }

func (r *Record) Set(field string, v any) { r.values[field] = v }

// ToOne returns the resolved to-one member for an association, nil if unset.
func (r *Record) ToOne(name string) *Record { return r.toOne[name] }

// SetToOne assigns a to-one member and keeps the FK column in sync.
func (r *Record) SetToOne(name string, other *Record) {
	as, ok := r.desc.Assoc(name)
	if !ok || as.ToMany {
		return
	}
	r.toOne[name] = other
	if other != nil {
		r.values[as.FK] = other.ID()
	} else {
		r.values[as.FK] = nil
	}
}

// ToMany returns the replacement member set staged for a to-many association.
func (r *Record) ToMany(name string) []*Record { return r.toMany[name] }

// SetToMany stages a full ordered replacement of a to-many member set.
func (r *Record) SetToMany(name string, members []*Record) {
	r.toMany[name] = members
}

// Param is the identifier used in URLs: the friendly key when the type has one
// and the record carries a value for it, the numeric id otherwise.
func (r *Record) Param() string {
	if r.desc.FriendlyKey != "" {
		if s, ok := r.values[r.desc.FriendlyKey].(string); ok && s != "" {
			return s
		}
	}
	return strconv.FormatInt(r.id, 10)
}

// Display is a human-readable handle for the record, used by completions and
// the generic views: the first non-empty of name/title/friendly key, else "#id".
func (r *Record) Display() string {
	for _, f := range []string{"name", "title", r.desc.FriendlyKey} {
		if f == "" {
			continue
		}
		if s, ok := r.values[f].(string); ok && s != "" {
			return s
		}
	}
	return fmt.Sprintf("%s #%d", r.desc.Name, r.id)
}

// RunValidations clears previous messages and applies required-field checks
// plus the descriptor's validation hook, walking the ancestor chain so subtype
// records honor supertype rules.
func (r *Record) RunValidations() Errors {
	r.errs = Errors{}
	for _, d := range r.desc.Ancestors() {
		for _, f := range d.Required {
			if isBlank(r.values[f]) {
				r.errs.Add(f, "can't be blank")
			}
		}
		if d.Validate != nil {
			d.Validate(r)
		}
	}
	return r.errs
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	default:
		return false
	}
}
