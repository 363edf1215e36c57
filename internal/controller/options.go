package controller

import (
	"github.com/gin-gonic/gin"

	"modelhub/internal/model"
	"modelhub/internal/store"
)

// Recognized option keys. Callers use these to override any step of an action.
const (
	OptThis                     = "this"          // pre-resolved subject, skips instance resolution
	OptCollection               = "collection"    // pre-resolved result set, skips query building
	OptAssociation              = "association"   // pre-resolved association target
	OptOwner                    = "owner"         // pre-resolved owner for collection actions
	OptPage                     = "page"
	OptPageSize                 = "page_size"
	OptOrder                    = "order"        // explicit order clause
	OptTotal                    = "total_number" // explicit total count
	OptWhere                    = "where"        // caller-supplied predicate, AND-ed with data filters
	OptSetCreator               = "set_creator"  // false suppresses creator auto-assignment
	OptMessage                  = "message"      // custom permission-denied text
	OptHTMLResponse             = "html_response"
	OptJSResponse               = "js_response"
	OptInvalidHTMLResponse      = "invalid_html_response"
	OptInvalidJSResponse        = "invalid_js_response"
	OptPermissionDeniedResponse = "permission_denied_response"
	OptNotFoundResponse         = "not_found_response"
)

// AssocTarget is the value shape of OptAssociation: a resolved owner plus the
// association reached from it.
type AssocTarget struct {
	Owner *model.Record
	Assoc model.Assoc
}

type optionEntry struct {
	val  any
	fn   func() any
	done bool
}

// Options is a lazily-evaluated option bag. A key maps to either a literal
// value or a deferred computation evaluated on first read and memoized.
// Never shared across requests.
type Options struct {
	m map[string]*optionEntry
}

func NewOptions() *Options {
	return &Options{m: map[string]*optionEntry{}}
}

func (o *Options) Set(key string, v any) *Options {
	o.m[key] = &optionEntry{val: v, done: true}
	return o
}

// SetFunc defers the value until the key is first read.
func (o *Options) SetFunc(key string, fn func() any) *Options {
	o.m[key] = &optionEntry{fn: fn}
	return o
}

func (o *Options) Has(key string) bool {
	_, ok := o.m[key]
	return ok
}

// Get reads a key, forcing a deferred value exactly once.
func (o *Options) Get(key string) any {
	e, ok := o.m[key]
	if !ok {
		return nil
	}
	if !e.done {
		e.val = e.fn()
		e.done = true
	}
	return e.val
}

func (o *Options) Record(key string) *model.Record {
	if r, ok := o.Get(key).(*model.Record); ok {
		return r
	}
	return nil
}

func (o *Options) Records(key string) []*model.Record {
	if r, ok := o.Get(key).([]*model.Record); ok {
		return r
	}
	return nil
}

func (o *Options) Int(key string) (int, bool) {
	switch v := o.Get(key).(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

func (o *Options) String(key, fallback string) string {
	if s, ok := o.Get(key).(string); ok && s != "" {
		return s
	}
	return fallback
}

func (o *Options) Bool(key string, fallback bool) bool {
	if b, ok := o.Get(key).(bool); ok {
		return b
	}
	return fallback
}

func (o *Options) Predicate(key string) store.Predicate {
	if p, ok := o.Get(key).(store.Predicate); ok {
		return p
	}
	return store.Predicate{}
}

// Response reads a caller-supplied response override for an outcome/channel key.
func (o *Options) Response(key string) func(*gin.Context) {
	if fn, ok := o.Get(key).(func(*gin.Context)); ok {
		return fn
	}
	return nil
}
