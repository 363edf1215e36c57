package access

import "modelhub/internal/model"

// Gate holds the capability predicates for one entity type. Predicates are
// pure and synchronous; a nil predicate denies.
type Gate struct {
	View   func(u model.User, subject *model.Record, collection string) bool
	Create func(u model.User, subject *model.Record) bool
	Update func(u model.User, subject *model.Record) bool
	Delete func(u model.User, subject *model.Record) bool
	Call   func(u model.User, subject *model.Record, method string) bool
}

// AllowAll is a gate granting every capability, for types with no policy.
func AllowAll() *Gate {
	return &Gate{
		View:   func(model.User, *model.Record, string) bool { return true },
		Create: func(model.User, *model.Record) bool { return true },
		Update: func(model.User, *model.Record) bool { return true },
		Delete: func(model.User, *model.Record) bool { return true },
		Call:   func(model.User, *model.Record, string) bool { return true },
	}
}

// Bindings maps descriptor names to gates. Established once at registration
// time; read-only during request handling. Lookups walk the subject type's
// ancestor chain so subtypes inherit their supertype's gate.
type Bindings struct {
	gates map[string]*Gate
}

func NewBindings() *Bindings {
	return &Bindings{gates: map[string]*Gate{}}
}

func (b *Bindings) Bind(typeName string, g *Gate) {
	b.gates[typeName] = g
}

// For resolves the gate for a type, nil when no ancestor has one bound.
func (b *Bindings) For(d *model.Descriptor) *Gate {
	for _, anc := range d.Ancestors() {
		if g, ok := b.gates[anc.Name]; ok {
			return g
		}
	}
	return nil
}

// CanView gates read access, optionally at (subject, collection) granularity.
func (b *Bindings) CanView(u model.User, subject *model.Record, collection string) bool {
	g := b.For(subject.Descriptor())
	return g != nil && g.View != nil && g.View(u, subject, collection)
}

func (b *Bindings) CanCreate(u model.User, subject *model.Record) bool {
	g := b.For(subject.Descriptor())
	return g != nil && g.Create != nil && g.Create(u, subject)
}

func (b *Bindings) CanUpdate(u model.User, subject *model.Record) bool {
	g := b.For(subject.Descriptor())
	return g != nil && g.Update != nil && g.Update(u, subject)
}

func (b *Bindings) CanDelete(u model.User, subject *model.Record) bool {
	g := b.For(subject.Descriptor())
	return g != nil && g.Delete != nil && g.Delete(u, subject)
}

func (b *Bindings) CanCall(u model.User, subject *model.Record, method string) bool {
	g := b.For(subject.Descriptor())
	return g != nil && g.Call != nil && g.Call(u, subject, method)
}
