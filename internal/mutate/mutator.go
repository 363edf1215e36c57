package mutate

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"strings"

	"modelhub/internal/access"
	"modelhub/internal/model"
	"modelhub/internal/store"
	"modelhub/internal/utils"
)

// Status is the tri-state outcome of a create/update attempt. Exactly one is
// produced per mutating action and it is never retried automatically.
type Status int

const (
	StatusValid Status = iota
	StatusInvalid
	StatusNotAllowed
)

// Changes is the parameter-driven attribute set applied to an entity.
type Changes map[string]any

// Mutator applies attribute changes under an atomic scope: either every
// assignment plus persistence commits, or nothing is observably applied.
type Mutator struct {
	Store    store.Store
	Gates    *access.Bindings
	Registry *model.Registry
}

type pendingSet struct {
	assoc   model.Assoc
	members []*model.Record
}

// Create builds and persists a new record of the base type. A non-empty type
// discriminator selects a declared subtype; anything outside the declared set
// falls back to the base type.
func (m *Mutator) Create(ctx context.Context, base *model.Descriptor, typeName string, user model.User, attrs Changes, setCreator bool) (*model.Record, Status, error) {
	desc := base
	if typeName != "" {
		desc = base.Subtype(typeName)
	}
	rec := desc.New()
	if _, ok := desc.FieldKind("type"); ok {
		rec.Set("type", desc.Name)
	}

	tx, err := m.Store.Begin(ctx)
	if err != nil {
		return rec, StatusInvalid, err
	}

	_, pending := m.applyChanges(ctx, rec, attrs)

	if setCreator && desc.CreatorField != "" && !user.IsGuest() {
		rec.SetToOne(desc.CreatorField, user.Record())
	}

	if !m.Gates.CanCreate(user, rec) {
		_ = tx.Rollback()
		return rec, StatusNotAllowed, nil
	}

	coerceErrs := rec.Errors()
	rec.RunValidations()
	mergeErrors(rec.Errors(), coerceErrs)
	if !rec.Errors().Empty() {
		_ = tx.Rollback()
		return rec, StatusInvalid, nil
	}

	if err := m.persist(ctx, tx, rec, nil, pending); err != nil {
		_ = tx.Rollback()
		return rec, StatusInvalid, err
	}
	return rec, StatusValid, tx.Commit()
}

// SaveNew persists a caller-built record under the same gating and atomic
// scope as Create, without parameter-driven assignment.
func (m *Mutator) SaveNew(ctx context.Context, rec *model.Record, user model.User) (Status, error) {
	tx, err := m.Store.Begin(ctx)
	if err != nil {
		return StatusInvalid, err
	}
	if !m.Gates.CanCreate(user, rec) {
		_ = tx.Rollback()
		return StatusNotAllowed, nil
	}
	if rec.RunValidations(); !rec.Errors().Empty() {
		_ = tx.Rollback()
		return StatusInvalid, nil
	}
	if err := m.Store.Insert(ctx, tx, rec); err != nil {
		_ = tx.Rollback()
		return StatusInvalid, err
	}
	return StatusValid, tx.Commit()
}

// Update mirrors Create but starts from a resolved record and touches only
// the provided fields.
func (m *Mutator) Update(ctx context.Context, rec *model.Record, user model.User, attrs Changes) (Status, error) {
	tx, err := m.Store.Begin(ctx)
	if err != nil {
		return StatusInvalid, err
	}

	changed, pending := m.applyChanges(ctx, rec, attrs)

	if !m.Gates.CanUpdate(user, rec) {
		_ = tx.Rollback()
		return StatusNotAllowed, nil
	}

	coerceErrs := rec.Errors()
	rec.RunValidations()
	mergeErrors(rec.Errors(), coerceErrs)
	if !rec.Errors().Empty() {
		_ = tx.Rollback()
		return StatusInvalid, nil
	}

	if err := m.persist(ctx, tx, rec, changed, pending); err != nil {
		_ = tx.Rollback()
		return StatusInvalid, err
	}
	return StatusValid, tx.Commit()
}

func (m *Mutator) persist(ctx context.Context, tx *sql.Tx, rec *model.Record, changed []string, pending []pendingSet) error {
	if rec.IsNew() {
		if err := m.Store.Insert(ctx, tx, rec); err != nil {
			return err
		}
	} else if err := m.Store.Update(ctx, tx, rec, changed); err != nil {
		return err
	}
	for _, p := range pending {
		if err := m.Store.ReplaceAssoc(ctx, tx, rec, p.assoc, p.members); err != nil {
			return err
		}
	}
	return nil
}

// applyChanges assigns each attribute in key order: to-one association values
// resolve to a related record, to-many values stage a full member-set
// replacement, scalars coerce to the declared field kind. Coercion and
// resolution failures land in the record's error bag, not in the values.
func (m *Mutator) applyChanges(ctx context.Context, rec *model.Record, attrs Changes) ([]string, []pendingSet) {
	desc := rec.Descriptor()
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var changed []string
	var pending []pendingSet
	for _, key := range keys {
		value := attrs[key]

		if assoc, ok := desc.Assoc(key); ok {
			if assoc.ToMany {
				members, ok := m.resolveMembers(ctx, assoc, value)
				if !ok {
					rec.Errors().Add(key, "is invalid")
					continue
				}
				rec.SetToMany(key, members)
				pending = append(pending, pendingSet{assoc: assoc, members: members})
				continue
			}
			other, ok := m.resolveAssociated(ctx, assoc, value)
			if !ok {
				rec.Errors().Add(key, "can't be found")
				continue
			}
			rec.SetToOne(key, other)
			changed = append(changed, assoc.FK)
			continue
		}

		kind, ok := desc.FieldKind(key)
		if !ok || key == "type" {
			// Unknown attributes never reach the record.
			continue
		}
		v, err := coerce(kind, value)
		if err != nil {
			rec.Errors().Add(key, "is invalid")
			continue
		}
		rec.Set(key, v)
		changed = append(changed, key)
	}
	return changed, pending
}

func (m *Mutator) resolveMembers(ctx context.Context, assoc model.Assoc, value any) ([]*model.Record, bool) {
	list, ok := value.([]any)
	if !ok {
		if value == nil {
			return nil, true
		}
		list = []any{value}
	}
	members := make([]*model.Record, 0, len(list))
	for _, v := range list {
		rec, ok := m.resolveAssociated(ctx, assoc, v)
		if !ok || rec == nil {
			return nil, false
		}
		members = append(members, rec)
	}
	return members, true
}

// resolveAssociated maps an association parameter value to a persisted record:
// an embedded "@Type_id" identity token, a numeric id, or the target type's
// friendly key.
func (m *Mutator) resolveAssociated(ctx context.Context, assoc model.Assoc, value any) (*model.Record, bool) {
	target, ok := m.Registry.Lookup(assoc.Target)
	if !ok {
		return nil, false
	}
	switch v := value.(type) {
	case nil:
		return nil, true
	case float64:
		return m.findOK(ctx, target, int64(v))
	case int:
		return m.findOK(ctx, target, int64(v))
	case int64:
		return m.findOK(ctx, target, v)
	case string:
		if v == "" {
			return nil, true
		}
		if strings.HasPrefix(v, "@") {
			name, id, ok := parseIdentityToken(v[1:])
			if !ok {
				return nil, false
			}
			d, ok := m.Registry.Lookup(name)
			if !ok {
				return nil, false
			}
			return m.findOK(ctx, d, id)
		}
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			return m.findOK(ctx, target, id)
		}
		if target.FriendlyKey != "" {
			rec, err := m.Store.FindByKey(ctx, target, v)
			if err != nil {
				return nil, false
			}
			return rec, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func (m *Mutator) findOK(ctx context.Context, d *model.Descriptor, id int64) (*model.Record, bool) {
	rec, err := m.Store.Find(ctx, d, id)
	if err != nil {
		return nil, false
	}
	return rec, true
}

// parseIdentityToken splits "Type_id" off an embedded identity token.
func parseIdentityToken(s string) (string, int64, bool) {
	i := strings.LastIndex(s, "_")
	if i <= 0 {
		return "", 0, false
	}
	id, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return model.Camelize(s[:i]), id, true
}

func coerce(kind model.Kind, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch kind {
	case model.KindInt:
		switch v := value.(type) {
		case float64:
			return int64(v), nil
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case string:
			if v == "" {
				return nil, nil
			}
			return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		}
	case model.KindFloat:
		switch v := value.(type) {
		case float64:
			return v, nil
		case string:
			if v == "" {
				return nil, nil
			}
			return strconv.ParseFloat(strings.TrimSpace(v), 64)
		}
	case model.KindBool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "1", "on", "yes":
				return true, nil
			case "false", "0", "off", "no", "":
				return false, nil
			}
			return nil, strconv.ErrSyntax
		}
	case model.KindDate:
		if v, ok := value.(string); ok {
			if v == "" {
				return nil, nil
			}
			return utils.ParseDate(v)
		}
	case model.KindTime:
		if v, ok := value.(string); ok {
			if v == "" {
				return nil, nil
			}
			return utils.ParseDateTime(v)
		}
	case model.KindString, model.KindText:
		if v, ok := value.(string); ok {
			return strings.TrimSpace(v), nil
		}
	}
	return nil, strconv.ErrSyntax
}

func mergeErrors(dst, src model.Errors) {
	for f, msgs := range src {
		for _, m := range msgs {
			dst.Add(f, m)
		}
	}
}
