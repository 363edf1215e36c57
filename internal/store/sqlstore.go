package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"modelhub/internal/model"
)

// SQLStore implements Store over database/sql (mysql driver).
type SQLStore struct {
	DB       *sql.DB
	Registry *model.Registry
}

func NewSQLStore(db *sql.DB, reg *model.Registry) *SQLStore {
	return &SQLStore{DB: db, Registry: reg}
}

// columns lists the scalar columns of a descriptor: inherited fields first,
// then to-one FK columns, in declaration order.
func columns(d *model.Descriptor) []model.Field {
	anc := d.Ancestors()
	var out []model.Field
	seen := map[string]bool{}
	for i := len(anc) - 1; i >= 0; i-- {
		for _, f := range anc[i].Fields {
			if !seen[f.Name] {
				seen[f.Name] = true
				out = append(out, f)
			}
		}
		for _, as := range anc[i].Assocs {
			if !as.ToMany && !seen[as.FK] {
				seen[as.FK] = true
				out = append(out, model.Field{Name: as.FK, Kind: model.KindInt})
			}
		}
	}
	return out
}

func selectClause(d *model.Descriptor) (string, []model.Field) {
	cols := columns(d)
	names := make([]string, 0, len(cols)+1)
	names = append(names, "id")
	for _, c := range cols {
		names = append(names, c.Name)
	}
	return "SELECT " + strings.Join(names, ", ") + " FROM " + d.Table, cols
}

func (s *SQLStore) scanRow(d *model.Descriptor, cols []model.Field, scan func(...any) error) (*model.Record, error) {
	var id int64
	dest := make([]any, 0, len(cols)+1)
	dest = append(dest, &id)
	holders := make([]any, len(cols))
	for i, c := range cols {
		switch c.Kind {
		case model.KindInt:
			holders[i] = new(sql.NullInt64)
		case model.KindFloat:
			holders[i] = new(sql.NullFloat64)
		case model.KindBool:
			holders[i] = new(sql.NullBool)
		case model.KindTime, model.KindDate:
			holders[i] = new(sql.NullTime)
		default:
			holders[i] = new(sql.NullString)
		}
		dest = append(dest, holders[i])
	}
	if err := scan(dest...); err != nil {
		return nil, err
	}

	rec := d.New()
	for i, c := range cols {
		switch h := holders[i].(type) {
		case *sql.NullInt64:
			if h.Valid {
				rec.Set(c.Name, h.Int64)
			}
		case *sql.NullFloat64:
			if h.Valid {
				rec.Set(c.Name, h.Float64)
			}
		case *sql.NullBool:
			if h.Valid {
				rec.Set(c.Name, h.Bool)
			}
		case *sql.NullTime:
			if h.Valid {
				rec.Set(c.Name, h.Time)
			}
		case *sql.NullString:
			if h.Valid {
				rec.Set(c.Name, h.String)
			}
		}
	}
	rec.MarkPersisted(id)

	// Single-table inheritance: re-type the record from the discriminator.
	if t, ok := rec.Get("type").(string); ok && t != "" && t != d.Name {
		if sub := d.Subtype(t); sub != d {
			retyped := sub.New()
			for _, c := range cols {
				if v := rec.Get(c.Name); v != nil {
					retyped.Set(c.Name, v)
				}
			}
			retyped.MarkPersisted(id)
			return retyped, nil
		}
	}
	return rec, nil
}

func (s *SQLStore) Find(ctx context.Context, d *model.Descriptor, id int64) (*model.Record, error) {
	sel, cols := selectClause(d)
	row := s.DB.QueryRowContext(ctx, sel+" WHERE id = ? LIMIT 1", id)
	return s.scanRow(d, cols, row.Scan)
}

func (s *SQLStore) FindByKey(ctx context.Context, d *model.Descriptor, key string) (*model.Record, error) {
	if d.FriendlyKey == "" {
		return nil, sql.ErrNoRows
	}
	sel, cols := selectClause(d)
	row := s.DB.QueryRowContext(ctx, sel+" WHERE "+d.FriendlyKey+" = ? LIMIT 1", key)
	return s.scanRow(d, cols, row.Scan)
}

// typeScope restricts subtype queries to their discriminator values within
// the shared table.
func typeScope(d *model.Descriptor) Predicate {
	if d.Parent() == nil {
		return Predicate{}
	}
	if _, ok := d.FieldKind("type"); !ok {
		return Predicate{}
	}
	names := d.SubtypeNames()
	marks := strings.Repeat("?, ", len(names))
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	return Predicate{Expr: "type IN (" + marks[:len(marks)-2] + ")", Args: args}
}

func buildTail(spec Spec) (string, []any) {
	var b strings.Builder
	var args []any
	if !spec.Where.IsZero() {
		b.WriteString(" WHERE ")
		b.WriteString(spec.Where.Expr)
		args = append(args, spec.Where.Args...)
	}
	if spec.Order != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(spec.Order)
	}
	if spec.Limit > 0 {
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, spec.Limit, spec.Offset)
	}
	return b.String(), args
}

func (s *SQLStore) Select(ctx context.Context, d *model.Descriptor, spec Spec) ([]*model.Record, error) {
	sel, cols := selectClause(d)
	spec.Where = And(typeScope(d), spec.Where)
	tail, args := buildTail(spec)
	rows, err := s.DB.QueryContext(ctx, sel+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Record{}
	for rows.Next() {
		rec, err := s.scanRow(d, cols, rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLStore) Count(ctx context.Context, d *model.Descriptor, where Predicate) (int, error) {
	q := "SELECT COUNT(*) FROM " + d.Table
	where = And(typeScope(d), where)
	var args []any
	if !where.IsZero() {
		q += " WHERE " + where.Expr
		args = where.Args
	}
	var n int
	err := s.DB.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

func (s *SQLStore) target(assoc model.Assoc) (*model.Descriptor, error) {
	d, ok := s.Registry.Lookup(assoc.Target)
	if !ok {
		return nil, fmt.Errorf("store: unknown association target %q", assoc.Target)
	}
	return d, nil
}

func (s *SQLStore) SelectAssoc(ctx context.Context, owner *model.Record, assoc model.Assoc, spec Spec) ([]*model.Record, error) {
	d, err := s.target(assoc)
	if err != nil {
		return nil, err
	}
	spec.Where = And(Predicate{Expr: d.Table + "." + assoc.FK + " = ?", Args: []any{owner.ID()}}, spec.Where)
	return s.Select(ctx, d, spec)
}

func (s *SQLStore) CountAssoc(ctx context.Context, owner *model.Record, assoc model.Assoc) (int, error) {
	d, err := s.target(assoc)
	if err != nil {
		return 0, err
	}
	return s.Count(ctx, d, Predicate{Expr: d.Table + "." + assoc.FK + " = ?", Args: []any{owner.ID()}})
}

func (s *SQLStore) Begin(ctx context.Context) (*sql.Tx, error) {
	return s.DB.BeginTx(ctx, nil)
}

func (s *SQLStore) Insert(ctx context.Context, tx *sql.Tx, rec *model.Record) error {
	cols := columns(rec.Descriptor())
	names := make([]string, 0, len(cols))
	marks := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
		marks = append(marks, "?")
		args = append(args, rec.Get(c.Name))
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		rec.Descriptor().Table, strings.Join(names, ", "), strings.Join(marks, ", "))
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.MarkPersisted(id)
	return nil
}

func (s *SQLStore) Update(ctx context.Context, tx *sql.Tx, rec *model.Record, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for _, f := range fields {
		sets = append(sets, f+" = ?")
		args = append(args, rec.Get(f))
	}
	args = append(args, rec.ID())
	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", rec.Descriptor().Table, strings.Join(sets, ", "))
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// ReplaceAssoc swaps the full member set of a to-many association: members no
// longer listed are detached, listed ones are claimed by the owner.
func (s *SQLStore) ReplaceAssoc(ctx context.Context, tx *sql.Tx, owner *model.Record, assoc model.Assoc, members []*model.Record) error {
	d, err := s.target(assoc)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET %s = NULL WHERE %s = ?", d.Table, assoc.FK, assoc.FK),
		owner.ID()); err != nil {
		return err
	}
	for _, m := range members {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE %s SET %s = ? WHERE id = ?", d.Table, assoc.FK),
			owner.ID(), m.ID()); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, rec *model.Record) error {
	_, err := s.DB.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", rec.Descriptor().Table), rec.ID())
	return err
}
