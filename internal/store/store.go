package store

import (
	"context"
	"database/sql"
	"errors"

	"modelhub/internal/model"
)

// ErrBadAssociationPath marks an association path that does not resolve
// through declared associations.
var ErrBadAssociationPath = errors.New("store: bad association path")

// Predicate is a filter fragment combined into WHERE clauses.
type Predicate struct {
	Expr string
	Args []any
}

func (p Predicate) IsZero() bool { return p.Expr == "" }

// And combines two predicates; zero predicates drop out.
func And(a, b Predicate) Predicate {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	default:
		return Predicate{
			Expr: "(" + a.Expr + ") AND (" + b.Expr + ")",
			Args: append(append([]any{}, a.Args...), b.Args...),
		}
	}
}

// Spec is a bounded, ordered, filtered retrieval. The persistence layer is
// assumed to support nothing beyond this.
type Spec struct {
	Limit  int
	Offset int
	Order  string // SQL order clause, "" for no explicit order
	Where  Predicate
}

// Store is the persistence collaborator boundary. All blocking I/O lives
// behind it.
type Store interface {
	Find(ctx context.Context, d *model.Descriptor, id int64) (*model.Record, error)
	FindByKey(ctx context.Context, d *model.Descriptor, key string) (*model.Record, error)
	Select(ctx context.Context, d *model.Descriptor, spec Spec) ([]*model.Record, error)
	Count(ctx context.Context, d *model.Descriptor, where Predicate) (int, error)
	SelectAssoc(ctx context.Context, owner *model.Record, assoc model.Assoc, spec Spec) ([]*model.Record, error)
	CountAssoc(ctx context.Context, owner *model.Record, assoc model.Assoc) (int, error)

	Begin(ctx context.Context) (*sql.Tx, error)
	Insert(ctx context.Context, tx *sql.Tx, rec *model.Record) error
	Update(ctx context.Context, tx *sql.Tx, rec *model.Record, fields []string) error
	ReplaceAssoc(ctx context.Context, tx *sql.Tx, owner *model.Record, assoc model.Assoc, members []*model.Record) error
	Delete(ctx context.Context, rec *model.Record) error
}
