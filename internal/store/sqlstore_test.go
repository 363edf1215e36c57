package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"modelhub/internal/model"
)

func storeFixture(t *testing.T) (*SQLStore, sqlmock.Sqlmock, *model.Registry) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	reg := model.NewRegistry()
	reg.Register(&model.Descriptor{
		Name:        "User",
		FriendlyKey: "username",
		Fields:      []model.Field{{Name: "username", Kind: model.KindString}},
	})
	reg.Register(&model.Descriptor{
		Name:   "Project",
		Fields: []model.Field{{Name: "name", Kind: model.KindString}},
		Assocs: []model.Assoc{
			{Name: "owner", Target: "User"},
			{Name: "tasks", Target: "Task", ToMany: true, FK: "project_id"},
		},
	})
	reg.Register(&model.Descriptor{
		Name: "Task",
		Fields: []model.Field{
			{Name: "type", Kind: model.KindString},
			{Name: "title", Kind: model.KindString},
		},
		Assocs: []model.Assoc{{Name: "project", Target: "Project"}},
	})
	reg.Register(&model.Descriptor{Name: "Bug", ParentName: "Task"})

	return NewSQLStore(db, reg), mock, reg
}

func desc(t *testing.T, reg *model.Registry, name string) *model.Descriptor {
	t.Helper()
	d, ok := reg.Lookup(name)
	if !ok {
		t.Fatalf("descriptor %s not registered", name)
	}
	return d
}

func TestFind_ScansDeclaredColumns(t *testing.T) {
	st, mock, reg := storeFixture(t)
	projects := desc(t, reg, "Project")

	mock.ExpectQuery("SELECT id, name, owner_id FROM projects WHERE id = \\?").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "owner_id"}).AddRow(5, "Apollo", nil))

	rec, err := st.Find(context.Background(), projects, 5)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if rec.IsNew() || rec.ID() != 5 {
		t.Fatalf("record not marked persisted under id 5")
	}
	if rec.Get("name") != "Apollo" {
		t.Fatalf("name = %v", rec.Get("name"))
	}
	if rec.Get("owner_id") != nil {
		t.Fatalf("NULL column should stay unset, got %v", rec.Get("owner_id"))
	}
}

func TestFindByKey_RequiresFriendlyKey(t *testing.T) {
	st, _, reg := storeFixture(t)
	projects := desc(t, reg, "Project")

	if _, err := st.FindByKey(context.Background(), projects, "apollo"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("type without a friendly key should report no rows, got %v", err)
	}
}

func TestFindByKey_QueriesKeyColumn(t *testing.T) {
	st, mock, reg := storeFixture(t)
	users := desc(t, reg, "User")

	mock.ExpectQuery("SELECT id, username FROM users WHERE username = \\?").
		WithArgs("ada").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(2, "ada"))

	rec, err := st.FindByKey(context.Background(), users, "ada")
	if err != nil {
		t.Fatalf("find by key: %v", err)
	}
	if rec.ID() != 2 {
		t.Fatalf("id = %d, want 2", rec.ID())
	}
}

func TestSelect_RetypesFromDiscriminator(t *testing.T) {
	st, mock, reg := storeFixture(t)
	tasks := desc(t, reg, "Task")

	mock.ExpectQuery("SELECT id, type, title, project_id FROM tasks").
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "title", "project_id"}).
			AddRow(1, "Bug", "crash", nil).
			AddRow(2, nil, "plain", nil))

	recs, err := st.Select(context.Background(), tasks, Spec{})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records", len(recs))
	}
	if recs[0].Descriptor().Name != "Bug" {
		t.Fatalf("discriminator row not re-typed, got %s", recs[0].Descriptor().Name)
	}
	if recs[1].Descriptor().Name != "Task" {
		t.Fatalf("plain row should stay the base type, got %s", recs[1].Descriptor().Name)
	}
}

func TestSelect_SubtypeScopedByDiscriminator(t *testing.T) {
	st, mock, reg := storeFixture(t)
	bugs := desc(t, reg, "Bug")

	mock.ExpectQuery("SELECT id, type, title, project_id FROM tasks WHERE type IN \\(\\?\\)").
		WithArgs("Bug").
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "title", "project_id"}).
			AddRow(1, "Bug", "crash", nil))

	recs, err := st.Select(context.Background(), bugs, Spec{})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(recs) != 1 || recs[0].Descriptor().Name != "Bug" {
		t.Fatalf("unexpected result: %v", recs)
	}
}

func TestCount_SubtypeScopeComposesWithWhere(t *testing.T) {
	st, mock, reg := storeFixture(t)
	bugs := desc(t, reg, "Bug")

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM tasks WHERE \\(type IN \\(\\?\\)\\) AND \\(title = \\?\\)").
		WithArgs("Bug", "crash").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := st.Count(context.Background(), bugs, Predicate{Expr: "title = ?", Args: []any{"crash"}})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}
}

func TestInsert_MarksPersistedWithNewID(t *testing.T) {
	st, mock, reg := storeFixture(t)
	projects := desc(t, reg, "Project")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO projects \\(name, owner_id\\) VALUES \\(\\?, \\?\\)").
		WithArgs("Apollo", nil).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	rec := projects.New()
	rec.Set("name", "Apollo")

	tx, err := st.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := st.Insert(context.Background(), tx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if rec.IsNew() || rec.ID() != 9 {
		t.Fatalf("record not persisted under the new id, got %d", rec.ID())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdate_OnlyListedFields(t *testing.T) {
	st, mock, reg := storeFixture(t)
	projects := desc(t, reg, "Project")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE projects SET name = \\? WHERE id = \\?").
		WithArgs("Artemis", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := projects.New()
	rec.MarkPersisted(5)
	rec.Set("name", "Artemis")

	tx, _ := st.Begin(context.Background())
	if err := st.Update(context.Background(), tx, rec, []string{"name"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReplaceAssoc_DetachesThenClaims(t *testing.T) {
	st, mock, reg := storeFixture(t)
	projects := desc(t, reg, "Project")
	tasks := desc(t, reg, "Task")

	owner := projects.New()
	owner.MarkPersisted(5)
	member := tasks.New()
	member.MarkPersisted(8)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tasks SET project_id = NULL WHERE project_id = \\?").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE tasks SET project_id = \\? WHERE id = \\?").
		WithArgs(int64(5), int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assoc, _ := projects.Assoc("tasks")
	tx, _ := st.Begin(context.Background())
	if err := st.ReplaceAssoc(context.Background(), tx, owner, assoc, []*model.Record{member}); err != nil {
		t.Fatalf("replace assoc: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSelectAssoc_FiltersOnOwnerFK(t *testing.T) {
	st, mock, reg := storeFixture(t)
	projects := desc(t, reg, "Project")

	owner := projects.New()
	owner.MarkPersisted(5)

	mock.ExpectQuery("SELECT id, type, title, project_id FROM tasks WHERE tasks\\.project_id = \\?").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "title", "project_id"}).
			AddRow(1, nil, "first", 5))

	assoc, _ := projects.Assoc("tasks")
	recs, err := st.SelectAssoc(context.Background(), owner, assoc, Spec{})
	if err != nil {
		t.Fatalf("select assoc: %v", err)
	}
	if len(recs) != 1 || recs[0].Get("title") != "first" {
		t.Fatalf("unexpected members: %v", recs)
	}
}

func TestDelete_ByID(t *testing.T) {
	st, mock, reg := storeFixture(t)
	projects := desc(t, reg, "Project")

	rec := projects.New()
	rec.MarkPersisted(5)

	mock.ExpectExec("DELETE FROM projects WHERE id = \\?").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := st.Delete(context.Background(), rec); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
