package model

import (
	"reflect"
	"testing"
)

func testRegistry(t *testing.T) (*Registry, *Descriptor, *Descriptor) {
	t.Helper()
	reg := NewRegistry()
	task := reg.Register(&Descriptor{
		Name: "Task",
		Fields: []Field{
			{Name: "type", Kind: KindString},
			{Name: "title", Kind: KindString},
			{Name: "due_on", Kind: KindDate},
		},
		Assocs: []Assoc{
			{Name: "project", Target: "Project"},
			{Name: "comments", Target: "Comment", ToMany: true},
		},
		Required: []string{"title"},
	})
	bug := reg.Register(&Descriptor{Name: "Bug", ParentName: "Task"})
	return reg, task, bug
}

func TestRegister_SubtypeSharesBaseTable(t *testing.T) {
	_, task, bug := testRegistry(t)
	if task.Table != "tasks" {
		t.Fatalf("base table = %q, want tasks", task.Table)
	}
	if bug.Table != "tasks" {
		t.Fatalf("subtype table = %q, want the base table", bug.Table)
	}
}

func TestRegister_AssocFKDefaults(t *testing.T) {
	_, task, _ := testRegistry(t)
	one, _ := task.Assoc("project")
	if one.FK != "project_id" {
		t.Fatalf("to-one FK = %q, want project_id", one.FK)
	}
	many, _ := task.Assoc("comments")
	if many.FK != "task_id" {
		t.Fatalf("to-many FK = %q, want task_id", many.FK)
	}
}

func TestAncestors_SubtypeChain(t *testing.T) {
	_, task, bug := testRegistry(t)
	anc := bug.Ancestors()
	if len(anc) != 2 || anc[0] != bug || anc[1] != task {
		t.Fatalf("ancestor chain wrong: %v", anc)
	}
}

func TestFieldKind_InheritedThroughChain(t *testing.T) {
	_, _, bug := testRegistry(t)
	k, ok := bug.FieldKind("due_on")
	if !ok || k != KindDate {
		t.Fatalf("subtype should see inherited field, got %v %v", k, ok)
	}
	if _, ok := bug.FieldKind("nope"); ok {
		t.Fatalf("unknown field reported as present")
	}
}

func TestSubtype_UnknownFallsBackToBase(t *testing.T) {
	_, task, bug := testRegistry(t)
	if got := task.Subtype("Bug"); got != bug {
		t.Fatalf("known discriminator did not resolve to subtype")
	}
	if got := task.Subtype("Gadget"); got != task {
		t.Fatalf("unknown discriminator should fall back to base")
	}
}

func TestSubtypeNames_SortedWithSelf(t *testing.T) {
	reg := NewRegistry()
	task := reg.Register(&Descriptor{Name: "Task", Fields: []Field{{Name: "type", Kind: KindString}}})
	reg.Register(&Descriptor{Name: "Chore", ParentName: "Task"})
	reg.Register(&Descriptor{Name: "Bug", ParentName: "Task"})

	want := []string{"Bug", "Chore", "Task"}
	if got := task.SubtypeNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("SubtypeNames = %v, want %v", got, want)
	}
}

func TestRegister_PanicsOnUnknownParent(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unregistered parent")
		}
	}()
	NewRegistry().Register(&Descriptor{Name: "Bug", ParentName: "Task"})
}
