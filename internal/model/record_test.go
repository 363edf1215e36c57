package model

import (
	"reflect"
	"testing"
)

func TestRunValidations_RequiredFieldsAcrossChain(t *testing.T) {
	_, _, bug := testRegistry(t)
	rec := bug.New()

	errs := rec.RunValidations()
	if errs.Empty() {
		t.Fatalf("blank required field should produce an error")
	}
	want := []string{"title can't be blank"}
	if got := errs.Full(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Full() = %v, want %v", got, want)
	}

	rec.Set("title", "crash on save")
	if errs := rec.RunValidations(); !errs.Empty() {
		t.Fatalf("valid record reported errors: %v", errs.Full())
	}
}

func TestRunValidations_DescriptorHookRuns(t *testing.T) {
	reg := NewRegistry()
	d := reg.Register(&Descriptor{
		Name:   "Widget",
		Fields: []Field{{Name: "count", Kind: KindInt}},
		Validate: func(r *Record) {
			if n, ok := r.Get("count").(int64); ok && n < 0 {
				r.Errors().Add("count", "must be positive")
			}
		},
	})
	rec := d.New()
	rec.Set("count", int64(-1))
	if errs := rec.RunValidations(); errs.Empty() {
		t.Fatalf("validation hook did not run")
	}
}

func TestParam_FriendlyKeyBeforeID(t *testing.T) {
	reg := NewRegistry()
	d := reg.Register(&Descriptor{
		Name:        "User",
		FriendlyKey: "username",
		Fields:      []Field{{Name: "username", Kind: KindString}},
	})
	rec := d.New()
	rec.MarkPersisted(7)
	if got := rec.Param(); got != "7" {
		t.Fatalf("blank friendly key should fall back to id, got %q", got)
	}
	rec.Set("username", "ada")
	if got := rec.Param(); got != "ada" {
		t.Fatalf("Param() = %q, want ada", got)
	}
}

func TestSetToOne_SyncsForeignKey(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Descriptor{Name: "User"})
	d := reg.Register(&Descriptor{
		Name:   "Project",
		Assocs: []Assoc{{Name: "owner", Target: "User"}},
	})
	owner := reg.byName["User"].New()
	owner.MarkPersisted(42)

	rec := d.New()
	rec.SetToOne("owner", owner)
	if got := rec.Get("owner_id"); got != int64(42) {
		t.Fatalf("owner_id = %v, want 42", got)
	}
	rec.SetToOne("owner", nil)
	if got := rec.Get("owner_id"); got != nil {
		t.Fatalf("clearing the member should clear the FK, got %v", got)
	}
}

func TestDisplay_PrefersNameThenFallsBack(t *testing.T) {
	reg := NewRegistry()
	d := reg.Register(&Descriptor{
		Name:   "Project",
		Fields: []Field{{Name: "name", Kind: KindString}},
	})
	rec := d.New()
	rec.MarkPersisted(3)
	if got := rec.Display(); got != "Project #3" {
		t.Fatalf("Display() = %q, want Project #3", got)
	}
	rec.Set("name", "Apollo")
	if got := rec.Display(); got != "Apollo" {
		t.Fatalf("Display() = %q, want Apollo", got)
	}
}
