package model

import "testing"

func TestUnderscore(t *testing.T) {
	cases := map[string]string{
		"User":       "user",
		"TaskReport": "task_report",
		"Bug":        "bug",
	}
	for in, want := range cases {
		if got := Underscore(in); got != want {
			t.Fatalf("Underscore(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCamelize_InvertsUnderscore(t *testing.T) {
	for _, name := range []string{"User", "TaskReport", "ProjectMembership"} {
		if got := Camelize(Underscore(name)); got != name {
			t.Fatalf("Camelize(Underscore(%q)) = %q", name, got)
		}
	}
}

func TestPluralize(t *testing.T) {
	cases := map[string]string{
		"task":    "tasks",
		"company": "companies",
		"box":     "boxes",
		"branch":  "branches",
		"day":     "days",
	}
	for in, want := range cases {
		if got := Pluralize(in); got != want {
			t.Fatalf("Pluralize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSingularize_InvertsPluralize(t *testing.T) {
	for _, w := range []string{"task", "company", "box", "branch", "day"} {
		if got := Singularize(Pluralize(w)); got != w {
			t.Fatalf("Singularize(Pluralize(%q)) = %q", w, got)
		}
	}
}
