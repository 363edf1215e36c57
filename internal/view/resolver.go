package view

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"modelhub/internal/model"
)

// GenericPageKinds are the action kinds with a built-in composite fallback
// view when no type-specific template exists.
var GenericPageKinds = map[string]bool{
	"index":             true,
	"show":              true,
	"new":               true,
	"edit":              true,
	"show_collection":   true,
	"new_in_collection": true,
	"login":             true,
	"signup":            true,
}

// Data is the bag handed to templates.
type Data map[string]any

// Resolver maps an action kind plus an entity type to a template on disk,
// walking the type's ancestor chain and falling back to the generic pages.
type Resolver struct {
	Root  string // views directory
	Funcs template.FuncMap
}

func NewResolver(root string) *Resolver {
	return &Resolver{Root: root}
}

// templatePath reports dir/name when a file matching the naming pattern
// exists in dir. Partials use the _name prefix convention.
func (r *Resolver) templatePath(dir, name string, partial bool) (string, bool) {
	prefix := name + "."
	if partial {
		prefix = "_" + name + "."
	}
	entries, err := os.ReadDir(filepath.Join(r.Root, dir))
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			return filepath.Join(dir, e.Name()), true
		}
	}
	return "", false
}

// Find resolves a template for the action kind against the type, trying each
// ancestor's view group in turn. It reports none when the chain is exhausted.
func (r *Resolver) Find(d *model.Descriptor, kind string, partial bool) (string, bool) {
	for _, anc := range d.Ancestors() {
		if path, ok := r.templatePath(anc.GroupName(), kind, partial); ok {
			return path, true
		}
	}
	return "", false
}

// FindPartial is Find for partial-name lookups.
func (r *Resolver) FindPartial(d *model.Descriptor, name string) (string, bool) {
	return r.Find(d, name, true)
}

// FindGeneric resolves the composite fallback view for a generic page kind.
func (r *Resolver) FindGeneric(kind string) (string, bool) {
	if !GenericPageKinds[kind] {
		return "", false
	}
	return r.templatePath("generic", kind, false)
}

// Render executes the resolved template against the data bag. Failures from
// the template (including sign-in requirements raised by nested renders)
// propagate to the caller unchanged.
func (r *Resolver) Render(w io.Writer, path string, data Data) error {
	name := filepath.Base(path)
	t := template.New(name)
	if r.Funcs != nil {
		t = t.Funcs(r.Funcs)
	}
	t, err := t.ParseFiles(filepath.Join(r.Root, path))
	if err != nil {
		return fmt.Errorf("view: parse %s: %w", path, err)
	}
	return t.Execute(w, data)
}
