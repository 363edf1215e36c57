package query

import (
	"regexp"

	"modelhub/internal/model"
)

// Sort is a parsed sort specifier.
type Sort struct {
	Raw       string // field or related.field as given
	Qualifier string // related segment, "" for plain fields
	Column    string
	Direction string // "asc" or "desc"
}

var sortRx = regexp.MustCompile(`^(-)?([a-z_]+(?:\.[a-z_]+)?)$`)

// ParseSort parses "[-]field" / "[-]related.field". A malformed specifier is
// reported as absent.
func ParseSort(raw string) (Sort, bool) {
	m := sortRx.FindStringSubmatch(raw)
	if m == nil {
		return Sort{}, false
	}
	s := Sort{Raw: m[2], Direction: "asc"}
	if m[1] == "-" {
		s.Direction = "desc"
	}
	if dot := regexp.MustCompile(`^(.*)\.(.*)$`).FindStringSubmatch(m[2]); dot != nil {
		s.Qualifier = dot[1]
		s.Column = dot[2]
	} else {
		s.Column = m[2]
	}
	return s, true
}

// OrderClause renders the SQL order for a sort against the listed type. A
// qualified field names a related type whose table qualifies the column; an
// unknown related type makes the whole specifier count as absent.
func (s Sort) OrderClause(d *model.Descriptor, reg *model.Registry) (string, bool) {
	table := d.Table
	if s.Qualifier != "" {
		rel, ok := reg.Lookup(model.Camelize(s.Qualifier))
		if !ok {
			return "", false
		}
		table = rel.Table
	}
	return table + "." + s.Column + " " + s.Direction, true
}
