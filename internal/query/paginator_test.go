package query

import "testing"

func TestNewPaginator_Defaults(t *testing.T) {
	p := NewPaginator(100, 0, 0)
	if p.PageSize != DefaultPageSize {
		t.Fatalf("page size = %d, want %d", p.PageSize, DefaultPageSize)
	}
	if p.CurrentPage != 1 {
		t.Fatalf("current page = %d, want 1", p.CurrentPage)
	}
}

func TestPaginator_Offset(t *testing.T) {
	p := NewPaginator(100, 20, 3)
	if got := p.Offset(); got != 40 {
		t.Fatalf("offset = %d, want 40", got)
	}
}

func TestPaginator_PageCount(t *testing.T) {
	cases := []struct {
		total, size, want int
	}{
		{0, 20, 1},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{45, 20, 3},
	}
	for _, c := range cases {
		p := NewPaginator(c.total, c.size, 1)
		if got := p.PageCount(); got != c.want {
			t.Fatalf("PageCount(total=%d) = %d, want %d", c.total, got, c.want)
		}
	}
}

func TestPaginator_HasNextHasPrev(t *testing.T) {
	p := NewPaginator(45, 20, 2)
	if !p.HasNext() || !p.HasPrev() {
		t.Fatalf("middle page should have both neighbors")
	}
	first := NewPaginator(45, 20, 1)
	if first.HasPrev() {
		t.Fatalf("first page has no previous")
	}
	last := NewPaginator(45, 20, 3)
	if last.HasNext() {
		t.Fatalf("last page has no next")
	}
}
