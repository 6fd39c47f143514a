package products

import "testing"

func TestLastSlugsOrderExpr(t *testing.T) {
	got := lastSlugsOrderExpr([]string{"accessories", "spare-parts"})
	want := "CASE categories.slug WHEN 'accessories' THEN 1 WHEN 'spare-parts' THEN 2 ELSE 0 END ASC"
	if got != want {
		t.Fatalf("unexpected expr %q", got)
	}
}

func TestLastSlugsOrderExprSkipsUnsafeSlugs(t *testing.T) {
	got := lastSlugsOrderExpr([]string{"x'; DROP TABLE products;--", "accessories"})
	want := "CASE categories.slug WHEN 'accessories' THEN 1 ELSE 0 END ASC"
	if got != want {
		t.Fatalf("unexpected expr %q", got)
	}

	if expr := lastSlugsOrderExpr([]string{"'quoted'", "UPPER"}); expr != "" {
		t.Fatalf("expected empty expr, got %q", expr)
	}
}
