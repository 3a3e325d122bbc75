package pagination

import "testing"

func TestTotalPagesCeilingDivision(t *testing.T) {
	cases := []struct {
		totalCount int64
		pageSize   int
		want       int
	}{
		{0, 2, 1},
		{1, 2, 1},
		{2, 2, 1},
		{3, 2, 2},
		{5, 2, 3},
		{6, 2, 3},
		{7, 2, 4},
		{10, 10, 1},
		{11, 10, 2},
		{100, 1, 100},
	}
	for _, tc := range cases {
		if got := TotalPages(tc.totalCount, tc.pageSize); got != tc.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tc.totalCount, tc.pageSize, got, tc.want)
		}
	}
}

func TestTotalPagesNeverZero(t *testing.T) {
	if got := TotalPages(0, 2); got != 1 {
		t.Fatalf("empty collection must still have one page, got %d", got)
	}
	if got := TotalPages(5, 0); got != 1 {
		t.Fatalf("degenerate page size must yield one page, got %d", got)
	}
}

func TestHasPreviousAndNext(t *testing.T) {
	if HasPrevious(1) {
		t.Fatal("page 1 must not have a previous page")
	}
	if !HasPrevious(2) {
		t.Fatal("page 2 must have a previous page")
	}
	if HasNext(1, 1) {
		t.Fatal("single page must not have a next page")
	}
	if !HasNext(1, 2) {
		t.Fatal("page 1 of 2 must have a next page")
	}
	if HasNext(3, 3) {
		t.Fatal("last page must not have a next page")
	}
}

func TestNormalize(t *testing.T) {
	for _, page := range []int{-5, 0, 1} {
		want := 1
		if page > 1 {
			want = page
		}
		if got := Normalize(page); got != want {
			t.Errorf("Normalize(%d) = %d, want %d", page, got, want)
		}
	}
	if got := Normalize(7); got != 7 {
		t.Fatalf("Normalize(7) = %d, want 7", got)
	}
}

func TestScenarioFiveItemsPageSizeTwo(t *testing.T) {
	meta := NewMeta(3, 2, 5)
	if meta.TotalPages != 3 {
		t.Fatalf("expected 3 total pages, got %d", meta.TotalPages)
	}
	if HasNext(meta.CurrentPage, meta.TotalPages) {
		t.Fatal("page 3 of 3 must not have next")
	}
	if !HasPrevious(meta.CurrentPage) {
		t.Fatal("page 3 must have previous")
	}
}

func TestEmptyCollectionBoundary(t *testing.T) {
	meta := NewMeta(1, 2, 0)
	if meta.TotalPages != 1 {
		t.Fatalf("expected 1 page for empty collection, got %d", meta.TotalPages)
	}
	if HasPrevious(meta.CurrentPage) || HasNext(meta.CurrentPage, meta.TotalPages) {
		t.Fatal("empty collection must hide both controls")
	}
}
