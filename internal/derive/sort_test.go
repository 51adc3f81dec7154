package derive

import (
	"testing"

	"refero-cli/internal/model"
)

func TestSortItems_TitleAscThenDescReverses(t *testing.T) {
	items := []model.Item{
		item("A", "zebra"),
		item("B", "Alpha"),
		item("C", "mango"),
	}
	asc := SortItems(items, model.SortByTitle, model.SortAsc)
	desc := SortItems(items, model.SortByTitle, model.SortDesc)

	wantAsc := []string{"B", "C", "A"}
	for i, key := range wantAsc {
		if asc[i].Key != key {
			t.Fatalf("asc[%d] = %s, want %s", i, asc[i].Key, key)
		}
	}
	for i := range asc {
		if desc[i].Key != asc[len(asc)-1-i].Key {
			t.Fatalf("desc is not the reverse of asc at %d", i)
		}
	}
}

func TestSortItems_Stable(t *testing.T) {
	items := []model.Item{
		item("A", "Same"),
		item("B", "Same"),
		item("C", "Same"),
	}
	got := SortItems(items, model.SortByTitle, model.SortAsc)
	for i, key := range []string{"A", "B", "C"} {
		if got[i].Key != key {
			t.Fatalf("equal-key order not preserved: got[%d] = %s", i, got[i].Key)
		}
	}
	got = SortItems(items, model.SortByTitle, model.SortDesc)
	for i, key := range []string{"A", "B", "C"} {
		if got[i].Key != key {
			t.Fatalf("desc equal-key order not preserved: got[%d] = %s", i, got[i].Key)
		}
	}
}

func TestSortItems_AuthorUsesFirstCreatorLastName(t *testing.T) {
	items := []model.Item{
		item("A", "One", author("Franco", "Moretti")),
		item("B", "Two"), // no creator sorts as empty string, first
		item("C", "Three", author("Wayne", "Booth")),
	}
	got := SortItems(items, model.SortByAuthor, model.SortAsc)
	for i, key := range []string{"B", "C", "A"} {
		if got[i].Key != key {
			t.Fatalf("got[%d] = %s, want %s", i, got[i].Key, key)
		}
	}
}

func TestSortItems_ModifiedFallsBackToAddedThenEpoch(t *testing.T) {
	a := item("A", "A")
	a.Data.DateModified = "2024-06-01T10:00:00Z"
	b := item("B", "B")
	b.DateAdded = "2020-01-01T00:00:00Z"
	c := item("C", "C") // neither date: epoch

	got := SortItems([]model.Item{a, b, c}, model.SortByModified, model.SortAsc)
	for i, key := range []string{"C", "B", "A"} {
		if got[i].Key != key {
			t.Fatalf("got[%d] = %s, want %s", i, got[i].Key, key)
		}
	}
}

func TestSortItems_DoesNotMutateInput(t *testing.T) {
	items := []model.Item{
		item("A", "zebra"),
		item("B", "Alpha"),
	}
	_ = SortItems(items, model.SortByTitle, model.SortAsc)
	if items[0].Key != "A" || items[1].Key != "B" {
		t.Fatalf("input slice was reordered: %v %v", items[0].Key, items[1].Key)
	}
}
