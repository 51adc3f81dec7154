package derive

import (
	"errors"
	"testing"

	"refero-cli/internal/model"
)

func col(key, name, parent string) model.Collection {
	return model.Collection{
		Key:     key,
		Version: 1,
		Data:    model.CollectionData{Name: name, ParentCollection: model.ParentKey(parent)},
	}
}

func TestBuildTree_SortsRootsByName(t *testing.T) {
	roots, err := BuildTree([]model.Collection{
		col("A", "Zoo", ""),
		col("B", "Art", ""),
	})
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}

	flat := Flatten(roots)
	if len(flat) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(flat))
	}
	if flat[0].Key != "B" || flat[0].Level != 0 {
		t.Fatalf("expected Art first at level 0, got %q level %d", flat[0].Key, flat[0].Level)
	}
	if flat[1].Key != "A" || flat[1].Level != 0 {
		t.Fatalf("expected Zoo second at level 0, got %q level %d", flat[1].Key, flat[1].Level)
	}
}

func TestBuildTree_NestingAndDepth(t *testing.T) {
	cols := []model.Collection{
		col("R", "Research", ""),
		col("C1", "Primary sources", "R"),
		col("C2", "Archives", "C1"),
		col("S", "Teaching", ""),
	}
	roots, err := BuildTree(cols)
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}
	flat := Flatten(roots)
	if len(flat) != len(cols) {
		t.Fatalf("flatten lost collections: got %d want %d", len(flat), len(cols))
	}

	levels := map[string]int{}
	for _, f := range flat {
		levels[f.Key] = f.Level
	}
	want := map[string]int{"R": 0, "C1": 1, "C2": 2, "S": 0}
	for key, level := range want {
		if levels[key] != level {
			t.Fatalf("collection %s: level %d, want %d", key, levels[key], level)
		}
	}
}

func TestBuildTree_OrphanedParentBecomesRoot(t *testing.T) {
	roots, err := BuildTree([]model.Collection{
		col("X", "Stray", "MISSING"),
	})
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}
	flat := Flatten(roots)
	if len(flat) != 1 || flat[0].Key != "X" || flat[0].Level != 0 {
		t.Fatalf("orphan not promoted to root: %+v", flat)
	}
}

func TestBuildTree_CycleFails(t *testing.T) {
	_, err := BuildTree([]model.Collection{
		col("A", "A", "B"),
		col("B", "B", "A"),
		col("R", "Root", ""),
	})
	if !errors.Is(err, ErrCollectionCycle) {
		t.Fatalf("expected ErrCollectionCycle, got %v", err)
	}
}

func TestBuildTree_SelfParentFails(t *testing.T) {
	_, err := BuildTree([]model.Collection{
		col("A", "Loop", "A"),
		col("R", "Root", ""),
	})
	if !errors.Is(err, ErrCollectionCycle) {
		t.Fatalf("expected ErrCollectionCycle, got %v", err)
	}
}

func TestFlatten_ContainsEveryInputExactlyOnce(t *testing.T) {
	cols := []model.Collection{
		col("A", "One", ""),
		col("B", "Two", "A"),
		col("C", "Three", "A"),
		col("D", "Four", "C"),
		col("E", "Five", ""),
	}
	roots, err := BuildTree(cols)
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}
	flat := Flatten(roots)

	count := map[string]int{}
	for _, f := range flat {
		count[f.Key]++
	}
	for _, c := range cols {
		if count[c.Key] != 1 {
			t.Fatalf("collection %s appears %d times", c.Key, count[c.Key])
		}
	}

	// Flatten is idempotent for the same tree.
	again := Flatten(roots)
	if len(again) != len(flat) {
		t.Fatalf("second flatten differs: %d vs %d", len(again), len(flat))
	}
	for i := range flat {
		if again[i].Key != flat[i].Key || again[i].Level != flat[i].Level {
			t.Fatalf("second flatten differs at %d: %+v vs %+v", i, again[i], flat[i])
		}
	}
}
