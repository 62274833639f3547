package cartkit

import "testing"

func TestMergeCartAdditive(t *testing.T) {
	local := []CartLine{line(1, nil, 1000, 2)}
	remote := []CartLine{
		line(1, nil, 1000, 3),
		line(2, nil, 500, 1),
	}

	merged := MergeCartAdditive(local, remote)

	if len(merged) != 2 {
		t.Fatalf("expected 2 merged lines, got %d", len(merged))
	}
	byProduct := make(map[int64]CartLine, len(merged))
	for _, l := range merged {
		byProduct[l.ProductID] = l
	}
	if got := byProduct[1].Quantity; got != 5 {
		t.Errorf("shared identity: expected summed quantity 5, got %d", got)
	}
	if got := byProduct[2].Quantity; got != 1 {
		t.Errorf("remote-only line: expected quantity 1, got %d", got)
	}
}

func TestMergeCartAdditiveVariantIdentity(t *testing.T) {
	// Same product id, different variants: never summed together.
	local := []CartLine{
		line(1, variant(10), 1000, 2),
		line(1, nil, 1000, 1),
	}
	remote := []CartLine{
		line(1, variant(10), 1000, 1),
		line(1, variant(11), 1000, 4),
	}

	merged := MergeCartAdditive(local, remote)
	if len(merged) != 3 {
		t.Fatalf("expected 3 lines (variant 10, base, variant 11), got %d", len(merged))
	}

	byKey := make(map[LineKey]int, len(merged))
	for _, l := range merged {
		byKey[l.Key()] = l.Quantity
	}
	if got := byKey[LineKey{ProductID: 1, VariantID: 10, HasVariant: true}]; got != 3 {
		t.Errorf("variant 10: expected 3, got %d", got)
	}
	if got := byKey[LineKey{ProductID: 1}]; got != 1 {
		t.Errorf("base product: expected 1, got %d", got)
	}
	if got := byKey[LineKey{ProductID: 1, VariantID: 11, HasVariant: true}]; got != 4 {
		t.Errorf("variant 11: expected 4, got %d", got)
	}
}

func TestMergeCartAdditiveEmptySides(t *testing.T) {
	remote := []CartLine{line(1, nil, 100, 2)}

	merged := MergeCartAdditive(nil, remote)
	if len(merged) != 1 || merged[0].Quantity != 2 {
		t.Errorf("empty local: expected remote carried over, got %+v", merged)
	}

	local := []CartLine{line(3, nil, 100, 1)}
	merged = MergeCartAdditive(local, nil)
	if len(merged) != 1 || merged[0].ProductID != 3 {
		t.Errorf("empty remote: expected local carried over, got %+v", merged)
	}
}

func TestMergeCartAdditiveDoesNotAliasInputs(t *testing.T) {
	local := []CartLine{line(1, variant(2), 100, 1)}
	merged := MergeCartAdditive(local, []CartLine{line(1, variant(2), 100, 1)})

	merged[0].Quantity = 99
	*merged[0].VariantID = 77

	if local[0].Quantity != 1 || *local[0].VariantID != 2 {
		t.Error("merge result aliases the local input")
	}
}

func TestMergeFavoritesUnion(t *testing.T) {
	merged, localOnly := MergeFavoritesUnion([]int64{5, 6}, []int64{6, 7})

	if !sameIDs(merged, []int64{5, 6, 7}) {
		t.Errorf("expected union {5,6,7}, got %v", merged)
	}
	if !sameIDs(localOnly, []int64{5}) {
		t.Errorf("expected local-only {5}, got %v", localOnly)
	}
}

func TestMergeFavoritesUnionDisjointAndEmpty(t *testing.T) {
	merged, localOnly := MergeFavoritesUnion([]int64{1, 2}, nil)
	if !sameIDs(merged, []int64{1, 2}) || !sameIDs(localOnly, []int64{1, 2}) {
		t.Errorf("empty remote: got merged=%v localOnly=%v", merged, localOnly)
	}

	merged, localOnly = MergeFavoritesUnion(nil, []int64{3})
	if !sameIDs(merged, []int64{3}) || len(localOnly) != 0 {
		t.Errorf("empty local: got merged=%v localOnly=%v", merged, localOnly)
	}
}
