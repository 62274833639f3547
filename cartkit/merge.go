package cartkit

import "sort"

// The two merge policies are deliberately separate, named strategies.
// Cart quantities carry purchase intent, so duplicates are summed;
// favorite membership is boolean, so the policies must never be
// conflated.

// MergeCartAdditive combines a local and a remote cart snapshot.
// Local lines keep their order and display snapshot; a remote line
// with the same identity key adds its quantity to the local line, and
// remote-only lines are appended in remote order. Both sides represent
// genuine intent to purchase, so shared quantities are summed, never
// replaced.
func MergeCartAdditive(local, remote []CartLine) []CartLine {
	merged := cloneLines(local)
	index := make(map[LineKey]int, len(merged))
	for i, l := range merged {
		index[l.Key()] = i
	}

	for _, r := range remote {
		key := r.Key()
		if i, ok := index[key]; ok {
			merged[i].Quantity += r.Quantity
			continue
		}
		merged = append(merged, cloneLine(r))
		index[key] = len(merged) - 1
	}

	return merged
}

// MergeFavoritesUnion computes the union membership of a local and a
// remote favorites snapshot, plus the ids present only locally. The
// reconciler backfills localOnly to the remote store first and then
// takes whatever remote reports as authoritative.
func MergeFavoritesUnion(local, remote []int64) (merged, localOnly []int64) {
	remoteSet := make(map[int64]struct{}, len(remote))
	for _, id := range remote {
		remoteSet[id] = struct{}{}
	}

	union := make(map[int64]struct{}, len(remote)+len(local))
	for id := range remoteSet {
		union[id] = struct{}{}
	}
	for _, id := range local {
		if _, ok := remoteSet[id]; !ok {
			localOnly = append(localOnly, id)
		}
		union[id] = struct{}{}
	}

	merged = make([]int64, 0, len(union))
	for id := range union {
		merged = append(merged, id)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i] < merged[j] })
	sort.Slice(localOnly, func(i, j int) bool { return localOnly[i] < localOnly[j] })
	return merged, localOnly
}
