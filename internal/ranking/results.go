package ranking

import (
	"container/heap"
	"sort"
)

type SearchResult struct {
	DocID uint64  `json:"doc_id"`
	Score float64 `json:"score"`
}

// RankedList is ordered by descending score, ties by ascending DocID.
type RankedList []SearchResult

// before reports whether a ranks ahead of b.
func before(a, b SearchResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.DocID < b.DocID
}

// DocIDs returns the document ids in rank order.
func (l RankedList) DocIDs() []uint64 {
	ids := make([]uint64, len(l))
	for i, r := range l {
		ids[i] = r.DocID
	}
	return ids
}

// topK keeps the best limit results seen so far in a bounded min-heap.
type topK struct {
	limit int
	h     resultHeap
}

func newTopK(limit int) *topK {
	capacity := limit
	if capacity > 1024 {
		capacity = 1024
	}
	return &topK{limit: limit, h: make(resultHeap, 0, capacity)}
}

func (t *topK) offer(r SearchResult) {
	if t.h.Len() < t.limit {
		heap.Push(&t.h, r)
		return
	}
	if before(r, t.h[0]) {
		t.h[0] = r
		heap.Fix(&t.h, 0)
	}
}

func (t *topK) list() RankedList {
	out := make(RankedList, len(t.h))
	copy(out, t.h)
	sort.Slice(out, func(i, j int) bool { return before(out[i], out[j]) })
	return out
}

// resultHeap is a min-heap: the root is the worst-ranked retained result.
type resultHeap []SearchResult

func (h resultHeap) Len() int { return len(h) }

func (h resultHeap) Less(i, j int) bool { return before(h[j], h[i]) }

func (h resultHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *resultHeap) Push(x any) {
	*h = append(*h, x.(SearchResult))
}

func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
