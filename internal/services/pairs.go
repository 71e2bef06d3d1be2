package services

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// pair is an unordered pair of record ids, stored smaller id first.
type pair [2]primitive.ObjectID

func newPair(a, b primitive.ObjectID) pair {
	if b.Hex() < a.Hex() {
		a, b = b, a
	}
	return pair{a, b}
}

// pairQueue collects pairs left inconsistent by a failed second write.
type pairQueue struct {
	mu    sync.Mutex
	pairs map[pair]struct{}
}

func newPairQueue() *pairQueue {
	return &pairQueue{pairs: make(map[pair]struct{})}
}

func (q *pairQueue) add(p pair) {
	q.mu.Lock()
	q.pairs[p] = struct{}{}
	q.mu.Unlock()
}

func (q *pairQueue) drain() []pair {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]pair, 0, len(q.pairs))
	for p := range q.pairs {
		out = append(out, p)
	}
	q.pairs = make(map[pair]struct{})
	return out
}

func (q *pairQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pairs)
}
