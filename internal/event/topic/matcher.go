package topic

import (
	"slices"
	"sync"
)

// Matcher indexes values by topic pattern and finds the values whose
// pattern matches a concrete topic. It is safe for concurrent use.
type Matcher[V any] struct {
	mu   sync.RWMutex
	root *trieNode[V]
	byID map[string]Topic
	seq  uint64
}

type trieNode[V any] struct {
	children map[string]*trieNode[V]
	entries  []entry[V]
}

type entry[V any] struct {
	id    string
	seq   uint64
	value V
}

func newTrieNode[V any]() *trieNode[V] {
	return &trieNode[V]{children: make(map[string]*trieNode[V])}
}

// NewMatcher creates a new topic matcher.
func NewMatcher[V any]() *Matcher[V] {
	return &Matcher[V]{
		root: newTrieNode[V](),
		byID: make(map[string]Topic),
	}
}

// Add stores value under pattern with the given id. Adding an id that is
// already present replaces its previous entry.
func (m *Matcher[V]) Add(pattern Topic, id string, value V) {
	if pattern == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.byID[id]; ok {
		m.removeLocked(old, id)
	}

	node := m.root
	for _, seg := range pattern.Segments() {
		if node.children[seg] == nil {
			node.children[seg] = newTrieNode[V]()
		}
		node = node.children[seg]
	}

	m.seq++
	node.entries = append(node.entries, entry[V]{id: id, seq: m.seq, value: value})
	m.byID[id] = pattern
}

// Remove deletes the entry with the given id. It reports whether the id
// was present.
func (m *Matcher[V]) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	pattern, ok := m.byID[id]
	if !ok {
		return false
	}
	m.removeLocked(pattern, id)
	return true
}

func (m *Matcher[V]) removeLocked(pattern Topic, id string) {
	delete(m.byID, id)

	node := m.root
	for _, seg := range pattern.Segments() {
		if node = node.children[seg]; node == nil {
			return
		}
	}
	node.entries = slices.DeleteFunc(node.entries, func(e entry[V]) bool {
		return e.id == id
	})
}

// Has returns true if an entry with the given id exists.
func (m *Matcher[V]) Has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byID[id]
	return ok
}

// Match returns the values whose pattern matches t, in the order they were
// added. t should be a concrete topic.
func (m *Matcher[V]) Match(t Topic) []V {
	if t == "" {
		return nil
	}

	m.mu.RLock()
	var found []entry[V]
	m.matchRecursive(m.root, t.Segments(), 0, &found)
	m.mu.RUnlock()

	slices.SortFunc(found, func(a, b entry[V]) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	// a "**" node can be reached along more than one path
	found = slices.CompactFunc(found, func(a, b entry[V]) bool { return a.seq == b.seq })

	values := make([]V, len(found))
	for i, e := range found {
		values[i] = e.value
	}
	return values
}

func (m *Matcher[V]) matchRecursive(node *trieNode[V], segments []string, depth int, found *[]entry[V]) {
	if node == nil {
		return
	}

	if depth == len(segments) {
		*found = append(*found, node.entries...)

		// trailing ** matches zero additional segments
		if child := node.children[WildcardMulti]; child != nil {
			m.matchRecursive(child, segments, depth, found)
		}
		return
	}

	segment := segments[depth]

	if child := node.children[segment]; child != nil {
		m.matchRecursive(child, segments, depth+1, found)
	}
	if child := node.children[WildcardSingle]; child != nil {
		m.matchRecursive(child, segments, depth+1, found)
	}
	if child := node.children[WildcardMulti]; child != nil {
		for i := depth; i <= len(segments); i++ {
			m.matchRecursive(child, segments, i, found)
		}
	}
}

// Patterns returns the distinct patterns currently stored.
func (m *Matcher[V]) Patterns() []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	patterns := make([]Topic, 0, len(m.byID))
	for _, p := range m.byID {
		if !slices.Contains(patterns, p) {
			patterns = append(patterns, p)
		}
	}
	slices.Sort(patterns)
	return patterns
}

// Count returns the number of entries in the matcher.
func (m *Matcher[V]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

// Clear removes all entries from the matcher.
func (m *Matcher[V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.root = newTrieNode[V]()
	m.byID = make(map[string]Topic)
}
