package dispatch

import (
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
)

// Subscription identifies one registration. IDs are unique across every
// dispatcher in the process and zero is never issued.
type Subscription uint64

var lastSubscription atomic.Uint64

func nextSubscription() Subscription { return Subscription(lastSubscription.Add(1)) }

// table maps a kind to its observers in registration order. Lists are
// copy-on-write: snapshot hands out the current slice and writers always
// replace it, so a drain iterating a snapshot never sees a mutation. ids
// runs parallel to lists.
type table[K ~string, O any] struct {
	mu    sync.RWMutex
	lists map[K][]O
	ids   map[K][]Subscription
	owner map[Subscription]K
}

func newTable[K ~string, O any]() *table[K, O] {
	return &table[K, O]{
		lists: make(map[K][]O),
		ids:   make(map[K][]Subscription),
		owner: make(map[Subscription]K),
	}
}

func (t *table[K, O]) add(kind K, o O) Subscription {
	id := nextSubscription()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lists[kind] = appendCopy(t.lists[kind], o)
	t.ids[kind] = appendCopy(t.ids[kind], id)
	t.owner[id] = kind
	return id
}

// remove drops the first registration equal to o. Callers must check
// identifiable(o) first.
func (t *table[K, O]) remove(kind K, o O) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, cur := range t.lists[kind] {
		if sameObserver(cur, o) {
			t.removeAt(kind, i)
			return true
		}
	}
	return false
}

// removeID drops the registration issued as id. Unknown ids, including
// ids from another table, report false.
func (t *table[K, O]) removeID(id Subscription) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	kind, ok := t.owner[id]
	if !ok {
		return false
	}
	for i, cur := range t.ids[kind] {
		if cur == id {
			t.removeAt(kind, i)
			return true
		}
	}
	return false
}

// removeAt drops entry i of kind; the kind entry is deleted once empty.
// t.mu must be held.
func (t *table[K, O]) removeAt(kind K, i int) {
	delete(t.owner, t.ids[kind][i])
	if len(t.lists[kind]) == 1 {
		delete(t.lists, kind)
		delete(t.ids, kind)
		return
	}
	t.lists[kind] = deleteCopy(t.lists[kind], i)
	t.ids[kind] = deleteCopy(t.ids[kind], i)
}

func (t *table[K, O]) snapshot(kind K) []O {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lists[kind]
}

func (t *table[K, O]) count(kind K) int {
	return len(t.snapshot(kind))
}

// kinds returns the registered kinds sorted for stable output.
func (t *table[K, O]) kinds() []string {
	t.mu.RLock()
	out := make([]string, 0, len(t.lists))
	for k := range t.lists {
		out = append(out, string(k))
	}
	t.mu.RUnlock()
	sort.Strings(out)
	return out
}

func appendCopy[T any](cur []T, v T) []T {
	next := make([]T, len(cur), len(cur)+1)
	copy(next, cur)
	return append(next, v)
}

func deleteCopy[T any](cur []T, i int) []T {
	next := make([]T, 0, len(cur)-1)
	next = append(next, cur[:i]...)
	return append(next, cur[i+1:]...)
}

// identifiable reports whether o can be found again by value. Funcs are
// excluded because method values of different receivers share one code
// pointer; values holding a func anywhere are excluded because == on them
// panics.
func identifiable(o any) bool {
	v := reflect.ValueOf(o)
	if !v.IsValid() || v.Kind() == reflect.Func {
		return false
	}
	return v.Comparable()
}

// sameObserver compares two registrations by value. Either side failing
// identifiable never matches.
func sameObserver(a, b any) bool {
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !identifiable(a) || !identifiable(b) {
		return false
	}
	return a == b
}
