package planner

// orderedMap keeps values in insertion order, keyed by identity. Replacing a
// value keeps its position.
type orderedMap[T any] struct {
	keyOf func(T) string
	keys  []string
	items map[string]T
}

func newOrderedMap[T any](keyOf func(T) string) *orderedMap[T] {
	return &orderedMap[T]{keyOf: keyOf, items: make(map[string]T)}
}

// Upsert replaces the value with the same key in place, or appends it.
// It reports whether a value was replaced.
func (m *orderedMap[T]) Upsert(v T) bool {
	k := m.keyOf(v)
	_, exists := m.items[k]
	if !exists {
		m.keys = append(m.keys, k)
	}
	m.items[k] = v
	return exists
}

// Replace drops every value and loads values in order. Later duplicates
// overwrite earlier ones.
func (m *orderedMap[T]) Replace(values []T) {
	m.keys = make([]string, 0, len(values))
	m.items = make(map[string]T, len(values))
	for _, v := range values {
		m.Upsert(v)
	}
}

func (m *orderedMap[T]) Remove(k string) bool {
	if _, ok := m.items[k]; !ok {
		return false
	}
	delete(m.items, k)
	for i, key := range m.keys {
		if key == k {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

func (m *orderedMap[T]) Get(k string) (T, bool) {
	v, ok := m.items[k]
	return v, ok
}

func (m *orderedMap[T]) Len() int { return len(m.keys) }

// Values returns a copy of the values in order.
func (m *orderedMap[T]) Values() []T {
	out := make([]T, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.items[k])
	}
	return out
}

// MoveBefore moves k so it sits directly before target.
func (m *orderedMap[T]) MoveBefore(k, target string) bool {
	if k == target {
		_, ok := m.items[k]
		return ok
	}
	if _, ok := m.items[k]; !ok {
		return false
	}
	if _, ok := m.items[target]; !ok {
		return false
	}
	keys := make([]string, 0, len(m.keys))
	for _, key := range m.keys {
		if key == k {
			continue
		}
		if key == target {
			keys = append(keys, k)
		}
		keys = append(keys, key)
	}
	m.keys = keys
	return true
}
