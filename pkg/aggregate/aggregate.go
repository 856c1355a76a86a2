// Package aggregate provides the one grouping/counting reduction shared by the
// dashboard tallies so the same fold is not re-derived at every call site.
package aggregate

// Entry is a single key with its reduced value.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Reduce groups items by keyFn, maps each to valueFn and folds values per key
// with reduce. Output order is the insertion order of each key's first
// occurrence.
func Reduce[T any, K comparable, V any](items []T, keyFn func(T) K, valueFn func(T) V, reduce func(V, V) V) []Entry[K, V] {
	index := make(map[K]int, len(items))
	out := make([]Entry[K, V], 0)

	for _, item := range items {
		k := keyFn(item)
		v := valueFn(item)
		if i, ok := index[k]; ok {
			out[i].Value = reduce(out[i].Value, v)
			continue
		}
		index[k] = len(out)
		out = append(out, Entry[K, V]{Key: k, Value: v})
	}

	return out
}

// CountBy tallies items per key.
func CountBy[T any, K comparable](items []T, keyFn func(T) K) []Entry[K, int64] {
	return Reduce(items, keyFn,
		func(T) int64 { return 1 },
		func(a, b int64) int64 { return a + b },
	)
}

// SumBy sums valueFn per key.
func SumBy[T any, K comparable](items []T, keyFn func(T) K, valueFn func(T) int64) []Entry[K, int64] {
	return Reduce(items, keyFn, valueFn,
		func(a, b int64) int64 { return a + b },
	)
}
