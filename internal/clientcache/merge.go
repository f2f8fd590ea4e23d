package clientcache

import "github.com/aquahimiya/catalogd/internal/domain"

// DedupeBy keeps the first item for every key, preserving order.
func DedupeBy[T any, K comparable](items []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Merge concatenates local then remote and dedupes by key, so a local entry
// wins over a remote one with the same key. Callers that need remote to win
// must Overwrite first.
func Merge[T any, K comparable](remote, local []T, key func(T) K) []T {
	all := make([]T, 0, len(local)+len(remote))
	all = append(all, local...)
	all = append(all, remote...)
	return DedupeBy(all, key)
}

// Overwrite returns local with every entry that remote also has replaced by
// the remote version. Order and local-only entries are kept.
func Overwrite[T any, K comparable](local, remote []T, key func(T) K) []T {
	byKey := make(map[K]T, len(remote))
	for _, item := range remote {
		if _, ok := byKey[key(item)]; !ok {
			byKey[key(item)] = item
		}
	}
	out := make([]T, len(local))
	for i, item := range local {
		if r, ok := byKey[key(item)]; ok {
			out[i] = r
			continue
		}
		out[i] = item
	}
	return out
}

func MergeProducts(remote, local []domain.Product) []domain.Product {
	return Merge(remote, local, productID)
}

func productID(p domain.Product) int64 { return p.ID }

func categoryID(c domain.Category) string { return c.ID }
