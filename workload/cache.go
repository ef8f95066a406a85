package workload

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// cacheKey returns a canonical, order-insensitive hash for (namespace,
// method, args): keys of args are sorted before hashing, so two calls
// differing only in map/arg iteration order collide correctly. This
// replaces original_source's utils.py cache() decorator, which keys on a
// stringified representation of positional/keyword args — fragile
// against key reordering and float formatting (spec.md §9 Design Notes
// calls this out explicitly as due for replacement).
func cacheKey(namespace, method string, args map[string]any) (string, error) {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]any, 0, len(keys)*2+2)
	ordered = append(ordered, namespace, method)
	for _, k := range keys {
		ordered = append(ordered, k, args[k])
	}

	encoded, err := json.Marshal(ordered)
	if err != nil {
		return "", fmt.Errorf("workload: encoding cache key: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// cachePath resolves the on-disk location for a cache key under dir.
func cachePath(dir, key string) string {
	return filepath.Join(dir, key+".json")
}

// cacheGet reads a cached value into out. ok is false on any miss
// (including a missing cache dir, decode failure, or absent file) —
// callers fall through to recomputing.
func cacheGet(dir, namespace, method string, args map[string]any, out any) (ok bool, err error) {
	key, err := cacheKey(namespace, method, args)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(cachePath(dir, key))
	if err != nil {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, nil
	}
	return true, nil
}

// cachePut writes value atomically: encode to a temp file in the same
// directory, then rename over the final path, so a reader never observes
// a partially-written cache entry (spec.md §4.1: "miss writes it
// atomically").
func cachePut(dir, namespace, method string, args map[string]any, value any) error {
	key, err := cacheKey(namespace, method, args)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("workload: encoding cache value: %w", err)
	}

	final := cachePath(dir, key)
	tmp, err := os.CreateTemp(dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("workload: creating temp cache file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("workload: writing temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("workload: closing temp cache file: %w", err)
	}
	if err := os.Rename(tmpPath, final); err != nil {
		return fmt.Errorf("workload: renaming cache file into place: %w", err)
	}
	return nil
}
