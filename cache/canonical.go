package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/BaSui01/runtree/types"
)

// Canonicalize renders v as a deterministic string. Map entries are emitted
// in sorted key order, so structurally equal values always canonicalize
// identically. Self-referential values fail with a SERIALIZATION error
// instead of recursing forever.
func Canonicalize(v any) (string, error) {
	var b strings.Builder
	visited := make(map[uintptr]bool)
	if err := writeCanonical(&b, reflect.ValueOf(v), visited); err != nil {
		return "", err
	}
	return b.String(), nil
}

// DeriveKey canonicalizes input and returns the cache key
// namespace:sha256(canonical).
func DeriveKey(namespace string, input any) (string, error) {
	canonical, err := Canonicalize(input)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(canonical))
	return namespace + ":" + hex.EncodeToString(sum[:]), nil
}

func writeCanonical(b *strings.Builder, v reflect.Value, visited map[uintptr]bool) error {
	if !v.IsValid() {
		b.WriteString("null")
		return nil
	}

	switch v.Kind() {
	case reflect.Bool:
		b.WriteString(strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		b.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		b.WriteString(strconv.FormatFloat(v.Float(), 'g', -1, 64))
	case reflect.String:
		b.WriteString(strconv.Quote(v.String()))

	case reflect.Slice:
		if v.IsNil() {
			b.WriteString("null")
			return nil
		}
		ptr := v.Pointer()
		if visited[ptr] {
			return types.NewError(types.ErrSerialization,
				"cannot canonicalize self-referential value")
		}
		visited[ptr] = true
		defer delete(visited, ptr)
		return writeCanonicalList(b, v, visited)
	case reflect.Array:
		return writeCanonicalList(b, v, visited)

	case reflect.Map:
		if v.IsNil() {
			b.WriteString("null")
			return nil
		}
		ptr := v.Pointer()
		if visited[ptr] {
			return types.NewError(types.ErrSerialization,
				"cannot canonicalize self-referential value")
		}
		visited[ptr] = true
		defer delete(visited, ptr)
		return writeCanonicalMap(b, v, visited)

	case reflect.Ptr:
		if v.IsNil() {
			b.WriteString("null")
			return nil
		}
		ptr := v.Pointer()
		if visited[ptr] {
			return types.NewError(types.ErrSerialization,
				"cannot canonicalize self-referential value")
		}
		visited[ptr] = true
		defer delete(visited, ptr)
		return writeCanonical(b, v.Elem(), visited)

	case reflect.Interface:
		if v.IsNil() {
			b.WriteString("null")
			return nil
		}
		return writeCanonical(b, v.Elem(), visited)

	case reflect.Struct:
		return writeCanonicalStruct(b, v, visited)

	default:
		return types.NewError(types.ErrSerialization,
			fmt.Sprintf("cannot canonicalize value of kind %s", v.Kind()))
	}
	return nil
}

func writeCanonicalList(b *strings.Builder, v reflect.Value, visited map[uintptr]bool) error {
	b.WriteByte('[')
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := writeCanonical(b, v.Index(i), visited); err != nil {
			return err
		}
	}
	b.WriteByte(']')
	return nil
}

// writeCanonicalMap renders map entries sorted by the canonical form of
// their keys. Keys go through the same canonicalization as values, so a
// string key and a numeric key with the same text stay distinct.
func writeCanonicalMap(b *strings.Builder, v reflect.Value, visited map[uintptr]bool) error {
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	for _, k := range v.MapKeys() {
		var kb strings.Builder
		if err := writeCanonical(&kb, k, visited); err != nil {
			return err
		}
		entries = append(entries, entry{key: kb.String(), val: v.MapIndex(k)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	b.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(e.key)
		b.WriteByte(':')
		if err := writeCanonical(b, e.val, visited); err != nil {
			return err
		}
	}
	b.WriteByte('}')
	return nil
}

func writeCanonicalStruct(b *strings.Builder, v reflect.Value, visited map[uintptr]bool) error {
	t := v.Type()
	b.WriteByte('{')
	first := true
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(strconv.Quote(f.Name))
		b.WriteByte(':')
		if err := writeCanonical(b, v.Field(i), visited); err != nil {
			return err
		}
	}
	b.WriteByte('}')
	return nil
}
