package treegen

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/nodeforge/treegen/cbor"
	"github.com/nodeforge/treegen/errs"
)

// annotationEntry is the registered (serialize, deserialize) pair for one
// Go type, keyed for lookup both by reflect.Type (set/get path) and by its
// braced wire name (serialize/deserialize path).
type annotationEntry struct {
	wireName string
	typ      reflect.Type
	serialze func(any) ([]byte, error)
	deserial func([]byte) (any, error)
}

var (
	registryMu     sync.RWMutex
	registryByType = map[reflect.Type]*annotationEntry{}
	registryByName = map[string]*annotationEntry{}
)

// RegisterAnnotation registers a (serialize, deserialize) pair for type T,
// process-wide, under the wire key "{name}". An empty name defaults to an
// implementation-provided stable string derived from T (§4.2). Safe to
// call concurrently with GetAnnotation/SetAnnotation on existing
// registrations once past initialization (§5); concurrent calls to
// RegisterAnnotation itself are serialized but not ordered.
func RegisterAnnotation[T any](name string, serialize func(T) ([]byte, error), deserialize func([]byte) (T, error)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if name == "" {
		name = t.String()
	}
	entry := &annotationEntry{
		wireName: "{" + name + "}",
		typ:      t,
		serialze: func(v any) ([]byte, error) { return serialize(v.(T)) },
		deserial: func(b []byte) (any, error) { return deserialize(b) },
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registryByType[t] = entry
	registryByName[entry.wireName] = entry
}

func lookupByType(t reflect.Type) (*annotationEntry, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registryByType[t]
	return e, ok
}

func lookupByName(name string) (*annotationEntry, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registryByName[name]
	return e, ok
}

// IsAnnotationKey reports whether key has the "{...}" shape used to
// distinguish annotation entries from field entries in a serialized node
// map (§6).
func IsAnnotationKey(key string) bool {
	return len(key) >= 2 && strings.HasPrefix(key, "{") && strings.HasSuffix(key, "}")
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Annotatable is the per-node annotation map (§4.2), embedded by every
// generated node type. Its methods are free generic functions, not
// methods, because Go does not allow a method to introduce its own type
// parameter.
type Annotatable struct {
	values map[reflect.Type]any
}

func (a *Annotatable) ensure() {
	if a.values == nil {
		a.values = make(map[reflect.Type]any)
	}
}

// SetAnnotation sets (overwriting) the value of type T on a.
func SetAnnotation[T any](a *Annotatable, v T) {
	a.ensure()
	a.values[typeKey[T]()] = v
}

// GetAnnotation returns the value of type T on a, or a *errs.Missing error
// if absent.
func GetAnnotation[T any](a *Annotatable) (T, error) {
	var zero T
	if a.values != nil {
		if v, ok := a.values[typeKey[T]()]; ok {
			return v.(T), nil
		}
	}
	return zero, errs.NewMissing(typeKey[T]().String())
}

// HasAnnotation reports whether a value of type T is set on a.
func HasAnnotation[T any](a *Annotatable) bool {
	if a.values == nil {
		return false
	}
	_, ok := a.values[typeKey[T]()]
	return ok
}

// EraseAnnotation removes the value of type T from a, if present.
func EraseAnnotation[T any](a *Annotatable) {
	if a.values == nil {
		return
	}
	delete(a.values, typeKey[T]())
}

// CopyAnnotationFrom copies the value of type T from src to dst.
func CopyAnnotationFrom[T any](dst, src *Annotatable) error {
	v, err := GetAnnotation[T](src)
	if err != nil {
		return err
	}
	SetAnnotation[T](dst, v)
	return nil
}

// SerializeAnnotations writes every annotation on a whose type has a
// registered (serialize, deserialize) pair into m, under its braced wire
// key. Annotations whose type is unregistered are silently skipped: they
// remain on the in-memory node, they simply cannot round-trip (§4.2).
func (a *Annotatable) SerializeAnnotations(m *cbor.MapHandle) error {
	if a.values == nil {
		return nil
	}
	for t, v := range a.values {
		entry, ok := lookupByType(t)
		if !ok {
			continue
		}
		b, err := entry.serialze(v)
		if err != nil {
			return errs.WrapSchemaError("", 0, err, "serializing annotation %s", entry.wireName)
		}
		if err := m.AppendBytes(entry.wireName, b); err != nil {
			return err
		}
	}
	return nil
}

// DeserializeAnnotation loads one annotation entry, given a wire key
// already known to satisfy IsAnnotationKey and its raw byte payload. An
// unknown key is silently dropped (§4.2).
func (a *Annotatable) DeserializeAnnotation(wireKey string, payload []byte) error {
	entry, ok := lookupByName(wireKey)
	if !ok {
		return nil
	}
	v, err := entry.deserial(payload)
	if err != nil {
		return errs.WrapSchemaError("", 0, err, "deserializing annotation %s", wireKey)
	}
	a.ensure()
	a.values[entry.typ] = v
	return nil
}

// CloneInto copies every annotation into dst, using each type's registered
// (serialize, deserialize) round trip when available so the copy is
// independent of any shared mutable state, and by direct value copy
// otherwise (§ SUPPLEMENTED FEATURES: clone-on-copy semantics).
func (a *Annotatable) CloneInto(dst *Annotatable) error {
	if a.values == nil {
		return nil
	}
	dst.ensure()
	for t, v := range a.values {
		if entry, ok := lookupByType(t); ok {
			b, err := entry.serialze(v)
			if err != nil {
				return fmt.Errorf("cloning annotation %s: %w", entry.wireName, err)
			}
			cloned, err := entry.deserial(b)
			if err != nil {
				return fmt.Errorf("cloning annotation %s: %w", entry.wireName, err)
			}
			dst.values[t] = cloned
			continue
		}
		dst.values[t] = v
	}
	return nil
}
