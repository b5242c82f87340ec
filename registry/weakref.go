package registry

import (
	"reflect"
	"runtime"
	"unsafe"
	"weak"
)

// weakRef is a non-owning reference to a pointer of any dynamic type.
//
// weak.Make is generic over the pointee type, which a registry holding
// heterogeneous resources does not know statically. A weak reference only
// tracks the allocation, not the type, so the pointer is laundered through
// *byte for weak.Make and the dynamic type is kept alongside to rebuild
// the original interface value on the way out.
type weakRef struct {
	p weak.Pointer[byte]
	// typ is the resource's pointer type, e.g. *os.File.
	typ reflect.Type
}

// makeWeakRef creates a weak reference to resource. It returns false when
// the value is not pointer-shaped and therefore cannot be tracked without
// the registry becoming a strong holder.
func makeWeakRef(resource any) (*weakRef, bool) {
	rv := reflect.ValueOf(resource)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, false
	}

	ptr := (*byte)(rv.UnsafePointer())
	return &weakRef{
		p:   weak.Make(ptr),
		typ: rv.Type(),
	}, true
}

// Value returns the resource with its original dynamic type, or false if
// the underlying object has been collected. The returned pointer is the
// registered pointer, so identity comparisons hold.
func (w *weakRef) Value() (any, bool) {
	b := w.p.Value()
	if b == nil {
		return nil, false
	}
	return reflect.NewAt(w.typ.Elem(), unsafe.Pointer(b)).Interface(), true
}

// addFinalizer arranges for fn to run after the referenced object becomes
// unreachable. The returned cleanup can be stopped when the record is
// explicitly unregistered first. resource must be the same value the
// weakRef was created from.
func addFinalizer(resource any, fn func()) runtime.Cleanup {
	ptr := (*byte)(reflect.ValueOf(resource).UnsafePointer())
	return runtime.AddCleanup(ptr, func(f func()) { f() }, fn)
}
