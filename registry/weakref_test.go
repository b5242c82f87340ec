package registry

import (
	"bytes"
	"os"
	"runtime"
	"testing"
	"time"
)

func TestMakeWeakRefRejectsNonPointers(t *testing.T) {
	for _, v := range []any{1, "s", 1.5, struct{}{}, []byte("x"), map[string]int{}, make(chan int)} {
		if _, ok := makeWeakRef(v); ok {
			t.Fatalf("%T must not be weak-referenceable", v)
		}
	}

	var nilPtr *bytes.Buffer
	if _, ok := makeWeakRef(nilPtr); ok {
		t.Fatal("nil pointer must not be weak-referenceable")
	}
}

func TestWeakRefPreservesIdentityAndType(t *testing.T) {
	buf := &bytes.Buffer{}
	ref, ok := makeWeakRef(buf)
	if !ok {
		t.Fatal("makeWeakRef failed for a pointer")
	}

	v, alive := ref.Value()
	if !alive {
		t.Fatal("strongly held object must be alive")
	}
	got, ok := v.(*bytes.Buffer)
	if !ok {
		t.Fatalf("dynamic type lost: %T", v)
	}
	if got != buf {
		t.Fatalf("identity lost: %p vs %p", got, buf)
	}
	runtime.KeepAlive(buf)
}

func TestWeakRefInterfaceValue(t *testing.T) {
	// An interface value whose dynamic type is a pointer is trackable
	var w interface{ Name() string } = &os.File{}
	ref, ok := makeWeakRef(w)
	if !ok {
		t.Fatal("interface holding a pointer must be weak-referenceable")
	}
	v, alive := ref.Value()
	if !alive {
		t.Fatal("expected alive")
	}
	if v.(*os.File) != w.(*os.File) {
		t.Fatal("identity lost through interface")
	}
	runtime.KeepAlive(w)
}

func weakTarget() *weakRef {
	buf := bytes.NewBufferString("ephemeral")
	ref, _ := makeWeakRef(buf)
	return ref
}

func TestWeakRefClearsAfterCollection(t *testing.T) {
	ref := weakTarget()

	runtime.GC()
	runtime.GC()

	if _, alive := ref.Value(); alive {
		t.Fatal("weak reference must clear once the object is collected")
	}
}

func TestAddFinalizerFires(t *testing.T) {
	fired := make(chan struct{})

	func() {
		buf := bytes.NewBufferString("doomed")
		addFinalizer(buf, func() { close(fired) })
	}()

	// Cleanups run asynchronously after collection; keep nudging the GC
	// until the runtime gets there.
	deadline := time.After(10 * time.Second)
	for {
		runtime.GC()
		select {
		case <-fired:
			return
		case <-deadline:
			t.Fatal("finalizer never fired")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestFinalizerStopIsIdempotent(t *testing.T) {
	buf := bytes.NewBufferString("released early")
	c := addFinalizer(buf, func() { t.Error("stopped finalizer must not fire") })
	c.Stop()
	c.Stop() // second Stop is a no-op

	runtime.GC()
	runtime.GC()
	time.Sleep(50 * time.Millisecond)
}
