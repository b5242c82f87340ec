package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openglass/resourced/registry"
)

type fakeTimer struct {
	stopped int
}

func (f *fakeTimer) Stop() { f.stopped++ }

type fakeWorker struct {
	stopped int
	joined  bool
	hang    bool
}

func (f *fakeWorker) Stop() { f.stopped++ }
func (f *fakeWorker) Join(timeout time.Duration) bool {
	f.joined = true
	return !f.hang
}

type fakeWidget struct {
	deferred int
}

func (f *fakeWidget) DeleteLater() { f.deferred++ }

type panickyTimer struct {
	fakeWidget
}

func (p *panickyTimer) Stop() { panic("already destroyed") }

func TestGUITimerStops(t *testing.T) {
	reg := registry.New()

	tm := &fakeTimer{}
	id, err := GUI(reg, tm)
	require.NoError(t, err)

	rec, ok := reg.Snapshot().Lookup(id)
	require.True(t, ok)
	assert.Equal(t, registry.TypeTimer, rec.Type)
	assert.Equal(t, registry.GroupGUI, rec.Group)

	_, err = reg.Unregister(id, false)
	require.NoError(t, err)
	assert.Equal(t, 1, tm.stopped)
}

func TestGUIWorkerStoppedAndJoined(t *testing.T) {
	reg := registry.New()

	w := &fakeWorker{}
	id, err := GUI(reg, w)
	require.NoError(t, err)

	_, err = reg.Unregister(id, false)
	require.NoError(t, err)
	assert.Equal(t, 1, w.stopped)
	assert.True(t, w.joined)
}

func TestGUIWorkerJoinTimeoutDoesNotPropagate(t *testing.T) {
	reg := registry.New()

	w := &fakeWorker{hang: true}
	id, err := GUI(reg, w)
	require.NoError(t, err)

	// The bounded join fails; the failure is logged, not raised, and the
	// record is still removed.
	removed, err := reg.Unregister(id, false)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, reg.Exists(id))
}

func TestGUIWidgetDeferredDelete(t *testing.T) {
	reg := registry.New()

	w := &fakeWidget{}
	id, err := GUI(reg, w)
	require.NoError(t, err)

	_, err = reg.Unregister(id, false)
	require.NoError(t, err)
	assert.Equal(t, 1, w.deferred)
}

func TestGUIStepsAreIsolated(t *testing.T) {
	reg := registry.New()

	// Stop panics; the deferred delete must still run
	p := &panickyTimer{}
	id, err := GUI(reg, p)
	require.NoError(t, err)

	_, err = reg.Unregister(id, false)
	require.NoError(t, err)
	assert.Equal(t, 1, p.deferred, "a failing step must not block the rest")
}

func TestWindowType(t *testing.T) {
	reg := registry.New()

	w := &fakeWidget{}
	id, err := Window(reg, w)
	require.NoError(t, err)

	rec, ok := reg.Snapshot().Lookup(id)
	require.True(t, ok)
	assert.Equal(t, registry.TypeWindow, rec.Type)
}
