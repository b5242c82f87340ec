package main

import (
	"fmt"
	"os"
	"time"

	"github.com/openglass/resourced/registry"
	"github.com/openglass/resourced/track"
)

// demoSet keeps strong references to the seeded resources. The registry
// itself only holds weak references; without this set everything would be
// collected before the first repaint.
type demoSet struct {
	timers   []*demoTimer
	workers  []*demoWorker
	widgets  []*demoWidget
	conns    []*demoConn
	sessions []*demoSession
	gpu      []*track.GPUHandle
	files    []*os.File
	caches   []*demoCache
}

type demoTimer struct{ stopped bool }

func (t *demoTimer) Stop() { t.stopped = true }

type demoWorker struct{ stopped bool }

func (w *demoWorker) Stop()                           { w.stopped = true }
func (w *demoWorker) Join(timeout time.Duration) bool { return true }

type demoWidget struct{ deleted bool }

func (w *demoWidget) DeleteLater() { w.deleted = true }

type demoConn struct{ closed bool }

func (c *demoConn) CloseWrite() error { return nil }
func (c *demoConn) Close() error      { c.closed = true; return nil }

type demoSession struct{ closed bool }

func (s *demoSession) Rollback() error { return nil }
func (s *demoSession) Close() error    { s.closed = true; return nil }

type demoCache struct{ entries int }

// seedDemo registers a few resources in every cleanup group so a full
// shutdown exercises the whole ordering: GUI first, then connections, then
// GPU objects, then files, then the rest.
func seedDemo(reg *registry.Registry) (*demoSet, error) {
	set := &demoSet{}

	win := &demoWidget{}
	set.widgets = append(set.widgets, win)
	if _, err := track.Window(reg, win, registry.WithDescription("main window")); err != nil {
		return nil, err
	}

	for i := 0; i < 2; i++ {
		tm := &demoTimer{}
		set.timers = append(set.timers, tm)
		if _, err := track.GUI(reg, tm, registry.WithDescription(fmt.Sprintf("repaint timer %d", i))); err != nil {
			return nil, err
		}
	}

	w := &demoWorker{}
	set.workers = append(set.workers, w)
	if _, err := track.GUI(reg, w, registry.WithDescription("background loader")); err != nil {
		return nil, err
	}

	for i := 0; i < 2; i++ {
		c := &demoConn{}
		set.conns = append(set.conns, c)
		if _, err := track.Network(reg, c, registry.WithDescription(fmt.Sprintf("api conn %d", i))); err != nil {
			return nil, err
		}
	}

	s := &demoSession{}
	set.sessions = append(set.sessions, s)
	if _, err := track.DB(reg, s, registry.WithDescription("metadata session")); err != nil {
		return nil, err
	}

	for _, name := range []uint32{101, 102, 103} {
		h, _, err := track.GPUTexture(reg, name, func(uint32) {})
		if err != nil {
			return nil, err
		}
		set.gpu = append(set.gpu, h)
	}
	ctx, _, err := track.GPUContext(reg, func() {},
		registry.WithDescription("shared gl context"),
		registry.WithCleanupPriority(100))
	if err != nil {
		return nil, err
	}
	set.gpu = append(set.gpu, ctx)

	for i := 0; i < 2; i++ {
		f, err := os.CreateTemp("", "resmon-demo-*.tmp")
		if err != nil {
			return nil, err
		}
		set.files = append(set.files, f)
		if _, err := track.TempFile(reg, f, true, registry.WithDescription("scratch file")); err != nil {
			return nil, err
		}
	}

	cache := &demoCache{entries: 512}
	set.caches = append(set.caches, cache)
	_, err = reg.Register(cache, registry.TypeCustom,
		registry.WithDescription("in-memory cache"),
		registry.WithCleanup(func(res any) error {
			res.(*demoCache).entries = 0
			return nil
		}))
	if err != nil {
		return nil, err
	}

	return set, nil
}
