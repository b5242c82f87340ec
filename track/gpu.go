package track

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/openglass/resourced/registry"
)

// GPUHandle boxes a raw GPU object name. Raw names are plain integers and
// cannot be weakly referenced, so the box exists to satisfy the registry's
// weak-tracking requirement; it also makes deletion idempotent. The caller
// must keep the box alive for as long as the GPU object exists; once the
// box is collected, the registry can only purge the record.
type GPUHandle struct {
	name        uint32
	kind        registry.Type
	deleteFn    func(uint32)
	probe       func(uint32) bool
	makeCurrent func()
	doneCurrent func()
	released    atomic.Bool
}

// Name returns the raw GPU object name.
func (h *GPUHandle) Name() uint32 {
	return h.name
}

// Released reports whether the underlying object has been deleted.
func (h *GPUHandle) Released() bool {
	return h.released.Load()
}

// Release deletes the GPU object. It is idempotent: only the first call
// does anything. When a context bracket is configured the delete runs
// between MakeCurrent and DoneCurrent; when a liveness probe is configured
// and reports the name already dead, the delete is skipped.
func (h *GPUHandle) Release() {
	if !h.released.CompareAndSwap(false, true) {
		return
	}

	if h.makeCurrent != nil {
		h.makeCurrent()
	}
	if h.doneCurrent != nil {
		defer h.doneCurrent()
	}

	if h.probe != nil && !h.probe(h.name) {
		Logger().Debug("gpu object already gone, skipping delete",
			zap.Uint32("name", h.name), zap.String("kind", h.kind.String()))
		return
	}
	h.deleteFn(h.name)
}

// GPUOption configures a GPUHandle.
type GPUOption func(*GPUHandle)

// WithContextBracket wraps the delete call in makeCurrent/doneCurrent so
// it runs against the right GL context.
func WithContextBracket(makeCurrent, doneCurrent func()) GPUOption {
	return func(h *GPUHandle) {
		h.makeCurrent = makeCurrent
		h.doneCurrent = doneCurrent
	}
}

// WithLivenessProbe skips the delete when probe reports the object name is
// no longer live (e.g. glIsTexture).
func WithLivenessProbe(probe func(uint32) bool) GPUOption {
	return func(h *GPUHandle) {
		h.probe = probe
	}
}

func registerGPU(reg *registry.Registry, typ registry.Type, name uint32, deleteFn func(uint32), opts []GPUOption, regOpts []registry.RegisterOption) (*GPUHandle, string, error) {
	h := &GPUHandle{
		name:     name,
		kind:     typ,
		deleteFn: deleteFn,
	}
	for _, o := range opts {
		o(h)
	}

	// The box implements Releaser, so the registry selects it as the
	// cleanup handler. Deletion runs on the owner context because that is
	// where every mutation's handler runs.
	id, err := reg.Register(h, typ, regOpts...)
	if err != nil {
		return nil, "", err
	}
	return h, id, nil
}

// GPUTexture registers a texture name for tracked deletion.
func GPUTexture(reg *registry.Registry, name uint32, deleteFn func(uint32), opts ...GPUOption) (*GPUHandle, string, error) {
	return registerGPU(reg, registry.TypeTexture, name, deleteFn, opts, nil)
}

// GPUBuffer registers a buffer object name for tracked deletion.
func GPUBuffer(reg *registry.Registry, name uint32, deleteFn func(uint32), opts ...GPUOption) (*GPUHandle, string, error) {
	return registerGPU(reg, registry.TypeBuffer, name, deleteFn, opts, nil)
}

// GPUFramebuffer registers a framebuffer name for tracked deletion.
func GPUFramebuffer(reg *registry.Registry, name uint32, deleteFn func(uint32), opts ...GPUOption) (*GPUHandle, string, error) {
	return registerGPU(reg, registry.TypeFramebuffer, name, deleteFn, opts, nil)
}

// GPUShader registers a shader name for tracked deletion.
func GPUShader(reg *registry.Registry, name uint32, deleteFn func(uint32), opts ...GPUOption) (*GPUHandle, string, error) {
	return registerGPU(reg, registry.TypeShader, name, deleteFn, opts, nil)
}

// GPUProgram registers a program name for tracked deletion.
func GPUProgram(reg *registry.Registry, name uint32, deleteFn func(uint32), opts ...GPUOption) (*GPUHandle, string, error) {
	return registerGPU(reg, registry.TypeProgram, name, deleteFn, opts, nil)
}

// GPUSync registers a fence/sync object for tracked deletion.
func GPUSync(reg *registry.Registry, name uint32, deleteFn func(uint32), opts ...GPUOption) (*GPUHandle, string, error) {
	return registerGPU(reg, registry.TypeSyncObject, name, deleteFn, opts, nil)
}

// GPUContext registers a GL context itself. destroy runs once, after every
// object belonging to the context has had its chance: contexts sort behind
// textures and buffers only by explicit cleanup priority, so pass a low
// priority to the objects or a high one to the context.
func GPUContext(reg *registry.Registry, destroy func(), opts ...registry.RegisterOption) (*GPUHandle, string, error) {
	h := &GPUHandle{
		kind:     registry.TypeGLContext,
		deleteFn: func(uint32) { destroy() },
	}

	id, err := reg.Register(h, registry.TypeGLContext, opts...)
	if err != nil {
		return nil, "", err
	}
	return h, id, nil
}
