//go:build unix

package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/openglass/resourced/registry"
)

func TestOSHandleClosesDescriptor(t *testing.T) {
	reg := registry.New()

	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	defer unix.Close(fds[1])

	h, id, err := OSHandle(reg, fds[0])
	require.NoError(t, err)
	require.Equal(t, fds[0], h.FD())

	rec, ok := reg.Snapshot().Lookup(id)
	require.True(t, ok)
	assert.Equal(t, registry.GroupFilesystem, rec.Group)

	_, err = reg.Unregister(id, false)
	require.NoError(t, err)

	// The descriptor is gone; a stat on it must fail with EBADF
	var st unix.Stat_t
	assert.Error(t, unix.Fstat(fds[0], &st))
}

func TestOSHandleReleaseIsIdempotent(t *testing.T) {
	reg := registry.New()

	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	defer unix.Close(fds[1])

	h, id, err := OSHandle(reg, fds[0])
	require.NoError(t, err)

	_, err = reg.Unregister(id, false)
	require.NoError(t, err)

	// A second close of the raw fd would be EBADF; the box absorbs it
	h.Release()
	assert.True(t, h.released.Load())
}
