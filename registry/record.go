package registry

import (
	"math"
	"time"
)

// Type identifies what kind of external resource a record tracks.
type Type int

const (
	TypeCustom Type = iota

	// GUI-affinity objects
	TypeWindow
	TypeWidget
	TypeTimer
	TypeWorker

	// GPU handles
	TypeTexture
	TypeBuffer
	TypeFramebuffer
	TypeShader
	TypeProgram
	TypeSyncObject
	TypeGLContext

	// Filesystem / OS handles
	TypeFile
	TypeTempFile
	TypeTempDir
	TypeOSHandle

	// Network / database
	TypeNetworkConn
	TypeNetworkPool
	TypeDBConn
	TypeDBPool
)

// String returns the identifier prefix used for this type.
func (t Type) String() string {
	switch t {
	case TypeWindow:
		return "window"
	case TypeWidget:
		return "widget"
	case TypeTimer:
		return "timer"
	case TypeWorker:
		return "worker"
	case TypeTexture:
		return "texture"
	case TypeBuffer:
		return "buffer"
	case TypeFramebuffer:
		return "framebuffer"
	case TypeShader:
		return "shader"
	case TypeProgram:
		return "program"
	case TypeSyncObject:
		return "sync"
	case TypeGLContext:
		return "glcontext"
	case TypeFile:
		return "file"
	case TypeTempFile:
		return "tempfile"
	case TypeTempDir:
		return "tempdir"
	case TypeOSHandle:
		return "oshandle"
	case TypeNetworkConn:
		return "network"
	case TypeNetworkPool:
		return "netpool"
	case TypeDBConn:
		return "db"
	case TypeDBPool:
		return "dbpool"
	case TypeCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Group is the coarse category used only to order bulk cleanup.
// Declaration order is cleanup order: GUI objects go first so nothing
// repaints against dead backing resources, then connections, then GPU
// objects, then OS handles, then everything uncategorized.
type Group int

const (
	GroupGUI Group = iota
	GroupNetworkDB
	GroupGPU
	GroupFilesystem
	GroupOther
)

// String returns the group name as used in metadata hints.
func (g Group) String() string {
	switch g {
	case GroupGUI:
		return "gui"
	case GroupNetworkDB:
		return "network_db"
	case GroupGPU:
		return "gpu"
	case GroupFilesystem:
		return "filesystem"
	default:
		return "other"
	}
}

// Well-known metadata keys.
const (
	// MetaCleanupPriority orders records within a group during bulk
	// cleanup. Lower values are cleaned up first; records without a
	// priority are cleaned up last.
	MetaCleanupPriority = "cleanup_priority"

	// MetaGroup lets TypeCustom resources opt into a specific cleanup
	// group ("gui", "network_db", "gpu", "filesystem"). Ignored for
	// every other type, whose group is fixed.
	MetaGroup = "group"
)

// GroupFor derives the cleanup group for a type and its registration
// metadata. It is a pure function; a record's group is derived once at
// registration and never changes.
func GroupFor(t Type, metadata map[string]any) Group {
	switch t {
	case TypeWindow, TypeWidget, TypeTimer, TypeWorker:
		return GroupGUI
	case TypeNetworkConn, TypeNetworkPool, TypeDBConn, TypeDBPool:
		return GroupNetworkDB
	case TypeTexture, TypeBuffer, TypeFramebuffer, TypeShader,
		TypeProgram, TypeSyncObject, TypeGLContext:
		return GroupGPU
	case TypeFile, TypeTempFile, TypeTempDir, TypeOSHandle:
		return GroupFilesystem
	}

	if hint, ok := metadata[MetaGroup].(string); ok {
		for _, g := range []Group{GroupGUI, GroupNetworkDB, GroupGPU, GroupFilesystem} {
			if hint == g.String() {
				return g
			}
		}
	}
	return GroupOther
}

// Releaser is optionally implemented by resources that know how to release
// their own underlying handle. It takes precedence over io.Closer during
// handler selection and is expected to be idempotent.
type Releaser interface {
	Release()
}

// Record is the tracked metadata for one managed resource. Records are
// value types; the copies handed out in snapshots are immutable.
type Record struct {
	ID           string
	Type         Type
	Group        Group
	Description  string
	Metadata     map[string]any
	CreatedAt    time.Time
	LastAccessed time.Time

	// Refs is the advisory reference count. It never decides liveness;
	// it only arms the StillReferenced guard on Unregister.
	Refs int

	ref *weakRef
}

// CleanupPriority returns the record's within-group cleanup priority.
// Records without an explicit priority report the maximum value and are
// therefore cleaned up last in their group.
func (r *Record) CleanupPriority() int {
	switch v := r.Metadata[MetaCleanupPriority].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return math.MaxInt
}

// Alive reports whether the tracked resource is still reachable.
func (r *Record) Alive() bool {
	if r.ref == nil {
		return false
	}
	_, ok := r.ref.Value()
	return ok
}
