package comp

import (
	"github.com/Dirli-V/scape/internal/geometry"
)

// Role describes what a surface is used for. A surface acquires its role on
// first use and keeps it until destruction.
type Role int

const (
	RoleNone Role = iota
	RoleToplevel
	RolePopup
	RoleLayer
	RoleCursor
	RoleDragIcon
	RoleLock
	RoleSubsurface
)

// Buffer is a client-attached GPU buffer. The pixels themselves are the
// renderer's business; the core only cares about the size and the readiness
// descriptors. A negative descriptor means the path is absent.
type Buffer struct {
	Size geometry.Size

	// SyncFD is an explicit sync-point descriptor that becomes readable when
	// the buffer contents are ready.
	SyncFD int

	// FenceFD is an implicit completion fence exported from the buffer.
	FenceFD int
}

// NewBuffer returns a buffer without synchronization requirements.
func NewBuffer(size geometry.Size) *Buffer {
	return &Buffer{Size: size, SyncFD: -1, FenceFD: -1}
}

// surfaceState is the double-buffered per-commit state.
type surfaceState struct {
	buffer       *Buffer
	hasNewBuffer bool
	delta        geometry.Point
}

// ResizeKind enumerates the per-surface interactive resize states.
type ResizeKind int

const (
	NotResizing ResizeKind = iota
	Resizing
	WaitingForCommit
)

func (k ResizeKind) String() string {
	switch k {
	case Resizing:
		return "resizing"
	case WaitingForCommit:
		return "waiting-for-commit"
	default:
		return "not-resizing"
	}
}

// ResizeData records the grab-start snapshot an interactive resize works
// from.
type ResizeData struct {
	Edges           geometry.Edges
	InitialLocation geometry.Point
	InitialSize     geometry.Size
}

// ResizeState is the per-surface resize state machine. It exists implicitly:
// the zero value is NotResizing.
type ResizeState struct {
	Kind ResizeKind
	Data ResizeData
}

// Surface is a client-owned drawable. It is created on first client
// reference and destroyed when the client releases it; it never outlives its
// client connection.
type Surface struct {
	id     SurfaceID
	client ClientID
	role   Role

	parent   *Surface
	children []*Surface

	pending surfaceState
	current surfaceState

	size  geometry.Size
	alive bool

	sink      EventSink
	configure ConfigureFunc

	initialConfigureSent bool

	// Resize is owned by the loop goroutine; the interop bridge drives the
	// transitions, the commit pipeline finishes them.
	Resize ResizeState
}

// ID returns the surface identifier.
func (s *Surface) ID() SurfaceID { return s.id }

// Client returns the owning client.
func (s *Surface) Client() ClientID { return s.client }

// Role returns the surface's role.
func (s *Surface) Role() Role { return s.role }

// Alive reports whether the surface still exists on the client side.
func (s *Surface) Alive() bool { return s.alive }

// Size returns the current (applied) surface size.
func (s *Surface) Size() geometry.Size { return s.size }

// Parent returns the parent surface, or nil for a tree root.
func (s *Surface) Parent() *Surface { return s.parent }

// Root walks up the tree relation to the surface tree root.
func (s *Surface) Root() *Surface {
	root := s
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// Sink returns the surface's input sink.
func (s *Surface) Sink() EventSink { return s.sink }

// SetSink attaches the transport's event sink.
func (s *Surface) SetSink(sink EventSink) {
	if sink == nil {
		sink = discardSink{}
	}
	s.sink = sink
}

// SetConfigure attaches the transport's configure delivery.
func (s *Surface) SetConfigure(fn ConfigureFunc) {
	s.configure = fn
}

// InitialConfigureSent reports whether the protocol handshake's first
// configure went out. A surface is not eligible for mapping before that.
func (s *Surface) InitialConfigureSent() bool { return s.initialConfigureSent }

// AttachBuffer stages a buffer assignment with a positional delta for the
// next commit. Passing nil stages a buffer removal.
func (s *Surface) AttachBuffer(buf *Buffer, delta geometry.Point) {
	s.pending.buffer = buf
	s.pending.hasNewBuffer = true
	s.pending.delta = s.pending.delta.Add(delta)
}

// CurrentBuffer returns the applied buffer, nil when none is attached.
func (s *Surface) CurrentBuffer() *Buffer { return s.current.buffer }

// takePending snapshots and clears the staged state.
func (s *Surface) takePending() surfaceState {
	out := s.pending
	s.pending = surfaceState{}
	return out
}
