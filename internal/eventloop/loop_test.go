//go:build linux

package eventloop

import (
	"testing"

	"golang.org/x/sys/unix"
)

func newTestLoop(t *testing.T) *Loop {
	t.Helper()
	l, err := New(nil)
	if err != nil {
		t.Fatalf("new loop: %v", err)
	}
	t.Cleanup(l.Close)
	return l
}

func TestPost_RunsInOrder(t *testing.T) {
	l := newTestLoop(t)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}

	if err := l.Dispatch(0); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 callbacks, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("expected callback %d at index %d, got %d", i, i, v)
		}
	}
}

func TestPost_FromCallbackRunsSameIteration(t *testing.T) {
	l := newTestLoop(t)

	ran := false
	l.Post(func() {
		l.Post(func() { ran = true })
	})

	if err := l.Dispatch(0); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !ran {
		t.Fatalf("nested post did not run")
	}
}

func TestReadSource_FiresOnReadable(t *testing.T) {
	l := newTestLoop(t)

	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer unix.Close(p[0])
	defer unix.Close(p[1])

	fired := 0
	if err := l.AddReadSource(p[0], func() {
		fired++
		var buf [8]byte
		unix.Read(p[0], buf[:])
		l.RemoveReadSource(p[0])
	}); err != nil {
		t.Fatalf("add source: %v", err)
	}

	if _, err := unix.Write(p[1], []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Dispatch(1000); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if fired != 1 {
		t.Fatalf("expected source to fire once, got %d", fired)
	}

	// The source removed itself; more data must not call it again.
	if _, err := unix.Write(p[1], []byte("y")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Dispatch(0); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if fired != 1 {
		t.Fatalf("expected no further fires, got %d", fired)
	}
}

func TestCallbackPanicIsRecovered(t *testing.T) {
	l := newTestLoop(t)

	ran := false
	l.Post(func() { panic("boom") })
	l.Post(func() { ran = true })

	if err := l.Dispatch(0); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !ran {
		t.Fatalf("callback after panic did not run")
	}
}

func TestDuplicateSourceRejected(t *testing.T) {
	l := newTestLoop(t)

	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer unix.Close(p[0])
	defer unix.Close(p[1])

	if err := l.AddReadSource(p[0], func() {}); err != nil {
		t.Fatalf("add source: %v", err)
	}
	if err := l.AddReadSource(p[0], func() {}); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}
