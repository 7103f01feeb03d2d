//go:build linux

// Package eventloop implements the single-threaded cooperative loop that owns
// all display state. Callbacks posted from other goroutines run on the loop
// goroutine in arrival order; fd readiness sources wake the loop when a
// registered descriptor becomes readable.
package eventloop

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrClosed is returned when operations are attempted on a stopped loop.
var ErrClosed = errors.New("eventloop: loop is closed")

const maxEpollEvents = 32

// Loop is a single-threaded dispatcher. Run must be called from exactly one
// goroutine; that goroutine is the only one allowed to touch state owned by
// the loop's callbacks.
type Loop struct {
	epfd   int
	wakeFd int
	logger *slog.Logger

	mu     sync.Mutex
	idle   []func()
	closed bool

	// sources is only touched from the loop goroutine.
	sources map[int]func()

	stopping bool
}

// New creates a loop backed by an epoll instance and an eventfd wakeup
// channel.
func New(logger *slog.Logger) (*Loop, error) {
	if logger == nil {
		logger = slog.Default()
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("eventloop: epoll_create1: %w", err)
	}
	wakeFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventloop: eventfd: %w", err)
	}

	l := &Loop{
		epfd:    epfd,
		wakeFd:  wakeFd,
		logger:  logger,
		sources: make(map[int]func()),
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakeFd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFd, &ev); err != nil {
		l.Close()
		return nil, fmt.Errorf("eventloop: register wakeup fd: %w", err)
	}
	return l, nil
}

// Post schedules fn to run on the loop goroutine. It is safe to call from any
// goroutine. Callbacks run in posting order.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.idle = append(l.idle, fn)
	l.mu.Unlock()
	l.wake()
}

// AddReadSource registers fn to be invoked on the loop goroutine whenever fd
// becomes readable. Must be called from the loop goroutine.
func (l *Loop) AddReadSource(fd int, fn func()) error {
	if fd < 0 {
		return fmt.Errorf("eventloop: invalid fd %d", fd)
	}
	if _, ok := l.sources[fd]; ok {
		return fmt.Errorf("eventloop: fd %d already registered", fd)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("eventloop: register fd %d: %w", fd, err)
	}
	l.sources[fd] = fn
	return nil
}

// RemoveReadSource unregisters fd. Removing an unknown fd is a no-op. Must be
// called from the loop goroutine.
func (l *Loop) RemoveReadSource(fd int) {
	if _, ok := l.sources[fd]; !ok {
		return
	}
	delete(l.sources, fd)
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		l.logger.Warn("eventloop: failed to unregister fd", "fd", fd, "error", err)
	}
}

// Run dispatches until Stop is called.
func (l *Loop) Run() error {
	for !l.stopping {
		if err := l.Dispatch(-1); err != nil {
			return err
		}
	}
	return nil
}

// Dispatch runs a single loop iteration: waits up to timeoutMs (-1 blocks)
// for readiness or posted callbacks, then drains the idle queue. A panic in a
// callback is recovered and logged; it never takes the loop down.
func (l *Loop) Dispatch(timeoutMs int) error {
	var events [maxEpollEvents]unix.EpollEvent
	n, err := unix.EpollWait(l.epfd, events[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return fmt.Errorf("eventloop: epoll_wait: %w", err)
	}

	for i := 0; i < n; i++ {
		fd := int(events[i].Fd)
		if fd == l.wakeFd {
			l.drainWake()
			continue
		}
		// The callback may remove itself (or another source) mid-dispatch.
		if fn, ok := l.sources[fd]; ok {
			l.invoke(fn)
		}
	}

	l.runIdle()
	return nil
}

// Stop requests loop termination. Pending idle callbacks run before Run
// returns.
func (l *Loop) Stop() {
	l.Post(func() { l.stopping = true })
}

// Close releases the loop's descriptors. The loop must not be dispatched
// afterwards.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	unix.Close(l.wakeFd)
	unix.Close(l.epfd)
}

func (l *Loop) runIdle() {
	for {
		l.mu.Lock()
		if len(l.idle) == 0 {
			l.mu.Unlock()
			return
		}
		queue := l.idle
		l.idle = nil
		l.mu.Unlock()

		for _, fn := range queue {
			l.invoke(fn)
		}
	}
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("eventloop: callback panic recovered", "error", r)
		}
	}()
	fn()
}

func (l *Loop) wake() {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	// EAGAIN means the counter is already nonzero; the loop will wake anyway.
	_, _ = unix.Write(l.wakeFd, buf[:])
}

func (l *Loop) drainWake() {
	var buf [8]byte
	for {
		_, err := unix.Read(l.wakeFd, buf[:])
		if err != nil {
			return
		}
	}
}
