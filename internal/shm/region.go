// Package shm manages the named shared memory region the bridge publishes into.
//
// A Region is an explicit handle with an attach/detach lifecycle: the producer
// creates (or re-attaches to) the mapping by name at session start, consumers
// open an existing mapping, and both detach with Close. On unix systems the
// region is a file under a tmpfs directory (default /dev/shm) mapped with
// MAP_SHARED, so any process that maps the same name sees the same bytes.
package shm

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"
)

// DefaultDir is where named regions live on Linux.
const DefaultDir = "/dev/shm"

var (
	// ErrUnavailable is returned when the region cannot be created or mapped.
	ErrUnavailable = errors.New("shm: region unavailable")

	// ErrSize is returned when an existing mapping is smaller than required.
	ErrSize = errors.New("shm: region too small")

	// ErrUnsupported is returned on platforms without mmap support.
	ErrUnsupported = errors.New("shm: shared memory not supported on this platform")

	// ErrClosed is returned when using a detached region.
	ErrClosed = errors.New("shm: region closed")
)

// Region is an attached shared memory mapping.
type Region struct {
	name string
	path string

	mu     sync.Mutex
	data   []byte
	words  []uint32
	unmap  func() error
	closed bool
}

// NewMemory returns a process-local region backed by ordinary memory.
// It behaves like a mapped region and is used by tests and in-process setups.
func NewMemory(name string, size int) *Region {
	buf := make([]uint32, (size+3)/4)
	r := &Region{
		name:  name,
		words: buf,
		unmap: func() error { return nil },
	}
	if len(buf) > 0 {
		r.data = unsafe.Slice((*byte)(unsafe.Pointer(&buf[0])), len(buf)*4)
	}
	return r
}

// fromMapping wraps mapped bytes into a region. The mapping must be 4-byte aligned,
// which holds for anything returned by mmap.
func fromMapping(name, path string, data []byte, unmap func() error) *Region {
	r := &Region{
		name:  name,
		path:  path,
		data:  data,
		unmap: unmap,
	}
	if len(data) >= 4 {
		r.words = unsafe.Slice((*uint32)(unsafe.Pointer(unsafe.SliceData(data))), len(data)/4)
	}
	return r
}

// Name returns the region name.
func (r *Region) Name() string {
	return r.name
}

// Path returns the backing file path, or "" for memory regions.
func (r *Region) Path() string {
	return r.path
}

// Size returns the mapped size in bytes.
func (r *Region) Size() int {
	return len(r.data)
}

// Words returns the mapping viewed as native-endian 32-bit words.
// Every protocol field is one word.
func (r *Region) Words() []uint32 {
	return r.words
}

// Close detaches the region. The backing file is left in place so other
// processes keep their mappings; use Remove to delete it.
// Safe to call multiple times.
func (r *Region) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	err := r.unmap()
	r.data = nil
	r.words = nil
	if err != nil {
		return fmt.Errorf("shm: unmap %s: %w", r.name, err)
	}
	return nil
}

// validateName rejects names that would escape the region directory.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty region name", ErrUnavailable)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: invalid region name %q", ErrUnavailable, name)
	}
	return nil
}
