//go:build unix

package shm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Create attaches to the named region as its producer, creating the backing
// file when missing and growing it to size bytes. An existing region is
// reused so a restarted producer picks up consumers that are already waiting.
func Create(dir, name string, size int) (*Region, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if dir == "" {
		dir = DefaultDir
	}
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, path, err)
	}
	defer f.Close()

	if err := unix.Ftruncate(int(f.Fd()), int64(size)); err != nil {
		return nil, fmt.Errorf("%w: truncate %s: %v", ErrUnavailable, path, err)
	}

	return mapFile(f, name, path, size)
}

// Open attaches to an existing region as a consumer.
// The region must already exist and be at least size bytes long.
func Open(dir, name string, size int) (*Region, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if dir == "" {
		dir = DefaultDir
	}
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist (is the producer running?)", ErrUnavailable, path)
		}
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", ErrUnavailable, path, err)
	}
	if info.Size() < int64(size) {
		return nil, fmt.Errorf("%w: %s is %d bytes, need %d", ErrSize, path, info.Size(), size)
	}

	return mapFile(f, name, path, size)
}

// Remove deletes the backing file of a named region.
// Existing mappings stay valid until they are closed.
func Remove(dir, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("shm: remove %s: %w", name, err)
	}
	return nil
}

func mapFile(f *os.File, name, path string, size int) (*Region, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %s: %v", ErrUnavailable, path, err)
	}
	return fromMapping(name, path, data, func() error {
		return unix.Munmap(data)
	}), nil
}
