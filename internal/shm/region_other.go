//go:build !unix

package shm

// Create is not available on this platform; the producer runs with the bridge disabled.
func Create(dir, name string, size int) (*Region, error) {
	return nil, ErrUnsupported
}

// Open is not available on this platform.
func Open(dir, name string, size int) (*Region, error) {
	return nil, ErrUnsupported
}

// Remove is not available on this platform.
func Remove(dir, name string) error {
	return ErrUnsupported
}
