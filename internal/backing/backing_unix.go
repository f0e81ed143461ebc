//go:build unix

package backing

import (
	"errors"

	"golang.org/x/sys/unix"
)

// mapAnon maps size bytes of private anonymous memory.
func mapAnon(size int) ([]byte, func() error, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() error {
		err := unix.Munmap(data)
		if errors.Is(err, unix.EINVAL) {
			// Treat double-unmap as no-op for callers.
			return nil
		}
		return err
	}
	return data, cleanup, nil
}
