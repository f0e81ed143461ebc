//go:build !unix

package backing

// mapAnon falls back to a heap slice when mmap is not available.
func mapAnon(size int) ([]byte, func() error, error) {
	return make([]byte, size), nil, nil
}
