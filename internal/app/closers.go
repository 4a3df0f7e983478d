package app

// closers releases resources in reverse order of acquisition. Every closer
// runs; the first error is returned.
type closers []func() error

func (c *closers) add(fn func() error) {
	*c = append(*c, fn)
}

func (c closers) closeAll() error {
	var firstErr error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
