package utils

// Clone returns a pointer to a shallow copy of *v, or nil when v is nil.
func Clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

