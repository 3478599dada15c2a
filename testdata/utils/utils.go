package utils

// Ptr returns a pointer to v. Handy for building fixtures with optional fields.
func Ptr[T any](v T) *T {
	return &v
}
