package types

// Pagination bounds shared by every list query.
const (
	DefaultPageLimit = 25
	MaxPageLimit     = 100
)

// PageLimit clamps a requested page size, substituting the default for zero.
func PageLimit(requested uint32) int {
	switch {
	case requested == 0:
		return DefaultPageLimit
	case requested > MaxPageLimit:
		return MaxPageLimit
	default:
		return int(requested)
	}
}
