package surfaces

import "fmt"

// StructuralError reports a malformed surface chain before any ray moves.
// Surface is the offending index, or -1 for a group-level problem.
type StructuralError struct {
	Surface int
	Param   string
	Reason  string
}

func (e *StructuralError) Error() string {
	if e.Surface < 0 {
		return fmt.Sprintf("surfaces: %s: %s", e.Param, e.Reason)
	}
	return fmt.Sprintf("surfaces: surface %d: %s: %s", e.Surface, e.Param, e.Reason)
}
