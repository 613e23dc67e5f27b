package upgrade

// IterSequence hands out instance identifiers A, B, ... Z, AA, AB, ...
// Identifiers are opaque to the scheduler; CompareIters gives them a natural order.
type IterSequence struct {
	next int
}

// Next returns the next unused identifier
func (s *IterSequence) Next() string {
	n := s.next
	s.next++

	var buf []byte
	for {
		buf = append([]byte{byte('A' + n%26)}, buf...)
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	return string(buf)
}

// CompareIters orders identifiers shortest first, then lexically, so "B" < "AA"
func CompareIters(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
