package prettyprinter

import "fmt"

// Binary renders the low width bits of v, zero-padded. width is clamped to
// 1..16.
func Binary(v int16, width int) string {
	width = min(max(width, 1), 16)
	mask := uint32(1)<<width - 1
	return fmt.Sprintf("%0*b", width, uint32(uint16(v))&mask)
}
