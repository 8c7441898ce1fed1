package parser

// SplitNibbles splits a wire byte into its upper and lower 4-bit halves.
func SplitNibbles(b byte) (upper, lower uint8) {
	return b >> 4, b & 0x0F
}

// PackNibbles is the inverse of SplitNibbles. Values above 15 are masked.
func PackNibbles(upper, lower uint8) byte {
	return (upper&0x0F)<<4 | lower&0x0F
}
