package graphics

// Color is a 24-bit rgb color, used by both the terminal theme
// (truecolor escapes) and the png preview.
type Color struct {
	R, G, B uint8
}
