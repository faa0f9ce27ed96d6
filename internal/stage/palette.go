package stage

// RGB is an 8-bit per channel colour.
type RGB struct {
	R, G, B uint8
}

func lerpU8(a, b uint8, t float64) uint8 {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

func lerpRGB(a, b RGB, t float64) RGB {
	return RGB{R: lerpU8(a.R, b.R, t), G: lerpU8(a.G, b.G, t), B: lerpU8(a.B, b.B, t)}
}

// shapePalette is the fixed colour set for spawned shapes and glyphs.
var shapePalette = []RGB{
	{R: 255, G: 94, B: 120},  // rose
	{R: 255, G: 170, B: 64},  // amber
	{R: 250, G: 240, B: 120}, // pale gold
	{R: 120, G: 240, B: 160}, // mint
	{R: 90, G: 200, B: 255},  // sky
	{R: 150, G: 120, B: 255}, // violet
	{R: 255, G: 120, B: 230}, // magenta
	{R: 235, G: 240, B: 250}, // near white
}

// Scene tint endpoints: star colour drifts between these with depth.
var (
	starNear = RGB{R: 245, G: 248, B: 255}
	starFar  = RGB{R: 120, G: 140, B: 200}
)

// fragmentColor is the fixed tint for text fragments.
var fragmentColor = RGB{R: 220, G: 228, B: 255}
