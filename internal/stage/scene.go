package stage

import "math"

// Scene is the generative dressing behind the instrument: a drifting
// starfield and a few slow planets. Stars are immortal and recycled at the
// far plane rather than swept; they live outside the EntitySystem on the
// frame-loop goroutine only, so no locking is needed.
type Scene struct {
	stars   []VisualEntity
	planets []VisualEntity
	rng     *Rand

	// Warp rises while beats run and relaxes toward idle otherwise.
	Warp     float64
	warpGoal float64
	Glow     float64
	t        float64
}

func NewScene(seed uint64) *Scene {
	s := &Scene{
		rng:      NewRand(seed),
		Warp:     WarpIdle,
		warpGoal: WarpIdle,
		Glow:     GlowIntensityDim,
	}
	s.stars = make([]VisualEntity, 0, StarBaseCount)
	for i := 0; i < StarBaseCount; i++ {
		s.stars = append(s.stars, s.newStar(true))
	}
	for i := 0; i < PlanetCount; i++ {
		s.planets = append(s.planets, VisualEntity{
			Kind:     EntityPlanet,
			X:        s.rng.RangeF(-70, 70),
			Y:        s.rng.RangeF(-40, 40),
			Z:        s.rng.RangeF(-260, -120),
			RotSpeed: s.rng.RangeF(0.02, 0.11),
			Scale:    s.rng.RangeF(8, 26),
			Col:      shapePalette[s.rng.Intn(len(shapePalette))],
			Alpha:    1,
		})
	}
	return s
}

func (s *Scene) newStar(anyDepth bool) VisualEntity {
	z := -StarFieldDepth
	if anyDepth {
		z = -s.rng.RangeF(10, StarFieldDepth)
	}
	depth := s.rng.Float64()
	return VisualEntity{
		Kind:  EntityStar,
		X:     s.rng.RangeF(-160, 160),
		Y:     s.rng.RangeF(-100, 100),
		Z:     z,
		Depth: depth,
		Scale: s.rng.RangeF(0.4, 1.6),
		Col:   lerpRGB(starFar, starNear, depth),
		Alpha: 1,
	}
}

// SetBeating nudges the warp/glow goals; actual values ease per frame.
func (s *Scene) SetBeating(beating bool) {
	if beating {
		s.warpGoal = WarpBeating
	} else {
		s.warpGoal = WarpIdle
	}
}

// Pulse kicks glow briefly, used on percussion hits and key presses.
func (s *Scene) Pulse() {
	s.Glow = GlowIntensityHot
}

// Update advances stars toward the camera (warp streaking) and relaxes
// warp/glow toward their goals.
func (s *Scene) Update(dt float64) {
	if dt <= 0 {
		return
	}
	s.t += dt
	s.Warp = approach(s.Warp, s.warpGoal, WarpRelaxRate*dt)
	s.Glow = approach(s.Glow, GlowIntensityDim, 0.8*dt)

	speed := 18.0 + 320.0*s.Warp*s.Warp
	for i := range s.stars {
		st := &s.stars[i]
		st.Z += speed * (0.3 + 0.7*st.Depth) * dt
		if st.Z > -4 {
			*st = s.newStar(false)
		}
	}
	for i := range s.planets {
		p := &s.planets[i]
		p.Rot += p.RotSpeed * dt
		p.X += math.Sin(s.t*0.03+float64(i)) * 0.02
	}
}

// RenderData appends starfield and planet sprites. Stars go in the glow
// (additive) pass; brighter and slightly streaked as warp rises.
func (s *Scene) RenderData(normBuf, glowBuf []float32) ([]float32, []float32) {
	for i := range s.stars {
		st := &s.stars[i]
		x, y, size := project(st)
		bright := float32((0.25 + 0.75*st.Depth) * (0.5 + 0.5*s.Warp) * s.Glow)
		glowBuf = append(glowBuf,
			x, y, size,
			float32(st.Col.R)/255*bright, float32(st.Col.G)/255*bright, float32(st.Col.B)/255*bright,
			1, 0)
	}
	for i := range s.planets {
		p := &s.planets[i]
		x, y, size := project(p)
		normBuf = append(normBuf,
			x, y, size,
			float32(p.Col.R)/255, float32(p.Col.G)/255, float32(p.Col.B)/255,
			0.9, float32(p.Rot))
	}
	return normBuf, glowBuf
}
