package stage

import (
	"math"
	"time"
)

// Per-kind fade curve parameters: fraction of lifetime spent ramping in,
// and the fraction past which the ramp out begins. Shapes/glyphs and text
// differ slightly on purpose; see config.go.
func fadeThresholds(kind EntityKind) (in, out float64) {
	if kind == EntityFragment {
		return TextFadeIn, TextFadeOut
	}
	return ShapeFadeIn, ShapeFadeOut
}

// opacityAt computes the fade curve at normalized age u in [0,1]:
// linear ramp in, hold, linear ramp out.
func opacityAt(kind EntityKind, u float64) float64 {
	in, out := fadeThresholds(kind)
	switch {
	case u <= 0 || u >= 1:
		return 0
	case u < in:
		return u / in
	case u > out:
		return (1 - u) / (1 - out)
	}
	return 1
}

// Update advances kinematics and opacity for every live entity. Runs once
// per frame on the frame-loop goroutine; spatial state and Alpha are the
// only fields it mutates.
func (es *EntitySystem) Update(dt float64, now time.Time) {
	if dt <= 0 {
		return
	}
	es.mu.Lock()
	defer es.mu.Unlock()
	updateSlice(es.shapes, dt, now)
	updateSlice(es.glyphs, dt, now)
	updateSlice(es.fragments, dt, now)
}

func updateSlice(s []VisualEntity, dt float64, now time.Time) {
	for i := range s {
		e := &s[i]
		e.X += e.VX * dt
		e.Y += e.VY * dt
		e.Z += e.VZ * dt
		e.Rot += e.RotSpeed * dt
		if e.LifeTime > 0 {
			e.Alpha = opacityAt(e.Kind, e.age(now)/e.LifeTime)
		} else {
			e.Alpha = 1
		}
	}
}

// RenderData flattens live entities into point-sprite buffers for the
// render pipeline: [x, y, size, r, g, b, a, rotation] per sprite, split
// into normal (alpha blend) and glow (additive) passes. Buffers are reused
// across frames to avoid per-frame allocations.
func (es *EntitySystem) RenderData(normBuf, glowBuf []float32) ([]float32, []float32) {
	normBuf = normBuf[:0]
	glowBuf = glowBuf[:0]

	es.mu.Lock()
	defer es.mu.Unlock()

	for i := range es.shapes {
		e := &es.shapes[i]
		if e.Alpha <= 0 {
			continue
		}
		x, y, size := project(e)
		a := float32(e.Alpha)
		normBuf = append(normBuf,
			x, y, size,
			float32(e.Col.R)/255, float32(e.Col.G)/255, float32(e.Col.B)/255,
			a, float32(e.Rot))
		// Soft halo behind every shape, pre-multiplied for additive blend.
		glowBuf = append(glowBuf,
			x, y, size*2.4,
			float32(e.Col.R)/255*a*0.35, float32(e.Col.G)/255*a*0.35, float32(e.Col.B)/255*a*0.35,
			1, 0)
	}
	for i := range es.glyphs {
		e := &es.glyphs[i]
		if e.Alpha <= 0 {
			continue
		}
		x, y, size := project(e)
		normBuf = append(normBuf,
			x, y, size*0.7,
			float32(e.Col.R)/255, float32(e.Col.G)/255, float32(e.Col.B)/255,
			float32(e.Alpha), float32(e.Rot))
	}
	for i := range es.fragments {
		e := &es.fragments[i]
		if e.Alpha <= 0 {
			continue
		}
		x, y, size := project(e)
		a := float32(e.Alpha)
		glowBuf = append(glowBuf,
			x, y, size*3.0,
			float32(e.Col.R)/255*a*0.5, float32(e.Col.G)/255*a*0.5, float32(e.Col.B)/255*a*0.5,
			1, 0)
	}
	return normBuf, glowBuf
}

// Fragments returns a snapshot of the live text fragments for the text
// overlay pass (phrase, position, alpha).
func (es *EntitySystem) Fragments() []VisualEntity {
	es.mu.Lock()
	defer es.mu.Unlock()
	out := make([]VisualEntity, len(es.fragments))
	copy(out, es.fragments)
	return out
}

// Glyphs returns a snapshot of the live glyph entities so the text overlay
// can draw their characters over the sprite auras.
func (es *EntitySystem) Glyphs() []VisualEntity {
	es.mu.Lock()
	defer es.mu.Unlock()
	out := make([]VisualEntity, len(es.glyphs))
	copy(out, es.glyphs)
	return out
}

// project maps a world-space entity to screen-ish coordinates with a cheap
// perspective divide. The render pipeline owns the real projection; this
// just keeps nearer entities larger and centered consistently.
func project(e *VisualEntity) (x, y, size float32) {
	depth := clampF(-e.Z, 4, StarFieldDepth)
	persp := 240.0 / depth
	x = float32(e.X * persp)
	y = float32(e.Y * persp)
	size = float32(math.Max(1.2, e.Scale*6.0*persp))
	return
}
