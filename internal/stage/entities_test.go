package stage

import (
	"fmt"
	"testing"
	"time"
)

func newTestEntities() *EntitySystem {
	return NewEntitySystem(NewPhrasePool(nil), nil, 11)
}

func TestKeypressSpawnsShapeGlyphAndCooledFragment(t *testing.T) {
	es := newTestEntities()

	es.AddShapeAndFriends("a")
	es.AddShapeAndFriends("b")
	es.AddShapeAndFriends("c")

	shapes, glyphs, fragments := es.Counts()
	if shapes != 3 || glyphs != 3 {
		t.Fatalf("counts = (%d shapes, %d glyphs), want (3, 3)", shapes, glyphs)
	}
	// Only the first press beats the phrase cooldown.
	if fragments != 1 {
		t.Fatalf("fragments = %d, want 1 within cooldown window", fragments)
	}
}

func TestFragmentSpawnsAgainAfterCooldown(t *testing.T) {
	es := newTestEntities()
	es.AddShapeAndFriends("a")

	es.mu.Lock()
	es.lastFragment = time.Now().Add(-PhraseCooldown - time.Second)
	es.mu.Unlock()

	es.AddShapeAndFriends("b")
	if _, _, fragments := es.Counts(); fragments != 2 {
		t.Fatalf("fragments = %d, want 2 after cooldown elapsed", fragments)
	}
}

func TestFragmentTextComesFromPool(t *testing.T) {
	es := newTestEntities()
	es.AddShapeAndFriends("a")

	frags := es.Fragments()
	if len(frags) != 1 {
		t.Fatalf("fragments = %d, want 1", len(frags))
	}
	found := false
	for _, p := range fallbackPhrases {
		if frags[0].Text == p {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("fragment text %q not from the pool", frags[0].Text)
	}
}

func TestGlyphCarriesPressedKey(t *testing.T) {
	es := newTestEntities()
	es.AddShapeAndFriends("q")
	glyphs := es.Glyphs()
	if len(glyphs) != 1 || glyphs[0].Char != 'q' {
		t.Fatalf("glyph char = %q, want 'q'", glyphs[0].Char)
	}
}

func TestSweepRemovesExpiredOnly(t *testing.T) {
	es := newTestEntities()
	es.AddShapeAndFriends("a")
	es.AddShapeAndFriends("b")

	// Age the first shape past its lifetime; leave the rest alone.
	es.mu.Lock()
	es.shapes[0].CreatedAt = time.Now().Add(-time.Hour)
	es.mu.Unlock()

	removed := es.Sweep(time.Now())
	if removed != 1 {
		t.Fatalf("Sweep removed %d, want 1", removed)
	}
	shapes, glyphs, _ := es.Counts()
	if shapes != 1 || glyphs != 2 {
		t.Fatalf("counts after sweep = (%d, %d), want (1, 2)", shapes, glyphs)
	}
}

func TestSweepOnFreshEntitiesRemovesNothing(t *testing.T) {
	es := newTestEntities()
	es.AddShapeAndFriends("a")
	if removed := es.Sweep(time.Now()); removed != 0 {
		t.Fatalf("Sweep removed %d fresh entities", removed)
	}
}

func TestCollectionCapsDropOldest(t *testing.T) {
	var s []VisualEntity
	for i := 0; i < 10; i++ {
		s = appendCapped(s, VisualEntity{ID: uint64(i)}, 4)
	}
	if len(s) != 4 {
		t.Fatalf("len = %d, want 4", len(s))
	}
	for i, e := range s {
		if want := uint64(6 + i); e.ID != want {
			t.Fatalf("slot %d holds ID %d, want %d (oldest dropped first)", i, e.ID, want)
		}
	}
}

func TestShapeCapHolds(t *testing.T) {
	es := newTestEntities()
	es.mu.Lock()
	es.lastFragment = time.Now() // keep fragments quiet
	es.mu.Unlock()
	for i := 0; i < MaxShapes+50; i++ {
		es.AddShapeAndFriends(fmt.Sprintf("k%d", i))
	}
	shapes, glyphs, _ := es.Counts()
	if shapes != MaxShapes {
		t.Fatalf("shapes = %d, want cap %d", shapes, MaxShapes)
	}
	if glyphs != MaxGlyphs {
		t.Fatalf("glyphs = %d, want cap %d", glyphs, MaxGlyphs)
	}
}

func TestSpawnedFragmentIsSpoken(t *testing.T) {
	speaker := newFakeSpeaker()
	router := NewSpeechRouter(nil, nil, speaker)
	es := NewEntitySystem(NewPhrasePool(nil), router, 11)
	es.SetSpeech(true, ProviderSystem)

	es.AddShapeAndFriends("a")
	waitFor(t, speaker.notify, "spoken fragment")

	frags := es.Fragments()
	got := speaker.texts()
	if len(got) != 1 || len(frags) != 1 || got[0] != frags[0].Text {
		t.Fatalf("spoke %v, want the fragment text %q", got, frags[0].Text)
	}
}

func TestSpeechDisabledSpawnsSilently(t *testing.T) {
	speaker := newFakeSpeaker()
	router := NewSpeechRouter(nil, nil, speaker)
	es := NewEntitySystem(NewPhrasePool(nil), router, 11)
	es.SetSpeech(false, ProviderSystem)

	es.AddShapeAndFriends("a")
	time.Sleep(50 * time.Millisecond)
	if got := speaker.texts(); len(got) != 0 {
		t.Fatalf("spoke %v with speech disabled", got)
	}
}

func TestOpacityCurve(t *testing.T) {
	cases := []struct {
		kind EntityKind
		u    float64
		want float64
	}{
		{EntityShape, 0.0, 0},
		{EntityShape, ShapeFadeIn, 1},
		{EntityShape, 0.5, 1},
		{EntityShape, 1.0, 0},
		{EntityFragment, TextFadeIn, 1},
		{EntityFragment, 0.5, 1},
		{EntityFragment, 1.0, 0},
	}
	for _, c := range cases {
		got := opacityAt(c.kind, c.u)
		if diff := got - c.want; diff > 0.001 || diff < -0.001 {
			t.Fatalf("opacityAt(%v, %v) = %v, want %v", c.kind, c.u, got, c.want)
		}
	}
	// Mid-ramp values stay strictly between 0 and 1.
	if v := opacityAt(EntityShape, ShapeFadeIn/2); v <= 0 || v >= 1 {
		t.Fatalf("mid fade-in = %v, want in (0,1)", v)
	}
	if v := opacityAt(EntityShape, (ShapeFadeOut+1)/2); v <= 0 || v >= 1 {
		t.Fatalf("mid fade-out = %v, want in (0,1)", v)
	}
}

func TestUpdateMovesAndFades(t *testing.T) {
	es := newTestEntities()
	es.AddShapeAndFriends("a")

	es.mu.Lock()
	es.shapes[0].VX, es.shapes[0].VY, es.shapes[0].VZ = 1, 2, 3
	x0, y0, z0 := es.shapes[0].X, es.shapes[0].Y, es.shapes[0].Z
	es.mu.Unlock()

	es.Update(0.5, time.Now())

	es.mu.Lock()
	s := es.shapes[0]
	es.mu.Unlock()
	if s.X != x0+0.5 || s.Y != y0+1.0 || s.Z != z0+1.5 {
		t.Fatalf("position after update = (%v,%v,%v), want velocities integrated", s.X, s.Y, s.Z)
	}
	if s.Alpha < 0 || s.Alpha > 1 {
		t.Fatalf("alpha = %v, want in [0,1]", s.Alpha)
	}
}

func TestRenderDataBuffersAreSpriteAligned(t *testing.T) {
	es := newTestEntities()
	for _, k := range []string{"a", "b", "c"} {
		es.AddShapeAndFriends(k)
	}
	es.Update(0.01, time.Now())

	norm, glow := es.RenderData(nil, nil)
	if len(norm)%8 != 0 || len(glow)%8 != 0 {
		t.Fatalf("buffer lengths %d/%d not multiples of 8", len(norm), len(glow))
	}
	if len(norm) == 0 {
		t.Fatal("no normal sprites for three live shapes")
	}
}
