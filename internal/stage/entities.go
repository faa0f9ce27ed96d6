package stage

import (
	"sync"
	"time"
)

// EntityKind discriminates the closed set of visual entity variants.
type EntityKind uint8

const (
	EntityShape EntityKind = iota
	EntityGlyph
	EntityFragment
	EntityStar
	EntityPlanet
)

// ShapeForm is the geometric flavour of a shape entity, picked uniformly at
// spawn.
type ShapeForm uint8

const (
	ShapeTetra ShapeForm = iota
	ShapeCube
	ShapeOcta
	ShapeTorus
	ShapeSpike
	ShapeShard
	shapeFormCount
)

// VisualEntity is one time-bounded animated object. Defining fields are
// immutable after creation; spatial state and opacity are mutated every
// frame by the update loop. Visible iff age < LifeTime.
type VisualEntity struct {
	ID   uint64
	Kind EntityKind

	X, Y, Z    float64
	VX, VY, VZ float64
	Rot        float64
	RotSpeed   float64
	Scale      float64

	Col   RGB
	Alpha float64
	Form  ShapeForm // shapes only
	Char  rune      // glyphs only
	Text  string    // fragments only
	Depth float64   // stars only: parallax layer

	CreatedAt time.Time
	LifeTime  float64 // seconds; <=0 means immortal (scene dressing)
}

// age returns seconds since spawn.
func (e *VisualEntity) age(now time.Time) float64 {
	return now.Sub(e.CreatedAt).Seconds()
}

// Expired reports whether the entity's lifetime has run out.
func (e *VisualEntity) Expired(now time.Time) bool {
	return e.LifeTime > 0 && e.age(now) >= e.LifeTime
}

// EntitySystem owns the live collections. Spawning appends under a cap
// (oldest dropped beyond it); a periodic sweep removes expired entries; the
// frame loop mutates spatial state in place. All access goes through mu so
// the sweep timer and the frame loop never tear an iteration.
type EntitySystem struct {
	mu        sync.Mutex
	shapes    []VisualEntity
	glyphs    []VisualEntity
	fragments []VisualEntity

	nextID       uint64
	rng          *Rand
	lastFragment time.Time

	pool           *PhrasePool
	speech         *SpeechRouter
	speakFragments bool
	provider       SpeechProvider
}

func NewEntitySystem(pool *PhrasePool, speech *SpeechRouter, seed uint64) *EntitySystem {
	return &EntitySystem{
		rng:            NewRand(seed),
		pool:           pool,
		speech:         speech,
		speakFragments: true,
		provider:       ProviderCloud,
	}
}

// SetSpeech configures whether newly spawned fragments are spoken and by
// which provider.
func (es *EntitySystem) SetSpeech(enabled bool, provider SpeechProvider) {
	es.mu.Lock()
	es.speakFragments = enabled
	es.provider = provider
	es.mu.Unlock()
}

// AddShapeAndFriends spawns the entities for one qualifying input event:
// always one shape and one flying glyph; plus one text fragment when the
// phrase cooldown has elapsed, optionally routed to speech. Voice
// allocation is idempotent per key but entity creation deliberately is not.
func (es *EntitySystem) AddShapeAndFriends(key string) {
	now := time.Now()

	es.mu.Lock()
	rng := es.rng

	shape := VisualEntity{
		ID:        es.takeID(),
		Kind:      EntityShape,
		X:         rng.RangeF(-34, 34),
		Y:         rng.RangeF(-20, 20),
		Z:         rng.RangeF(-60, -18),
		VX:        rng.RangeF(-2.4, 2.4),
		VY:        rng.RangeF(-1.8, 2.6),
		VZ:        rng.RangeF(-1.0, 3.2),
		Rot:       rng.RangeF(0, 6.28),
		RotSpeed:  rng.RangeF(-1.6, 1.6),
		Scale:     rng.RangeF(0.6, 2.8),
		Col:       shapePalette[rng.Intn(len(shapePalette))],
		Form:      ShapeForm(rng.Intn(int(shapeFormCount))),
		CreatedAt: now,
		LifeTime:  rng.RangeF(ShapeLifeMin, ShapeLifeMax),
	}
	es.shapes = appendCapped(es.shapes, shape, MaxShapes)

	glyph := VisualEntity{
		ID:        es.takeID(),
		Kind:      EntityGlyph,
		X:         rng.RangeF(-30, 30),
		Y:         rng.RangeF(-24, -10),
		Z:         rng.RangeF(-40, -12),
		VX:        rng.RangeF(-1.2, 1.2),
		VY:        rng.RangeF(3.0, 7.5),
		VZ:        rng.RangeF(-0.5, 0.5),
		RotSpeed:  rng.RangeF(-3.0, 3.0),
		Scale:     rng.RangeF(0.8, 1.8),
		Col:       shapePalette[rng.Intn(len(shapePalette))],
		Char:      glyphRune(key, rng),
		CreatedAt: now,
		LifeTime:  rng.RangeF(GlyphLifeMin, GlyphLifeMax),
	}
	es.glyphs = appendCapped(es.glyphs, glyph, MaxGlyphs)

	spawnFragment := now.Sub(es.lastFragment) > PhraseCooldown
	var phrase string
	var speak bool
	var provider SpeechProvider
	if spawnFragment {
		es.lastFragment = now
		phrase = es.pool.NextPhrase(rng)
		frag := VisualEntity{
			ID:        es.takeID(),
			Kind:      EntityFragment,
			X:         rng.RangeF(-18, 18),
			Y:         rng.RangeF(-6, 12),
			Z:         rng.RangeF(-30, -14),
			VX:        rng.RangeF(-0.4, 0.4),
			VY:        rng.RangeF(0.4, 1.1),
			Scale:     rng.RangeF(0.9, 1.4),
			Col:       fragmentColor,
			Text:      phrase,
			CreatedAt: now,
			LifeTime:  rng.RangeF(FragmentLifeMin, FragmentLifeMax),
		}
		es.fragments = appendCapped(es.fragments, frag, MaxFragments)
		speak = es.speakFragments
		provider = es.provider
	}
	es.mu.Unlock()

	if spawnFragment && speak && es.speech != nil {
		es.speech.Speak(SpeechRequest{
			Text:     phrase,
			Provider: provider,
			Volume:   SpeechVolume,
		})
	}
}

// Sweep removes expired entities from every live collection. Removal here
// is the only disposal path; the render loop never sees a removed entity
// again.
func (es *EntitySystem) Sweep(now time.Time) int {
	es.mu.Lock()
	defer es.mu.Unlock()
	removed := 0
	es.shapes, removed = sweepSlice(es.shapes, now, removed)
	es.glyphs, removed = sweepSlice(es.glyphs, now, removed)
	es.fragments, removed = sweepSlice(es.fragments, now, removed)
	return removed
}

// RunSweeper prunes on a fixed wall-clock interval until stop is closed.
func (es *EntitySystem) RunSweeper(stop <-chan struct{}) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case t := <-ticker.C:
			es.Sweep(t)
		}
	}
}

// Counts returns the live collection sizes (shapes, glyphs, fragments).
func (es *EntitySystem) Counts() (int, int, int) {
	es.mu.Lock()
	defer es.mu.Unlock()
	return len(es.shapes), len(es.glyphs), len(es.fragments)
}

func (es *EntitySystem) takeID() uint64 {
	es.nextID++
	return es.nextID
}

// appendCapped appends e, dropping the oldest entries beyond limit. Dropped
// entries are not disposed here; they simply stop being visible next sync.
func appendCapped(s []VisualEntity, e VisualEntity, limit int) []VisualEntity {
	s = append(s, e)
	if len(s) > limit {
		s = s[len(s)-limit:]
	}
	return s
}

func sweepSlice(s []VisualEntity, now time.Time, removed int) ([]VisualEntity, int) {
	kept := s[:0]
	for i := range s {
		if s[i].Expired(now) {
			removed++
			continue
		}
		kept = append(kept, s[i])
	}
	return kept, removed
}

// glyphRune picks the flying character: the pressed key itself when it is a
// single rune, otherwise a random letter from the alphabet.
func glyphRune(key string, rng *Rand) rune {
	runes := []rune(key)
	if len(runes) == 1 {
		return runes[0]
	}
	pick := keyAlphabet[rng.Intn(len(keyAlphabet))]
	return []rune(pick)[0]
}
