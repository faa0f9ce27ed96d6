package stage

import (
	"math"
	"time"
)

// Audio output format (oto.FormatFloat32LE).
const (
	SampleRate   = 44100
	ChannelCount = 2
	BitDepth     = 0 // 32-bit float
)

// Voice envelope defaults.
const (
	SustainLevel    = 0.34
	DefaultFreq     = 220.0 // fallback for unmapped keys
	ReleaseMin      = 0.8   // seconds; actual release randomized per stop
	ReleaseMax      = 2.8
	ClearRampLen    = 0.03 // short linear ramp used by ClearAllNotes
	ReleaseFloorDB  = -60.0
	MaxActiveVoices = 64 // headroom over the full 50-key alphabet
)

// Sequencer.
const (
	StepsPerCycle = 16
	TickLookahead = 50 * time.Millisecond
	DefaultBPM    = 120
	MinBPM        = 40
	MaxBPM        = 300
	BPMNudge      = 4
)

// Entity system caps and timing.
const (
	MaxShapes       = 160
	MaxGlyphs       = 220
	MaxFragments    = 24
	MaxStars        = 2400
	PhraseCooldown  = 4 * time.Second
	SweepInterval   = 250 * time.Millisecond
	ShapeLifeMin    = 6.0 // seconds
	ShapeLifeMax    = 14.0
	GlyphLifeMin    = 3.0
	GlyphLifeMax    = 7.0
	FragmentLifeMin = 9.0
	FragmentLifeMax = 16.0
)

// Opacity fade thresholds as fractions of lifetime. Shapes and glyphs ramp
// in over the first 10% and out from 85%; text fragments use 8%/80%. The
// difference is intentional tuning, kept per-kind.
const (
	ShapeFadeIn  = 0.10
	ShapeFadeOut = 0.85
	TextFadeIn   = 0.08
	TextFadeOut  = 0.80
)

// Scene dressing.
const (
	StarFieldDepth   = 900.0
	WarpIdle         = 0.18
	WarpBeating      = 1.0
	WarpRelaxRate    = 0.6 // per second toward idle
	PlanetCount      = 3
	StarBaseCount    = 1800
	GlowIntensityDim = 0.35
	GlowIntensityHot = 1.0
)

// Window defaults.
const (
	WindowWidth  = 1024
	WindowHeight = 768
	WindowTitle  = "voidorgan"
)

// Speech defaults.
const (
	CloudPCMRate   = 24000 // genai TTS returns s16le mono at this rate
	SpeechVolume   = 0.8
	CloudVoiceName = "Charon"
	CloudPersona   = "Speak slowly, like a tired oracle reciting a fragment."
)

// frequencyPalette holds one distinct pitch per key in the alphabet: the
// union of the A minor and A major pentatonics, laid out octave by octave
// up from A1 until every key has its own pitch. The key map shuffles it, so
// key to pitch stays one-to-one.
var frequencyPalette = func() []float64 {
	degrees := []float64{0, 2, 3, 4, 5, 7, 9, 10}
	pal := make([]float64, 0, len(keyAlphabet))
	for oct := 0; len(pal) < len(keyAlphabet); oct++ {
		for _, d := range degrees {
			if len(pal) == len(keyAlphabet) {
				break
			}
			pal = append(pal, 55.0*math.Pow(2, float64(oct)+d/12.0))
		}
	}
	return pal
}()
