package stage

// PresetID selects a synthesis recipe for future notes.
type PresetID int

const (
	PresetDrift PresetID = iota // detuned sines, slow bloom
	PresetOrgan                 // harmonic stack, fast attack
	PresetReed                  // filtered saw with vibrato
	PresetPulse                 // soft square, snappy
	PresetWash                  // noise through a swept lowpass
	PresetComet                 // downward pitch sweep, bandpass
	PresetBell                  // AM partials, long bloom
	PresetAbyss                 // sub sine + slow AM, very slow attack
	presetCount
)

func (id PresetID) String() string {
	switch id {
	case PresetDrift:
		return "drift"
	case PresetOrgan:
		return "organ"
	case PresetReed:
		return "reed"
	case PresetPulse:
		return "pulse"
	case PresetWash:
		return "wash"
	case PresetComet:
		return "comet"
	case PresetBell:
		return "bell"
	case PresetAbyss:
		return "abyss"
	}
	return "unknown"
}

// Waveform tags a source oscillator variant.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSquare
	WaveSaw
	WaveNoise
)

// SourceSpec describes one generator stage: a waveform at a harmonic ratio
// of the note frequency, slightly detuned, mixed at Level.
type SourceSpec struct {
	Wave   Waveform
	Ratio  float64 // frequency multiplier relative to the note
	Detune float64 // fractional detune, e.g. 0.003
	Level  float64
}

// FilterKind tags the filter stage variant.
type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterLowpass
	FilterHighpass
	FilterBandpass
)

// FilterSpec describes the (optional) filter stage. When SweepTo is nonzero
// the cutoff glides exponentially from Cutoff to SweepTo over SweepTime.
type FilterSpec struct {
	Kind      FilterKind
	Cutoff    float64 // Hz
	SweepTo   float64 // Hz; 0 = static
	SweepTime float64 // seconds
}

// ModSpec describes modulation applied on top of the sources: vibrato LFO,
// a one-way pitch sweep, and amplitude modulation.
type ModSpec struct {
	VibratoRate  float64 // Hz; 0 = none
	VibratoDepth float64 // fractional
	PitchSweepTo float64 // frequency multiplier reached at SweepTime; 0 = none
	SweepTime    float64 // seconds
	AMRate       float64 // Hz; 0 = none
	AMDepth      float64 // 0..1
}

// Recipe is a pure, immutable description of a synthesis graph. Recipes are
// shared by reference and interpreted per-sample by the voice renderer.
type Recipe struct {
	Sources []SourceSpec
	Filter  FilterSpec
	Mod     ModSpec
	Attack  float64 // seconds, 0.05–2.5
}

var presetRecipes = map[PresetID]*Recipe{
	PresetDrift: {
		Sources: []SourceSpec{
			{Wave: WaveSine, Ratio: 1.0, Level: 0.55},
			{Wave: WaveSine, Ratio: 1.0, Detune: 0.004, Level: 0.35},
			{Wave: WaveSine, Ratio: 2.0, Detune: -0.002, Level: 0.12},
		},
		Mod:    ModSpec{VibratoRate: 0.21, VibratoDepth: 0.0015},
		Attack: 1.2,
	},
	PresetOrgan: {
		Sources: []SourceSpec{
			{Wave: WaveSine, Ratio: 0.5, Level: 0.22},
			{Wave: WaveSine, Ratio: 1.0, Level: 0.46},
			{Wave: WaveSine, Ratio: 2.0, Level: 0.24},
			{Wave: WaveSine, Ratio: 4.0, Level: 0.09},
		},
		Attack: 0.05,
	},
	PresetReed: {
		Sources: []SourceSpec{
			{Wave: WaveSaw, Ratio: 1.0, Level: 0.42},
			{Wave: WaveSaw, Ratio: 1.0, Detune: 0.006, Level: 0.28},
		},
		Filter: FilterSpec{Kind: FilterLowpass, Cutoff: 1800},
		Mod:    ModSpec{VibratoRate: 5.2, VibratoDepth: 0.006},
		Attack: 0.22,
	},
	PresetPulse: {
		Sources: []SourceSpec{
			{Wave: WaveSquare, Ratio: 1.0, Level: 0.34},
			{Wave: WaveTriangle, Ratio: 2.0, Level: 0.16},
		},
		Filter: FilterSpec{Kind: FilterLowpass, Cutoff: 2600},
		Attack: 0.06,
	},
	PresetWash: {
		Sources: []SourceSpec{
			{Wave: WaveNoise, Level: 0.5},
			{Wave: WaveSine, Ratio: 1.0, Level: 0.18},
		},
		Filter: FilterSpec{Kind: FilterLowpass, Cutoff: 400, SweepTo: 2400, SweepTime: 3.0},
		Attack: 2.5,
	},
	PresetComet: {
		Sources: []SourceSpec{
			{Wave: WaveSaw, Ratio: 1.0, Level: 0.3},
			{Wave: WaveSine, Ratio: 0.5, Level: 0.2},
		},
		Filter: FilterSpec{Kind: FilterBandpass, Cutoff: 900},
		Mod:    ModSpec{PitchSweepTo: 0.25, SweepTime: 4.0},
		Attack: 0.4,
	},
	PresetBell: {
		Sources: []SourceSpec{
			{Wave: WaveSine, Ratio: 1.0, Level: 0.4},
			{Wave: WaveSine, Ratio: 2.76, Level: 0.2},
			{Wave: WaveSine, Ratio: 5.4, Level: 0.08},
		},
		Mod:    ModSpec{AMRate: 3.1, AMDepth: 0.35},
		Attack: 0.09,
	},
	PresetAbyss: {
		Sources: []SourceSpec{
			{Wave: WaveSine, Ratio: 0.5, Level: 0.5},
			{Wave: WaveTriangle, Ratio: 1.0, Level: 0.2},
		},
		Filter: FilterSpec{Kind: FilterLowpass, Cutoff: 600},
		Mod:    ModSpec{AMRate: 0.5, AMDepth: 0.5},
		Attack: 2.2,
	},
}

// recipeFor returns the recipe for id, defaulting to drift.
func recipeFor(id PresetID) *Recipe {
	if r, ok := presetRecipes[id]; ok {
		return r
	}
	return presetRecipes[PresetDrift]
}
