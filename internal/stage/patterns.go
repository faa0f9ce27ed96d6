package stage

// BeatStyle selects a pattern family for the sequencer.
type BeatStyle int

const (
	StyleDNB BeatStyle = iota
	StyleFourOnFloor
	StyleHalftime
	StyleBreakcore
	styleCount
)

func (s BeatStyle) String() string {
	switch s {
	case StyleDNB:
		return "dnb"
	case StyleFourOnFloor:
		return "four-on-floor"
	case StyleHalftime:
		return "halftime"
	case StyleBreakcore:
		return "breakcore"
	}
	return "unknown"
}

// NextStyle cycles through the style family.
func (s BeatStyle) Next() BeatStyle {
	return (s + 1) % styleCount
}

// stepPattern maps a 16-step cycle position to its triggers.
type stepPattern [StepsPerCycle][]DrumHit

// patternTable holds the deterministic styles. Breakcore is generated, not
// looked up. Variant indexes wrap.
var patternTable = map[BeatStyle][]stepPattern{
	StyleDNB: {
		{
			0:  {{Kind: DrumKick, Velocity: 1.0, Pitch: 1.0}},
			2:  {{Kind: DrumHat, Velocity: 0.5, Pitch: 1.0}},
			4:  {{Kind: DrumSnare, Velocity: 0.95, Pitch: 1.0}},
			6:  {{Kind: DrumHat, Velocity: 0.5, Pitch: 1.0}},
			8:  {{Kind: DrumHat, Velocity: 0.4, Pitch: 1.0}},
			10: {{Kind: DrumKick, Velocity: 0.9, Pitch: 1.0}},
			12: {{Kind: DrumSnare, Velocity: 0.95, Pitch: 1.0}},
			14: {{Kind: DrumHat, Velocity: 0.5, Pitch: 1.0}},
		},
		{
			0:  {{Kind: DrumKick, Velocity: 1.0, Pitch: 1.0}},
			2:  {{Kind: DrumHat, Velocity: 0.45, Pitch: 1.0}},
			4:  {{Kind: DrumSnare, Velocity: 0.95, Pitch: 1.0}},
			7:  {{Kind: DrumHat, Velocity: 0.6, Pitch: 1.1}},
			10: {{Kind: DrumKick, Velocity: 0.9, Pitch: 1.0}},
			11: {{Kind: DrumKick, Velocity: 0.6, Pitch: 1.1}},
			12: {{Kind: DrumSnare, Velocity: 0.95, Pitch: 1.0}},
			15: {{Kind: DrumHatOpen, Velocity: 0.55, Pitch: 1.0}},
		},
	},
	StyleFourOnFloor: {
		{
			0:  {{Kind: DrumKick, Velocity: 1.0, Pitch: 1.0}},
			2:  {{Kind: DrumHat, Velocity: 0.55, Pitch: 1.0}},
			4:  {{Kind: DrumKick, Velocity: 1.0, Pitch: 1.0}, {Kind: DrumSnare, Velocity: 0.8, Pitch: 1.0}},
			6:  {{Kind: DrumHat, Velocity: 0.55, Pitch: 1.0}},
			8:  {{Kind: DrumKick, Velocity: 1.0, Pitch: 1.0}},
			10: {{Kind: DrumHat, Velocity: 0.55, Pitch: 1.0}},
			12: {{Kind: DrumKick, Velocity: 1.0, Pitch: 1.0}, {Kind: DrumSnare, Velocity: 0.8, Pitch: 1.0}},
			14: {{Kind: DrumHatOpen, Velocity: 0.5, Pitch: 1.0}},
		},
	},
	StyleHalftime: {
		{
			0:  {{Kind: DrumKick, Velocity: 1.0, Pitch: 0.9}},
			6:  {{Kind: DrumHat, Velocity: 0.4, Pitch: 1.0}},
			8:  {{Kind: DrumSnare, Velocity: 1.0, Pitch: 0.95}},
			11: {{Kind: DrumHat, Velocity: 0.4, Pitch: 1.0}},
			14: {{Kind: DrumKick, Velocity: 0.7, Pitch: 0.9}},
		},
	},
}

// breakcoreDensity is the per-step Bernoulli probability per drum type.
var breakcoreDensity = map[DrumKind]float64{
	DrumKick:  0.42,
	DrumSnare: 0.34,
	DrumHat:   0.55,
}

// HitsForStep returns the triggers for (style, variant, step). Deterministic
// styles are table lookups; breakcore draws independent per-step Bernoulli
// triggers with uniformly randomized velocity and pitch, so the style never
// repeats.
func HitsForStep(style BeatStyle, variant, step int, rng *Rand) []DrumHit {
	step = ((step % StepsPerCycle) + StepsPerCycle) % StepsPerCycle

	if style == StyleBreakcore {
		var hits []DrumHit
		for _, kind := range []DrumKind{DrumKick, DrumSnare, DrumHat} {
			if rng.Float64() < breakcoreDensity[kind] {
				hits = append(hits, DrumHit{
					Kind:     kind,
					Velocity: rng.RangeF(0.35, 1.0),
					Pitch:    rng.RangeF(0.7, 1.5),
				})
			}
		}
		return hits
	}

	variants, ok := patternTable[style]
	if !ok || len(variants) == 0 {
		return nil
	}
	v := ((variant % len(variants)) + len(variants)) % len(variants)
	return variants[v][step]
}

// VariantCount returns how many deterministic variants a style has.
func VariantCount(style BeatStyle) int {
	if style == StyleBreakcore {
		return 1
	}
	return len(patternTable[style])
}
