package stage

import "testing"

func stepsWithKind(style BeatStyle, variant int, kind DrumKind, rng *Rand) []int {
	var steps []int
	for step := 0; step < StepsPerCycle; step++ {
		for _, h := range HitsForStep(style, variant, step, rng) {
			if h.Kind == kind {
				steps = append(steps, step)
				break
			}
		}
	}
	return steps
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDNBBackbone(t *testing.T) {
	rng := NewRand(1)
	if got := stepsWithKind(StyleDNB, 0, DrumKick, rng); !equalInts(got, []int{0, 10}) {
		t.Fatalf("dnb kicks at %v, want [0 10]", got)
	}
	if got := stepsWithKind(StyleDNB, 0, DrumSnare, rng); !equalInts(got, []int{4, 12}) {
		t.Fatalf("dnb snares at %v, want [4 12]", got)
	}
}

func TestDeterministicStylesIgnoreRand(t *testing.T) {
	for _, style := range []BeatStyle{StyleDNB, StyleFourOnFloor, StyleHalftime} {
		for variant := 0; variant < VariantCount(style); variant++ {
			a := stepsWithKind(style, variant, DrumKick, NewRand(1))
			b := stepsWithKind(style, variant, DrumKick, NewRand(999))
			if !equalInts(a, b) {
				t.Fatalf("style %v variant %d varies with rng: %v vs %v", style, variant, a, b)
			}
		}
	}
}

func TestStepAndVariantWrap(t *testing.T) {
	rng := NewRand(1)
	base := HitsForStep(StyleDNB, 0, 0, rng)
	wrapped := HitsForStep(StyleDNB, VariantCount(StyleDNB), StepsPerCycle, rng)
	if len(base) != len(wrapped) || base[0].Kind != wrapped[0].Kind {
		t.Fatalf("wrapped lookup differs: %v vs %v", base, wrapped)
	}
}

func TestBreakcoreRanges(t *testing.T) {
	rng := NewRand(1234)
	hits := 0
	for cycle := 0; cycle < 64; cycle++ {
		for step := 0; step < StepsPerCycle; step++ {
			for _, h := range HitsForStep(StyleBreakcore, 0, step, rng) {
				hits++
				if h.Velocity < 0.35 || h.Velocity > 1.0 {
					t.Fatalf("breakcore velocity %v outside [0.35, 1.0]", h.Velocity)
				}
				if h.Pitch < 0.7 || h.Pitch > 1.5 {
					t.Fatalf("breakcore pitch %v outside [0.7, 1.5]", h.Pitch)
				}
			}
		}
	}
	if hits == 0 {
		t.Fatal("64 breakcore cycles produced no hits")
	}
}

func TestStyleCycle(t *testing.T) {
	s := StyleDNB
	seen := map[BeatStyle]bool{}
	for i := 0; i < int(styleCount); i++ {
		seen[s] = true
		s = s.Next()
	}
	if s != StyleDNB {
		t.Fatalf("style cycle did not return to start, got %v", s)
	}
	if len(seen) != int(styleCount) {
		t.Fatalf("cycle visited %d styles, want %d", len(seen), styleCount)
	}
}
