package stage

// keyAlphabet is every key identifier the instrument accepts: the latin
// letters plus the greek ones, so a second keyboard layout plays too.
var keyAlphabet = func() []string {
	keys := make([]string, 0, 50)
	for r := 'a'; r <= 'z'; r++ {
		keys = append(keys, string(r))
	}
	for r := 'α'; r <= 'ω'; r++ {
		if r == 'ς' { // final sigma shares a key with sigma
			continue
		}
		keys = append(keys, string(r))
	}
	return keys
}()

// KeyFrequencyMap is a shuffled assignment of key identifiers onto the fixed
// frequency palette. Read by the voice allocator, written only by
// Regenerate.
type KeyFrequencyMap struct {
	freqs map[string]float64
	rng   *Rand
}

func NewKeyFrequencyMap(seed uint64) *KeyFrequencyMap {
	m := &KeyFrequencyMap{
		freqs: make(map[string]float64, len(keyAlphabet)),
		rng:   NewRand(seed),
	}
	m.Regenerate()
	return m
}

// Regenerate reshuffles the palette over the alphabet. The palette carries
// one pitch per key, so the assignment stays a bijection.
func (m *KeyFrequencyMap) Regenerate() {
	order := make([]float64, len(frequencyPalette))
	copy(order, frequencyPalette)
	m.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	for i, key := range keyAlphabet {
		m.freqs[key] = order[i]
	}
}

// FrequencyFor returns the mapped frequency, or DefaultFreq when the key is
// not part of the alphabet.
func (m *KeyFrequencyMap) FrequencyFor(key string) float64 {
	if f, ok := m.freqs[key]; ok {
		return f
	}
	return DefaultFreq
}

// Len returns the number of mapped keys.
func (m *KeyFrequencyMap) Len() int {
	return len(m.freqs)
}
