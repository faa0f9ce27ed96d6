package stage

import (
	"context"
	"strings"
	"sync"
	"time"
)

const phrasePrompt = `Write 14 very short philosophical fragments about time,
entropy, starlight, and keyboards. One per line, no numbering, no quotes,
each under twelve words.`

// fallbackPhrases backs the pool whenever generation is unavailable or
// fails. Operation never halts on an empty pool.
var fallbackPhrases = []string{
	"every key is a small extinction",
	"the stars do not wait for resolution",
	"entropy hums in a minor key",
	"you are the silence between two notes",
	"light arrives long after the decision",
	"a chord is an argument time always wins",
	"the void keeps perfect tempo",
	"memory is a release curve",
	"what burns twice as bright decays exponentially",
	"somewhere a planet practices its orbit",
	"meaning is a sustained note, briefly held",
	"gravity is just commitment at scale",
	"the universe resolves to the tonic eventually",
	"dust remembers being a drum",
}

// PhraseFetcher is the text-generation collaborator: no arguments, an
// ordered list of short strings, or failure.
type PhraseFetcher interface {
	FetchPhrases(ctx context.Context) ([]string, error)
}

// PhrasePool hands out philosophy fragments for text entities and speech.
// It refreshes asynchronously from a fetcher and is never empty.
type PhrasePool struct {
	fetcher PhraseFetcher

	mu      sync.Mutex
	phrases []string
}

func NewPhrasePool(fetcher PhraseFetcher) *PhrasePool {
	p := &PhrasePool{fetcher: fetcher}
	p.phrases = append(p.phrases, fallbackPhrases...)
	return p
}

// Refresh fetches a new set of phrases in the background. On any failure
// the current pool (at minimum the fallback list) stays in place.
func (p *PhrasePool) Refresh() {
	if p.fetcher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		phrases, err := p.fetcher.FetchPhrases(ctx)
		if err != nil {
			logger.Warn("oracle: phrase fetch failed, keeping current pool", "err", err)
			return
		}
		phrases = cleanPhrases(phrases)
		if len(phrases) == 0 {
			logger.Warn("oracle: phrase fetch returned nothing usable")
			return
		}
		p.mu.Lock()
		p.phrases = phrases
		p.mu.Unlock()
		logger.Info("oracle: phrase pool refreshed", "count", len(phrases))
	}()
}

// NextPhrase returns a uniformly random phrase.
func (p *PhrasePool) NextPhrase(rng *Rand) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.phrases) == 0 {
		// Unreachable by construction, but the contract is "never empty".
		return fallbackPhrases[rng.Intn(len(fallbackPhrases))]
	}
	return p.phrases[rng.Intn(len(p.phrases))]
}

// Len reports the current pool size.
func (p *PhrasePool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.phrases)
}

// splitPhrases turns raw model output into one phrase per line.
func splitPhrases(raw string) []string {
	return cleanPhrases(strings.Split(raw, "\n"))
}

func cleanPhrases(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		s = strings.Trim(s, `"'-•*`)
		s = strings.TrimSpace(s)
		if s == "" || len(s) > 90 {
			continue
		}
		out = append(out, s)
	}
	return out
}
