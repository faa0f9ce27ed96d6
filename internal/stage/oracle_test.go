package stage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeFetcher struct {
	phrases []string
	err     error
}

func (f *fakeFetcher) FetchPhrases(context.Context) ([]string, error) {
	return f.phrases, f.err
}

func TestPoolStartsWithFallback(t *testing.T) {
	p := NewPhrasePool(nil)
	if p.Len() != len(fallbackPhrases) {
		t.Fatalf("Len = %d, want %d fallback phrases", p.Len(), len(fallbackPhrases))
	}
	if len(fallbackPhrases) < 10 {
		t.Fatalf("fallback pool holds %d phrases, want at least 10", len(fallbackPhrases))
	}
}

func TestNextPhraseDrawsFromPool(t *testing.T) {
	p := NewPhrasePool(nil)
	rng := NewRand(9)
	members := make(map[string]bool, len(fallbackPhrases))
	for _, s := range fallbackPhrases {
		members[s] = true
	}
	for i := 0; i < 50; i++ {
		if s := p.NextPhrase(rng); !members[s] {
			t.Fatalf("NextPhrase returned %q, not in pool", s)
		}
	}
}

func TestRefreshFailureKeepsPool(t *testing.T) {
	p := NewPhrasePool(&fakeFetcher{err: errors.New("offline")})
	p.Refresh()
	time.Sleep(100 * time.Millisecond)

	if p.Len() != len(fallbackPhrases) {
		t.Fatalf("Len after failed refresh = %d, want fallback %d", p.Len(), len(fallbackPhrases))
	}
	if s := p.NextPhrase(NewRand(1)); s == "" {
		t.Fatal("NextPhrase empty after failed refresh")
	}
}

func TestRefreshReplacesPool(t *testing.T) {
	p := NewPhrasePool(&fakeFetcher{phrases: []string{"alpha", "beta"}})
	p.Refresh()

	deadline := time.Now().Add(2 * time.Second)
	for p.Len() != 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if p.Len() != 2 {
		t.Fatalf("Len = %d after refresh, want 2", p.Len())
	}
	got := p.NextPhrase(NewRand(1))
	if got != "alpha" && got != "beta" {
		t.Fatalf("NextPhrase = %q, want a refreshed phrase", got)
	}
}

func TestRefreshEmptyResultKeepsPool(t *testing.T) {
	p := NewPhrasePool(&fakeFetcher{phrases: []string{"", "   "}})
	p.Refresh()
	time.Sleep(100 * time.Millisecond)
	if p.Len() != len(fallbackPhrases) {
		t.Fatalf("empty refresh replaced pool, Len = %d", p.Len())
	}
}

func TestSplitPhrases(t *testing.T) {
	raw := "one small truth\n\n  - quoted line\n" + strings.Repeat("x", 120) + "\nlast\n"
	got := splitPhrases(raw)
	want := []string{"one small truth", "quoted line", "last"}
	if len(got) != len(want) {
		t.Fatalf("splitPhrases = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("phrase %d = %q, want %q", i, got[i], want[i])
		}
	}
}
