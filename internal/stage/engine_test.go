package stage

import (
	"fmt"
	"io"
	"sync"
	"testing"
)

// fakePlayer records engine interactions without touching real audio.
type fakePlayer struct {
	mu      sync.Mutex
	playing bool
	closed  bool
	volume  float64
	src     io.Reader
}

func (p *fakePlayer) Play() {
	p.mu.Lock()
	p.playing = true
	p.mu.Unlock()
}

func (p *fakePlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return false
}

func (p *fakePlayer) SetVolume(v float64) {
	p.mu.Lock()
	p.volume = v
	p.mu.Unlock()
}

func (p *fakePlayer) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

type fakeDevice struct {
	mu      sync.Mutex
	players []*fakePlayer
}

func (d *fakeDevice) NewPlayer(r io.Reader) Player {
	p := &fakePlayer{src: r}
	d.mu.Lock()
	d.players = append(d.players, p)
	d.mu.Unlock()
	return p
}

func (d *fakeDevice) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.players)
}

func readyChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func newTestEngine() (*Engine, *fakeDevice) {
	dev := &fakeDevice{}
	return NewEngine(dev, readyChan(), 42), dev
}

func TestPlayNoteIdempotent(t *testing.T) {
	e, dev := newTestEngine()

	e.PlayNote("a")
	e.PlayNote("a")
	e.PlayNote("a")

	if got := e.ActiveVoices(); got != 1 {
		t.Fatalf("ActiveVoices = %d, want 1", got)
	}
	if got := dev.count(); got != 1 {
		t.Fatalf("players created = %d, want 1", got)
	}
}

func TestStopNoteFreesKey(t *testing.T) {
	e, dev := newTestEngine()

	e.PlayNote("a")
	e.StopNote("a")
	if got := e.ActiveVoices(); got != 0 {
		t.Fatalf("ActiveVoices after stop = %d, want 0", got)
	}

	// The key is re-armable immediately; the released voice keeps its own
	// player while it decays.
	e.PlayNote("a")
	if got := e.ActiveVoices(); got != 1 {
		t.Fatalf("ActiveVoices after restart = %d, want 1", got)
	}
	if got := dev.count(); got != 2 {
		t.Fatalf("players created = %d, want 2", got)
	}
}

func TestStopNoteUnknownKeyIsNoop(t *testing.T) {
	e, _ := newTestEngine()
	e.StopNote("q") // must not panic or allocate
	if got := e.ActiveVoices(); got != 0 {
		t.Fatalf("ActiveVoices = %d, want 0", got)
	}
}

func TestClearAllNotes(t *testing.T) {
	e, _ := newTestEngine()
	for _, k := range []string{"a", "b", "c", "d"} {
		e.PlayNote(k)
	}
	e.ClearAllNotes()
	if got := e.ActiveVoices(); got != 0 {
		t.Fatalf("ActiveVoices after clear = %d, want 0", got)
	}
}

func TestVoiceCap(t *testing.T) {
	e, _ := newTestEngine()
	for i := 0; i < MaxActiveVoices+10; i++ {
		e.PlayNote(fmt.Sprintf("k%d", i))
	}
	if got := e.ActiveVoices(); got != MaxActiveVoices {
		t.Fatalf("ActiveVoices = %d, want cap %d", got, MaxActiveVoices)
	}
}

func TestVoiceCapCoversKeyAlphabet(t *testing.T) {
	e, _ := newTestEngine()
	for _, k := range keyAlphabet {
		e.PlayNote(k)
	}
	if got := e.ActiveVoices(); got != len(keyAlphabet) {
		t.Fatalf("ActiveVoices = %d, want every one of the %d keys sounding", got, len(keyAlphabet))
	}
}

func TestEngineNotReadyIsSilent(t *testing.T) {
	dev := &fakeDevice{}
	e := NewEngine(dev, make(chan struct{}), 1) // never ready

	e.PlayNote("a")
	e.StopNote("a")

	if got := dev.count(); got != 0 {
		t.Fatalf("players created before ready = %d, want 0", got)
	}
	if got := e.ActiveVoices(); got != 0 {
		t.Fatalf("ActiveVoices = %d, want 0", got)
	}
}

func TestNilDeviceIsSilent(t *testing.T) {
	e := NewEngine(nil, nil, 1)
	e.PlayNote("a")
	e.StopNote("a")
	e.ClearAllNotes()
	if got := e.ActiveVoices(); got != 0 {
		t.Fatalf("ActiveVoices = %d, want 0", got)
	}
}

func TestSetPreset(t *testing.T) {
	e, _ := newTestEngine()
	e.SetPreset(PresetBell)
	if got := e.Preset(); got != PresetBell {
		t.Fatalf("Preset = %v, want %v", got, PresetBell)
	}
}

func TestVoiceVolumeApplied(t *testing.T) {
	e, dev := newTestEngine()
	e.PlayNote("a")
	dev.mu.Lock()
	vol := dev.players[0].volume
	dev.mu.Unlock()
	if vol <= 0 || vol > 1 {
		t.Fatalf("player volume = %v, want in (0,1]", vol)
	}
}
