package stage

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hajimehoshi/oto/v2"
)

var logger = slog.Default()

// SetLogger replaces the package logger. Call before RunDesktop.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Player is the slice of oto.Player the engine depends on. Narrowing the
// surface keeps voices testable without an audio device.
type Player interface {
	Play()
	IsPlaying() bool
	SetVolume(volume float64)
	Close() error
}

// AudioDevice hands out players for sample streams.
type AudioDevice interface {
	NewPlayer(r io.Reader) Player
}

type otoDevice struct {
	ctx *oto.Context
}

func (d otoDevice) NewPlayer(r io.Reader) Player {
	return d.ctx.NewPlayer(r)
}

// Engine owns the audio half of the instrument: active voices, the current
// preset, the key/frequency map, and the percussion bus. One per session;
// passed by reference to whatever needs it.
type Engine struct {
	device AudioDevice
	ready  <-chan struct{}

	mu     sync.Mutex
	voices map[string]*Voice
	preset PresetID
	keymap *KeyFrequencyMap
	rng    *Rand

	voiceVolume float64
	drumVolume  float64
}

// NewEngine creates an engine bound to a device. A nil device yields an
// engine whose note/drum operations are silent no-ops.
func NewEngine(device AudioDevice, ready <-chan struct{}, seed uint64) *Engine {
	return &Engine{
		device:      device,
		ready:       ready,
		voices:      make(map[string]*Voice),
		preset:      PresetDrift,
		keymap:      NewKeyFrequencyMap(seed),
		rng:         NewRand(seed ^ 0x5EED),
		voiceVolume: 0.7,
		drumVolume:  0.8,
	}
}

// OpenEngine initializes the real audio output and wraps it in an Engine.
func OpenEngine(seed uint64) (*Engine, error) {
	ctx, ready, err := oto.NewContext(SampleRate, ChannelCount, BitDepth)
	if err != nil {
		return nil, err
	}
	return NewEngine(otoDevice{ctx: ctx}, ready, seed), nil
}

// ok reports whether the output path is usable right now. Before the device
// finishes warming up every audio operation degrades to a no-op.
func (e *Engine) ok() bool {
	if e == nil || e.device == nil {
		return false
	}
	if e.ready == nil {
		return true
	}
	select {
	case <-e.ready:
		return true
	default:
		return false
	}
}

// SetPreset selects the recipe used by future PlayNote calls. Sounding
// voices are unaffected.
func (e *Engine) SetPreset(id PresetID) {
	e.mu.Lock()
	e.preset = id
	e.mu.Unlock()
}

func (e *Engine) Preset() PresetID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.preset
}

// RegenerateKeymap reshuffles the key→frequency bijection.
func (e *Engine) RegenerateKeymap() {
	e.mu.Lock()
	e.keymap.Regenerate()
	e.mu.Unlock()
}

// FrequencyFor resolves a key to its mapped frequency, falling back to
// DefaultFreq for unmapped keys.
func (e *Engine) FrequencyFor(key string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.keymap.FrequencyFor(key)
}

// PlayNote starts a voice for key. Idempotent: a key that is already
// sounding (key-repeat) is left alone.
func (e *Engine) PlayNote(key string) {
	if !e.ok() {
		return
	}
	e.mu.Lock()
	if _, exists := e.voices[key]; exists {
		e.mu.Unlock()
		return
	}
	if len(e.voices) >= MaxActiveVoices {
		e.mu.Unlock()
		return
	}
	recipe := recipeFor(e.preset)
	freq := e.keymap.FrequencyFor(key)
	v := newVoice(key, freq, recipe, e.rng.NextU64())
	e.voices[key] = v
	e.mu.Unlock()

	player := e.device.NewPlayer(v.reader())
	player.SetVolume(e.voiceVolume)
	player.Play()
	v.attach(player)
	go reapWhenDone(v, player)
}

// StopNote releases the voice for key, if any. The release time is
// randomized so repeated notes of the same pitch decay differently.
func (e *Engine) StopNote(key string) {
	if !e.ok() {
		return
	}
	e.mu.Lock()
	v, exists := e.voices[key]
	if !exists {
		e.mu.Unlock()
		return
	}
	delete(e.voices, key)
	release := e.rng.RangeF(ReleaseMin, ReleaseMax)
	e.mu.Unlock()

	v.Release(release)
}

// ClearAllNotes force-stops every active voice with a short linear ramp and
// resets the voice table. Used for instant silence on mode changes.
func (e *Engine) ClearAllNotes() {
	if e == nil {
		return
	}
	e.mu.Lock()
	old := e.voices
	e.voices = make(map[string]*Voice)
	e.mu.Unlock()

	for _, v := range old {
		v.Kill(ClearRampLen)
	}
}

// ActiveVoices returns the number of currently allocated voices.
func (e *Engine) ActiveVoices() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.voices)
}

// reapWhenDone closes the player once the voice's stream has drained.
func reapWhenDone(v *Voice, player Player) {
	for !v.done() || player.IsPlaying() {
		time.Sleep(25 * time.Millisecond)
	}
	if err := player.Close(); err != nil {
		logger.Debug("voice player close", "err", err)
	}
}
