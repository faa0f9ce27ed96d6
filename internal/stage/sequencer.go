package stage

import (
	"sync"
	"time"
)

// TriggerFunc receives each percussion hit together with the instant it
// should sound (tick time plus the fixed lookahead).
type TriggerFunc func(hit DrumHit, at time.Time)

// Sequencer is the fixed-tempo step clock. States: stopped, or running with
// a (bpm, style, variant) triple. Tempo and style changes go through
// Stop+Start; there is no in-place retune.
type Sequencer struct {
	trigger TriggerFunc

	mu      sync.Mutex
	running bool
	bpm     int
	style   BeatStyle
	variant int
	step    int
	stop    chan struct{}
	rng     *Rand
}

func NewSequencer(trigger TriggerFunc, seed uint64) *Sequencer {
	return &Sequencer{
		trigger: trigger,
		rng:     NewRand(seed),
	}
}

// Start stops any existing run, resets the step to 0, and begins ticking at
// sixteenth-note resolution: period = 60/bpm/4 seconds.
func (s *Sequencer) Start(bpm int, style BeatStyle, variant int) {
	s.Stop()

	bpm = clamp(bpm, MinBPM, MaxBPM)
	period := time.Duration(float64(time.Minute) / float64(bpm) / 4.0)

	s.mu.Lock()
	s.running = true
	s.bpm = bpm
	s.style = style
	s.variant = variant
	s.step = 0
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	logger.Info("beats: start", "bpm", bpm, "style", style.String(), "variant", variant)
	go s.run(period, style, variant, stop)
}

func (s *Sequencer) run(period time.Duration, style BeatStyle, variant int, stop chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	// Fire step 0 immediately; the ticker supplies the rest.
	s.tick(style, variant)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick(style, variant)
		}
	}
}

func (s *Sequencer) tick(style BeatStyle, variant int) {
	s.mu.Lock()
	step := s.step
	s.step++
	hits := HitsForStep(style, variant, step%StepsPerCycle, s.rng)
	s.mu.Unlock()

	if len(hits) == 0 {
		return
	}
	at := time.Now().Add(TickLookahead)
	for _, hit := range hits {
		s.trigger(hit, at)
	}
}

// Stop cancels the recurring tick. Idempotent when already stopped; safe to
// call concurrently with an in-flight tick.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.stop = nil
	s.mu.Unlock()
	logger.Info("beats: stop")
}

// Running reports whether the clock is ticking.
func (s *Sequencer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// State returns the current (bpm, style, variant) as of the last Start.
func (s *Sequencer) State() (bpm int, style BeatStyle, variant int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bpm, s.style, s.variant
}

// Step returns the number of ticks fired since the last Start.
func (s *Sequencer) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}
