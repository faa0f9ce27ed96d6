package stage

import (
	"io"
	"math"
	"sync"
	"time"
)

type envPhase int

const (
	envAttack envPhase = iota
	envRelease
	envKill
	envDone
)

// Voice is one playing note bound to an input key. Its sample stream is
// pulled by the audio device on the device's own goroutine; the only shared
// state is the requested envelope phase, guarded by mu. Everything else is
// owned by the reader.
type Voice struct {
	Key       string
	Freq      float64
	CreatedAt time.Time

	recipe *Recipe

	mu       sync.Mutex
	reqPhase envPhase
	reqDur   float64 // release or kill ramp duration, seconds
	finished bool
	player   Player

	// Render state, touched only by the reader goroutine.
	t        float64
	phase    envPhase
	gain     float64
	downAt   float64 // t when release/kill was first observed
	downFrom float64 // gain captured at that moment
	downDur  float64

	srcPhase  []float64
	lfoPhase  float64
	amPhase   float64
	lp1, lp2  float64
	noiseSeed uint64
}

func newVoice(key string, freq float64, recipe *Recipe, seed uint64) *Voice {
	return &Voice{
		Key:       key,
		Freq:      freq,
		CreatedAt: time.Now(),
		recipe:    recipe,
		srcPhase:  make([]float64, len(recipe.Sources)),
		noiseSeed: seed | 1,
	}
}

func (v *Voice) attach(p Player) {
	v.mu.Lock()
	v.player = p
	v.mu.Unlock()
}

// Release starts the decay toward silence over dur seconds. The reader
// captures the current gain when it next observes the request, so the decay
// continues from wherever the attack got to.
func (v *Voice) Release(dur float64) {
	v.mu.Lock()
	if v.reqPhase == envAttack {
		v.reqPhase = envRelease
		v.reqDur = dur
	}
	v.mu.Unlock()
}

// Kill ramps linearly to zero over ramp seconds, overriding any release.
func (v *Voice) Kill(ramp float64) {
	v.mu.Lock()
	if v.reqPhase != envDone {
		v.reqPhase = envKill
		v.reqDur = ramp
	}
	v.mu.Unlock()
}

func (v *Voice) done() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.finished
}

// Releasing reports whether a release or kill has been requested.
func (v *Voice) Releasing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reqPhase != envAttack
}

func (v *Voice) reader() io.Reader {
	return &voiceReader{v: v}
}

type voiceReader struct {
	v *Voice
}

// Read renders stereo float32 LE samples. The requested envelope phase is
// sampled once per block; a phase change captures the current gain and time
// so release starts exactly where the attack left off.
func (r *voiceReader) Read(p []byte) (int, error) {
	v := r.v
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}

	v.mu.Lock()
	req, reqDur, fin := v.reqPhase, v.reqDur, v.finished
	v.mu.Unlock()
	if fin {
		return 0, io.EOF
	}

	if req != v.phase && v.phase != envDone {
		v.phase = req
		v.downAt = v.t
		v.downFrom = v.gain
		v.downDur = reqDur
	}

	ended := false
	n := 0
	for i := 0; i < frames; i++ {
		g, over := v.envelopeGain()
		if over {
			ended = true
			break
		}
		v.gain = g
		s := v.renderSample() * g
		putStereoF32(p, i, s)
		v.t += 1.0 / SampleRate
		n = i + 1
	}

	if ended {
		v.phase = envDone
		v.mu.Lock()
		v.finished = true
		v.mu.Unlock()
		if n == 0 {
			return 0, io.EOF
		}
	}
	return n * 8, nil
}

// envelopeGain computes the gain at the reader's current time and reports
// whether the envelope has run out.
func (v *Voice) envelopeGain() (float64, bool) {
	switch v.phase {
	case envAttack:
		a := v.recipe.Attack
		if a <= 0 {
			return SustainLevel, false
		}
		return SustainLevel * clampF(v.t/a, 0, 1), false
	case envRelease:
		if v.downDur <= 0 {
			return 0, true
		}
		u := (v.t - v.downAt) / v.downDur
		if u >= 1 {
			return 0, true
		}
		// Exponential toward (not exactly) zero: about -60 dB at u=1.
		return v.downFrom * math.Exp(ReleaseFloorDB/20.0*math.Ln10*u), false
	case envKill:
		if v.downDur <= 0 {
			return 0, true
		}
		u := (v.t - v.downAt) / v.downDur
		if u >= 1 {
			return 0, true
		}
		return v.downFrom * (1 - u), false
	}
	return 0, true
}

// renderSample interprets the recipe for one sample: sources, filter,
// amplitude modulation, saturation.
func (v *Voice) renderSample() float64 {
	rec := v.recipe
	mod := rec.Mod

	pitchMul := 1.0
	if mod.VibratoRate > 0 {
		v.lfoPhase += 2 * math.Pi * mod.VibratoRate / SampleRate
		pitchMul *= 1 + mod.VibratoDepth*math.Sin(v.lfoPhase)
	}
	if mod.PitchSweepTo > 0 && mod.SweepTime > 0 {
		u := clampF(v.t/mod.SweepTime, 0, 1)
		pitchMul *= math.Pow(mod.PitchSweepTo, u)
	}

	s := 0.0
	for i, src := range rec.Sources {
		if src.Wave == WaveNoise {
			s += lcg(&v.noiseSeed) * src.Level
			continue
		}
		f := v.Freq * src.Ratio * (1 + src.Detune) * pitchMul
		v.srcPhase[i] += 2 * math.Pi * f / SampleRate
		s += oscSample(src.Wave, v.srcPhase[i]) * src.Level
	}

	s = v.filterSample(s)

	if mod.AMRate > 0 {
		v.amPhase += 2 * math.Pi * mod.AMRate / SampleRate
		s *= 1 - mod.AMDepth*0.5*(1+math.Sin(v.amPhase))
	}
	return softSat(s)
}

func oscSample(w Waveform, phase float64) float64 {
	switch w {
	case WaveSine:
		return math.Sin(phase)
	case WaveTriangle:
		return (2.0 / math.Pi) * math.Asin(math.Sin(phase))
	case WaveSquare:
		return math.Tanh(math.Sin(phase) * 3.4)
	case WaveSaw:
		u := math.Mod(phase/(2*math.Pi), 1.0)
		return 2*u - 1
	}
	return 0
}

// filterSample applies the recipe's filter stage. Bandpass is the
// difference of two lowpasses; the cutoff glides exponentially when swept.
func (v *Voice) filterSample(x float64) float64 {
	f := v.recipe.Filter
	if f.Kind == FilterNone {
		return x
	}
	fc := f.Cutoff
	if f.SweepTo > 0 && f.SweepTime > 0 && f.SweepTo != f.Cutoff {
		u := clampF(v.t/f.SweepTime, 0, 1)
		fc = f.Cutoff * math.Pow(f.SweepTo/f.Cutoff, u)
	}
	alpha := 1 - math.Exp(-2*math.Pi*fc/SampleRate)
	v.lp1 += alpha * (x - v.lp1)
	switch f.Kind {
	case FilterLowpass:
		return v.lp1
	case FilterHighpass:
		return x - v.lp1
	case FilterBandpass:
		alphaLo := 1 - math.Exp(-2*math.Pi*(fc*0.25)/SampleRate)
		v.lp2 += alphaLo * (x - v.lp2)
		return v.lp1 - v.lp2
	}
	return x
}

// putStereoF32 writes a [-1,1] sample as float32 LE to both stereo channels
// at frame i.
func putStereoF32(buf []byte, i int, sample float64) {
	v := math.Float32bits(float32(sample))
	buf[i*8] = byte(v)
	buf[i*8+1] = byte(v >> 8)
	buf[i*8+2] = byte(v >> 16)
	buf[i*8+3] = byte(v >> 24)
	buf[i*8+4] = byte(v)
	buf[i*8+5] = byte(v >> 8)
	buf[i*8+6] = byte(v >> 16)
	buf[i*8+7] = byte(v >> 24)
}
