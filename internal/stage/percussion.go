package stage

import (
	"io"
	"math"
	"time"
)

// DrumKind identifies a percussion one-shot.
type DrumKind int

const (
	DrumKick DrumKind = iota
	DrumSnare
	DrumHat
	DrumHatOpen
)

func (k DrumKind) String() string {
	switch k {
	case DrumKick:
		return "kick"
	case DrumSnare:
		return "snare"
	case DrumHat:
		return "hat"
	case DrumHatOpen:
		return "hat-open"
	}
	return "unknown"
}

// DrumHit is one percussion trigger: kind, velocity 0..1, pitch as a
// multiplier around the drum's natural tuning.
type DrumHit struct {
	Kind     DrumKind
	Velocity float64
	Pitch    float64
}

// TriggerDrum synthesizes a one-shot for hit and plays it at the given
// time. No handle is retained: the sample buffer drains and a reaper closes
// the player. Triggering before the engine is ready is a no-op.
func (e *Engine) TriggerDrum(hit DrumHit, at time.Time) {
	if !e.ok() {
		return
	}
	e.mu.Lock()
	seed := e.rng.NextU64()
	vol := e.drumVolume
	e.mu.Unlock()

	fire := func() {
		samples := renderDrum(hit, seed)
		if len(samples) == 0 {
			return
		}
		player := e.device.NewPlayer(&sampleReader{data: samples})
		player.SetVolume(vol * clampF(hit.Velocity, 0, 1))
		player.Play()
		go func() {
			for player.IsPlaying() {
				time.Sleep(10 * time.Millisecond)
			}
			_ = player.Close()
		}()
	}

	if d := time.Until(at); d > time.Millisecond {
		time.AfterFunc(d, fire)
		return
	}
	go fire()
}

type sampleReader struct {
	data []byte
	pos  int
}

func (r *sampleReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func makeBuf(n int) []byte { return make([]byte, n*8) }

func renderDrum(hit DrumHit, seed uint64) []byte {
	pitch := hit.Pitch
	if pitch <= 0 {
		pitch = 1
	}
	switch hit.Kind {
	case DrumKick:
		return genKick(pitch)
	case DrumSnare:
		return genSnare(pitch, seed)
	case DrumHat:
		return genHat(pitch, false, seed)
	case DrumHatOpen:
		return genHat(pitch, true, seed)
	}
	return nil
}

// genKick: pitch-swept sine body with a transient click and short air tail.
func genKick(pitch float64) []byte {
	n := int(0.24 * SampleRate)
	buf := makeBuf(n)
	phase := 0.0
	for i := 0; i < n; i++ {
		t := float64(i) / SampleRate
		p := float64(i) / float64(n)
		freq := (150 - 105*math.Pow(p, 0.5)) * pitch
		phase += 2 * math.Pi * freq / SampleRate
		body := math.Sin(phase) * math.Exp(-p*7.0) * 0.82
		click := math.Sin(2*math.Pi*2100*t) * math.Exp(-p*90.0) * 0.22
		air := math.Sin(2*math.Pi*330*pitch*t) * math.Exp(-p*16.0) * 0.10
		putStereoF32(buf, i, softSat(body+click+air))
	}
	return buf
}

// genSnare: band-limited noise burst over a two-partial body tone.
func genSnare(pitch float64, seed uint64) []byte {
	n := int(0.18 * SampleRate)
	buf := makeBuf(n)
	lp := 0.0
	for i := 0; i < n; i++ {
		t := float64(i) / SampleRate
		p := float64(i) / float64(n)
		env := math.Exp(-p * 9.0)
		body := (math.Sin(2*math.Pi*188*pitch*t)*0.24 + math.Sin(2*math.Pi*356*pitch*t)*0.10) * env
		raw := lcg(&seed)
		lp = lp*0.55 + raw*0.45
		noise := (raw - lp*0.55) * env * 0.62
		snap := math.Sin(2*math.Pi*2800*t) * math.Exp(-p*45.0) * 0.10
		putStereoF32(buf, i, softSat(body+noise+snap))
	}
	return buf
}

// genHat: short high-frequency metal/noise burst; open=true rings longer.
func genHat(pitch float64, open bool, seed uint64) []byte {
	dur := 0.055
	decay := 70.0
	if open {
		dur = 0.22
		decay = 18.0
	}
	n := int(dur * SampleRate)
	buf := makeBuf(n)
	for i := 0; i < n; i++ {
		t := float64(i) / SampleRate
		p := float64(i) / float64(n)
		noise := lcg(&seed)
		metal := math.Sin(2*math.Pi*7300*pitch*t) + math.Sin(2*math.Pi*9200*pitch*t)*0.6
		s := (noise*0.8 + metal*0.2) * math.Exp(-p*decay*dur) * 0.42
		putStereoF32(buf, i, softSat(s))
	}
	return buf
}
