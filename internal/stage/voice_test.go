package stage

import (
	"io"
	"math"
	"testing"
)

func readBlocks(t *testing.T, r io.Reader, blocks, frames int) (eof bool) {
	t.Helper()
	buf := make([]byte, frames*8)
	for i := 0; i < blocks; i++ {
		_, err := r.Read(buf)
		if err == io.EOF {
			return true
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
	return false
}

func TestVoiceAttackReachesSustain(t *testing.T) {
	rec := recipeFor(PresetPulse)
	v := newVoice("a", 220, rec, 7)
	r := v.reader()

	// Render comfortably past the attack time.
	frames := int((rec.Attack + 0.05) * SampleRate)
	readBlocks(t, r, 1, frames)

	if math.Abs(v.gain-SustainLevel) > 0.01 {
		t.Fatalf("gain after attack = %v, want ~%v", v.gain, SustainLevel)
	}
	if v.done() {
		t.Fatal("voice finished while still held")
	}
}

func TestVoiceReleaseRunsOut(t *testing.T) {
	v := newVoice("a", 220, recipeFor(PresetPulse), 7)
	r := v.reader()

	readBlocks(t, r, 1, 2048)
	v.Release(0.05)

	// 0.05s of release fits in a handful of blocks.
	for i := 0; i < 20; i++ {
		if readBlocks(t, r, 1, 2048) {
			break
		}
	}
	if !v.done() {
		t.Fatal("voice not finished after release ran out")
	}
	if n, err := r.Read(make([]byte, 64)); err != io.EOF || n != 0 {
		t.Fatalf("post-EOF Read = (%d, %v), want (0, EOF)", n, err)
	}
}

func TestVoiceKillOverridesRelease(t *testing.T) {
	v := newVoice("a", 220, recipeFor(PresetDrift), 7)
	r := v.reader()

	readBlocks(t, r, 1, 2048)
	v.Release(30) // would take half a minute
	v.Kill(0.01)

	for i := 0; i < 10; i++ {
		if readBlocks(t, r, 1, 2048) {
			break
		}
	}
	if !v.done() {
		t.Fatal("kill did not end the voice promptly")
	}
}

func TestVoiceReleaseIsIgnoredAfterKill(t *testing.T) {
	v := newVoice("a", 220, recipeFor(PresetDrift), 7)
	v.Kill(0.01)
	v.Release(10)
	if !v.Releasing() {
		t.Fatal("Releasing = false after kill")
	}
	v.mu.Lock()
	phase := v.reqPhase
	v.mu.Unlock()
	if phase != envKill {
		t.Fatalf("reqPhase = %v, want envKill", phase)
	}
}

func TestVoiceSamplesBounded(t *testing.T) {
	for id := PresetID(0); id < presetCount; id++ {
		v := newVoice("a", 440, recipeFor(id), 99)
		r := v.reader()
		buf := make([]byte, 4096*8)
		n, err := r.Read(buf)
		if err != nil {
			t.Fatalf("preset %v: Read: %v", id, err)
		}
		for i := 0; i < n/8; i++ {
			bits := uint32(buf[i*8]) | uint32(buf[i*8+1])<<8 | uint32(buf[i*8+2])<<16 | uint32(buf[i*8+3])<<24
			s := float64(math.Float32frombits(bits))
			if math.IsNaN(s) || math.Abs(s) > 1.0 {
				t.Fatalf("preset %v: sample %d out of range: %v", id, i, s)
			}
		}
	}
}

func TestPutStereoF32DuplicatesChannels(t *testing.T) {
	buf := make([]byte, 16)
	putStereoF32(buf, 0, 0.5)
	putStereoF32(buf, 1, -0.25)
	for frame := 0; frame < 2; frame++ {
		for b := 0; b < 4; b++ {
			if buf[frame*8+b] != buf[frame*8+4+b] {
				t.Fatalf("frame %d byte %d differs between channels", frame, b)
			}
		}
	}
}
