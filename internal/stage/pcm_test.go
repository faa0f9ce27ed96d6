package stage

import (
	"math"
	"testing"
)

func TestPCM16RoundTrip(t *testing.T) {
	in := []float64{0, 0.5, -0.5, 1, -1, 0.123, -0.999}
	out := DecodePCM16LE(EncodePCM16LE(in))
	if len(out) != len(in) {
		t.Fatalf("round trip length = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if math.Abs(out[i]-in[i]) > 1.0/32767.0 {
			t.Fatalf("sample %d: %v -> %v, error above 1 LSB", i, in[i], out[i])
		}
	}
}

func TestEncodeClampsOutOfRange(t *testing.T) {
	out := DecodePCM16LE(EncodePCM16LE([]float64{2.0, -3.0}))
	if out[0] < 0.999 || out[1] > -0.999 {
		t.Fatalf("clamping failed: %v", out)
	}
}

func TestDecodeIgnoresTrailingByte(t *testing.T) {
	data := append(EncodePCM16LE([]float64{0.25, -0.25}), 0x7F)
	if got := len(DecodePCM16LE(data)); got != 2 {
		t.Fatalf("decoded %d samples, want 2", got)
	}
}

func TestResampleToStereoF32(t *testing.T) {
	// One second of DC at cloud rate becomes one second at engine rate.
	mono := make([]float64, CloudPCMRate)
	for i := range mono {
		mono[i] = 0.5
	}
	buf := resampleToStereoF32(mono, CloudPCMRate)

	frames := len(buf) / 8
	if frames < SampleRate-2 || frames > SampleRate+2 {
		t.Fatalf("resampled to %d frames, want ~%d", frames, SampleRate)
	}
	for _, i := range []int{0, frames / 2, frames - 1} {
		bits := uint32(buf[i*8]) | uint32(buf[i*8+1])<<8 | uint32(buf[i*8+2])<<16 | uint32(buf[i*8+3])<<24
		s := float64(math.Float32frombits(bits))
		if math.Abs(s-0.5) > 0.001 {
			t.Fatalf("frame %d = %v, want 0.5", i, s)
		}
		for b := 0; b < 4; b++ {
			if buf[i*8+b] != buf[i*8+4+b] {
				t.Fatalf("frame %d: channels differ", i)
			}
		}
	}
}

func TestResampleEmptyInput(t *testing.T) {
	if got := resampleToStereoF32(nil, CloudPCMRate); got != nil {
		t.Fatalf("resample(nil) = %d bytes, want nil", len(got))
	}
	if got := resampleToStereoF32([]float64{1}, 0); got != nil {
		t.Fatalf("resample with zero rate = %d bytes, want nil", len(got))
	}
}
