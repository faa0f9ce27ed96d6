package stage

// EncodePCM16LE packs [-1,1] mono samples as signed 16-bit little-endian.
func EncodePCM16LE(samples []float64) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int16(clampF(s, -1, 1) * 32767.0)
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

// DecodePCM16LE unpacks signed 16-bit little-endian mono into [-1,1]
// samples. A trailing odd byte is ignored.
func DecodePCM16LE(data []byte) []float64 {
	n := len(data) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v := int16(uint16(data[i*2]) | uint16(data[i*2+1])<<8)
		out[i] = float64(v) / 32767.0
	}
	return out
}

// resampleToStereoF32 converts mono samples at srcRate into the engine's
// stereo float32 LE stream format, using linear interpolation.
func resampleToStereoF32(mono []float64, srcRate int) []byte {
	if len(mono) == 0 || srcRate <= 0 {
		return nil
	}
	ratio := float64(srcRate) / float64(SampleRate)
	n := int(float64(len(mono)) / ratio)
	if n <= 0 {
		return nil
	}
	buf := makeBuf(n)
	for i := 0; i < n; i++ {
		pos := float64(i) * ratio
		j := int(pos)
		frac := pos - float64(j)
		s := mono[j]
		if j+1 < len(mono) {
			s = s*(1-frac) + mono[j+1]*frac
		}
		putStereoF32(buf, i, s)
	}
	return buf
}
