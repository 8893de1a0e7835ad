package decode

import "github.com/Pavankumar07s/Pict-call/internal/models"

// Resample converts mono pcm to rate using linear interpolation. A buffer already
// at rate, or a non-positive rate, returns pcm unchanged. A non-empty input always
// yields at least one sample.
func Resample(pcm models.PcmBuffer, rate int) models.PcmBuffer {
	if rate <= 0 || pcm.SampleRate <= 0 || pcm.SampleRate == rate || pcm.Empty() {
		return pcm
	}

	src := pcm.Samples
	n := max(1, int(int64(len(src))*int64(rate)/int64(pcm.SampleRate)))
	out := make([]int16, n)
	ratio := float64(pcm.SampleRate) / float64(rate)

	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(src) {
			idx = len(src) - 1
		}
		frac := pos - float64(idx)

		s0 := src[idx]
		s1 := s0
		if idx+1 < len(src) {
			s1 = src[idx+1]
		}
		out[i] = int16(float64(s0)*(1-frac) + float64(s1)*frac)
	}

	return models.PcmBuffer{
		SampleRate: rate,
		Channels:   pcm.Channels,
		Samples:    out,
	}
}
