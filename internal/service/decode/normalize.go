package decode

import (
	"math"

	"github.com/Pavankumar07s/Pict-call/internal/models"
)

// Normalize scales pcm so its largest absolute sample equals peak. A buffer that is
// silent or already at peak is returned unchanged, so normalizing twice is a no-op.
func Normalize(pcm models.PcmBuffer, peak int16) models.PcmBuffer {
	current := Peak(pcm.Samples)
	if current == 0 || current == int(peak) || peak <= 0 {
		return pcm
	}

	scale := float64(peak) / float64(current)
	out := make([]int16, len(pcm.Samples))
	for i, s := range pcm.Samples {
		v := math.Round(float64(s) * scale)
		out[i] = int16(max(math.MinInt16, min(math.MaxInt16, v)))
	}

	return models.PcmBuffer{
		SampleRate: pcm.SampleRate,
		Channels:   pcm.Channels,
		Samples:    out,
	}
}

// Peak returns the largest absolute sample value.
func Peak(samples []int16) int {
	var p int
	for _, s := range samples {
		v := int(s)
		if v < 0 {
			v = -v
		}
		if v > p {
			p = v
		}
	}
	return p
}
