// ABOUTME: Sample accumulation of source chunks into an output chunk
// ABOUTME: 16-bit additive mixing with flat gain and selectable overflow handling
package mix

import (
	"math"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

// Overflow selects what happens when a mixed sample leaves the int16 range
type Overflow int

const (
	// Wrap keeps native int16 wraparound
	Wrap Overflow = iota
	// Clamp saturates at the int16 limits
	Clamp
)

func (o Overflow) String() string {
	if o == Clamp {
		return "clamp"
	}
	return "wrap"
}

// Mix adds every source chunk, scaled by gain, into main.
//
// Each source is aligned to main by skipping bytes in whichever starts
// later. Afterwards main's view (and its StartUs/DurationUs) is narrowed
// to the span any source actually touched; if nothing overlapped main is
// left as it was. Sources are only read.
func Mix(main *audio.Chunk, sources []audio.Chunk, gain float64, mode Overflow, f audio.Format) {
	lo, hi := -1, -1

	for _, src := range sources {
		mainOff, srcOff := 0, 0
		if src.StartUs > main.StartUs {
			mainOff = f.UsToBytes(src.StartUs - main.StartUs)
		} else if src.StartUs < main.StartUs {
			srcOff = f.UsToBytes(main.StartUs - src.StartUs)
		}
		if mainOff >= len(main.Data) || srcOff >= len(src.Data) {
			continue
		}

		n := f.AlignBytes(min(len(main.Data)-mainOff, len(src.Data)-srcOff))
		if n <= 0 {
			continue
		}
		mixSamples(main.Data[mainOff:mainOff+n], src.Data[srcOff:srcOff+n], gain, mode)

		if lo < 0 || mainOff < lo {
			lo = mainOff
		}
		if mainOff+n > hi {
			hi = mainOff + n
		}
	}

	if lo < 0 || (lo == 0 && hi == len(main.Data)) {
		return
	}

	end := main.EndUs()
	if hi < len(main.Data) {
		end = main.StartUs + f.BytesToUs(hi)
	}
	main.Data = main.Data[lo:hi]
	main.StartUs += f.BytesToUs(lo)
	main.DurationUs = end - main.StartUs
}

func mixSamples(dst, src []byte, gain float64, mode Overflow) {
	samples := len(dst) / 2
	for i := 0; i < samples; i++ {
		m := int32(audio.Int16At(dst, i))
		s := int32(math.Round(float64(audio.Int16At(src, i)) * gain))

		sum := m + s
		if mode == Clamp {
			if sum > math.MaxInt16 {
				sum = math.MaxInt16
			} else if sum < math.MinInt16 {
				sum = math.MinInt16
			}
		}
		audio.PutInt16(dst, i, int16(sum))
	}
}
