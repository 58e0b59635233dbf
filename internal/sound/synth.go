// Package sound synthesizes the short feedback tones of the timer and
// plays them through the audio device.
package sound

import (
	"encoding/binary"
	"math"
	"math/rand"
	"time"
)

// Wave is an oscillator shape.
type Wave int

const (
	Sine Wave = iota
	Triangle
	Noise
)

// floorGain is where exponential fades end. An exponential ramp can not
// reach zero.
const floorGain = 0.01

// Tone describes one voice. The frequency sweeps exponentially from From
// to To over Sweep (or the whole Duration when Sweep is zero), and the
// gain decays exponentially from Gain to near silence over Duration.
// For Noise, From and To are the cutoff of a low-pass filter.
type Tone struct {
	Wave     Wave
	From     float64
	To       float64
	Sweep    time.Duration
	Duration time.Duration
	Gain     float64
}

// Silence is a Tone with no output, used as a gap between tones.
func Silence(d time.Duration) Tone {
	return Tone{Duration: d}
}

// Render returns the tone as float samples in [-1, 1].
func Render(t Tone, rate int) []float64 {
	n := int(math.Round(t.Duration.Seconds() * float64(rate)))
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if t.Gain <= 0 {
		return out
	}

	sweep := t.Sweep
	if sweep <= 0 || sweep > t.Duration {
		sweep = t.Duration
	}
	sweepN := sweep.Seconds() * float64(rate)

	// Seeded so a cue always renders to the same bytes.
	rng := rand.New(rand.NewSource(int64(n)))
	var phase, lp float64
	for i := range out {
		freq := expRamp(t.From, t.To, math.Min(float64(i)/sweepN, 1))
		gain := expRamp(t.Gain, floorGain, float64(i)/float64(n))

		var s float64
		switch t.Wave {
		case Sine:
			s = math.Sin(phase)
		case Triangle:
			s = 2 / math.Pi * math.Asin(math.Sin(phase))
		case Noise:
			x := (rng.Float64()*2 - 1) * (1 - float64(i)/float64(n))
			alpha := 1 - math.Exp(-2*math.Pi*freq/float64(rate))
			lp += alpha * (x - lp)
			s = lp
		}
		out[i] = s * gain
		phase += 2 * math.Pi * freq / float64(rate)
		if phase > 2*math.Pi {
			phase -= 2 * math.Pi
		}
	}
	return out
}

// expRamp interpolates exponentially between a and b for x in [0, 1].
func expRamp(a, b, x float64) float64 {
	if a <= 0 || b <= 0 {
		return a + (b-a)*x
	}
	return a * math.Pow(b/a, x)
}

// PCM converts float samples to signed 16-bit little-endian bytes.
func PCM(samples []float64) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(s*math.MaxInt16)))
	}
	return out
}

// Cue is a named feedback sound.
type Cue int

const (
	CueDing Cue = iota
	CueSplash
	CueEat
	CueCancel
	CueSelect
	CueSuccess
)

// String returns the cue name.
func (c Cue) String() string {
	switch c {
	case CueDing:
		return "ding"
	case CueSplash:
		return "splash"
	case CueEat:
		return "eat"
	case CueCancel:
		return "cancel"
	case CueSelect:
		return "select"
	case CueSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Tones returns the voices that make up the cue.
func (c Cue) Tones() []Tone {
	switch c {
	case CueDing:
		return []Tone{{Wave: Sine, From: 500, To: 1000, Sweep: 100 * time.Millisecond, Duration: 1500 * time.Millisecond, Gain: 0.5}}
	case CueSplash:
		return []Tone{{Wave: Noise, From: 800, To: 100, Duration: 200 * time.Millisecond, Gain: 0.3}}
	case CueEat:
		return []Tone{{Wave: Sine, From: 800, To: 200, Duration: 150 * time.Millisecond, Gain: 0.2}}
	case CueCancel:
		return []Tone{{Wave: Triangle, From: 400, To: 100, Duration: 100 * time.Millisecond, Gain: 0.1}}
	case CueSelect:
		return []Tone{{Wave: Sine, From: 1200, To: 600, Duration: 50 * time.Millisecond, Gain: 0.1}}
	case CueSuccess:
		return []Tone{{Wave: Sine, From: 440, To: 880, Sweep: 100 * time.Millisecond, Duration: 300 * time.Millisecond, Gain: 0.2}}
	default:
		return nil
	}
}

// Sequence renders cues back to back with gap between them.
func Sequence(rate int, gap time.Duration, cues ...Cue) []byte {
	var samples []float64
	for i, c := range cues {
		if i > 0 && gap > 0 {
			samples = append(samples, Render(Silence(gap), rate)...)
		}
		for _, t := range c.Tones() {
			samples = append(samples, Render(t, rate)...)
		}
	}
	return PCM(samples)
}
