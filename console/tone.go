package console

import (
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

const (
	TONE_HZ     = 440                    // Square wave pitch.
	SAMPLE_RATE = beep.SampleRate(44100) // Output sample rate.
)

// Tone is an endless square wave streamer, silent unless switched on.
type Tone struct {
	Volume float64 // Peak amplitude, from 0 to 1.

	on    atomic.Bool
	phase float64
}

var _ beep.Streamer = (*Tone)(nil)

// NewTone returns a silent tone.
func NewTone() *Tone {
	return &Tone{Volume: 0.2}
}

// Set switches the tone on or off.
func (tone *Tone) Set(on bool) {
	tone.on.Store(on)
}

// On reports whether the tone is switched on.
func (tone *Tone) On() bool {
	return tone.on.Load()
}

// Stream fills samples with the wave, or with silence.
func (tone *Tone) Stream(samples [][2]float64) (n int, ok bool) {
	on := tone.on.Load()
	step := float64(TONE_HZ) / float64(SAMPLE_RATE)

	for i := range samples {
		var value float64
		if on {
			if tone.phase < 0.5 {
				value = tone.Volume
			} else {
				value = -tone.Volume
			}
		}
		samples[i][0] = value
		samples[i][1] = value

		tone.phase += step
		if tone.phase >= 1 {
			tone.phase -= 1
		}
	}

	return len(samples), true
}

func (tone *Tone) Err() error {
	return nil
}

// Play starts the tone on the host speaker.
func (tone *Tone) Play() (err error) {
	err = speaker.Init(SAMPLE_RATE, SAMPLE_RATE.N(time.Second/30))
	if err != nil {
		return
	}

	speaker.Play(tone)
	return
}

// Close stops the host speaker.
func (tone *Tone) Close() {
	tone.Set(false)
	speaker.Close()
}
