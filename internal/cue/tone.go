package cue

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"
)

// Tone parameters for the two countdown cues. The go tone sits a
// fifth above the tick so the transition is audible without looking.
const (
	sampleRate   = 44100
	tickFreq     = 880.0
	tickDuration = 120 * time.Millisecond
	goFreq       = 1320.0
	goDuration   = 320 * time.Millisecond
	amplitude    = 0.4
	fadeDuration = 5 * time.Millisecond
)

// renderTone synthesizes one sine burst as a complete in-memory WAV
// file, 16-bit PCM mono. A short ramp at both ends prevents clicks.
func renderTone(freq float64, d time.Duration) []byte {
	n := int(float64(sampleRate) * d.Seconds())
	fadeN := int(float64(sampleRate) * fadeDuration.Seconds())

	samples := make([]int16, n)
	for i := range samples {
		v := amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
		if i < fadeN {
			v *= float64(i) / float64(fadeN)
		}
		if n-1-i < fadeN {
			v *= float64(n-1-i) / float64(fadeN)
		}
		samples[i] = int16(v * math.MaxInt16)
	}

	return wavFile(samples)
}

// wavFile wraps 16-bit mono samples in a RIFF/WAVE container.
func wavFile(samples []int16) []byte {
	dataLen := len(samples) * 2

	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(buf, binary.LittleEndian, uint16(2))
	binary.Write(buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	binary.Write(buf, binary.LittleEndian, samples)
	return buf.Bytes()
}
