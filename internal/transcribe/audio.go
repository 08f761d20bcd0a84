package transcribe

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/forPelevin/capsync/internal/types"
)

const (
	silenceProbe     = 10000
	silenceAmplitude = 0.001
)

// DecodePCM converts raw little-endian signed 16-bit samples to floats in
// [-1, 1). A trailing odd byte is ignored.
func DecodePCM(raw []byte) []float32 {
	n := len(raw) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		out[i] = float32(s) / 32768.0
	}
	return out
}

// Duration is the playback length of samples at the pipeline sample rate.
func Duration(samples []float32) time.Duration {
	return time.Duration(len(samples)) * time.Second / types.SampleRate
}

// NearSilent reports whether the leading samples stay below the silence
// amplitude, which usually means the wrong audio stream was extracted.
func NearSilent(samples []float32) bool {
	if len(samples) == 0 {
		return true
	}
	probe := samples[:min(len(samples), silenceProbe)]
	var peak float64
	for _, s := range probe {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	return peak < silenceAmplitude
}

// EncodeWAV writes samples as a mono 16-bit PCM WAV file image.
func EncodeWAV(samples []float32) []byte {
	dataLen := len(samples) * 2
	var b bytes.Buffer
	b.Grow(44 + dataLen)
	w := func(v any) { _ = binary.Write(&b, binary.LittleEndian, v) }

	b.WriteString("RIFF")
	w(uint32(36 + dataLen))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	w(uint32(16))
	w(uint16(1)) // PCM
	w(uint16(1)) // mono
	w(uint32(types.SampleRate))
	w(uint32(types.SampleRate * 2))
	w(uint16(2))
	w(uint16(16))
	b.WriteString("data")
	w(uint32(dataLen))
	for _, s := range samples {
		v := math.Round(float64(s) * 32768.0)
		v = math.Max(math.MinInt16, math.Min(math.MaxInt16, v))
		w(int16(v))
	}
	return b.Bytes()
}

// PCMFromWAV returns the sample bytes of a canonical 16-bit mono WAV.
func PCMFromWAV(wav []byte) ([]byte, error) {
	if len(wav) < 12 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}
	for off := 12; off+8 <= len(wav); {
		id := string(wav[off : off+4])
		size := int(binary.LittleEndian.Uint32(wav[off+4 : off+8]))
		body := off + 8
		if id == "data" {
			end := min(body+size, len(wav))
			return wav[body:end], nil
		}
		off = body + size + size%2
	}
	return nil, fmt.Errorf("wav has no data chunk")
}
