package types

// SampleRate is the rate every transcription backend expects.
const SampleRate = 16000

type AudioFormat string

const (
	// AudioPCM is raw little-endian signed 16-bit mono samples.
	AudioPCM AudioFormat = "pcm_s16le"
	AudioWAV AudioFormat = "wav"
)

// Ext returns the scratch file extension for the format.
func (f AudioFormat) Ext() string {
	if f == AudioPCM {
		return ".pcm"
	}
	return ".wav"
}

// Chunk is the smallest timed unit a backend returns. Start == End == 0
// means the backend omitted timing.
type Chunk struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Untimed reports whether the chunk carries the missing-timing sentinel.
func (c Chunk) Untimed() bool { return c.Start == 0 && c.End == 0 }

type TranscriptionResult struct {
	FullText string  `json:"fullText"`
	Chunks   []Chunk `json:"chunks"`
}

// Segment is a display-ready caption span.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (s Segment) Duration() float64 { return s.End - s.Start }

// Captions is the interchange document written by generate and read by
// render/export/sync.
type Captions struct {
	Video    string    `json:"video,omitempty"`
	FullText string    `json:"fullText,omitempty"`
	Estimate bool      `json:"estimated,omitempty"`
	Segments []Segment `json:"captions"`
}
