package salience

// Waveform is a mono signal with samples nominally in [-1, 1].
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Duration reports the waveform length in seconds.
func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// FrameSeries holds the per-frame features. All slices share one length.
type FrameSeries struct {
	RMS      []float64
	ZCR      []float64
	Flatness []float64
	Time     []float64
}

// Len returns the number of frames.
func (f *FrameSeries) Len() int {
	if f == nil {
		return 0
	}
	return len(f.RMS)
}

// ScoreSeries is the fused salience score per frame plus the adaptive threshold.
type ScoreSeries struct {
	Scores    []float64
	Threshold float64
}

// Span is a time range in seconds, before statistics are attached.
type Span struct {
	StartSec float64
	EndSec   float64
}

// Duration returns EndSec - StartSec.
func (s Span) Duration() float64 {
	return s.EndSec - s.StartSec
}

// Segment is a merged salient region annotated with loudness statistics.
type Segment struct {
	StartSec    float64  `json:"startSec"`
	EndSec      float64  `json:"endSec"`
	DurationSec float64  `json:"durationSec"`
	PeakDbfs    float64  `json:"peakDbfs"`
	MinDbfs     float64  `json:"minDbfs"`
	AvgRms      float64  `json:"avgRms"`
	Keywords    []string `json:"keywords"`
}

// AnalysisResult is the final output for one job.
type AnalysisResult struct {
	FileID      string    `json:"fileId"`
	Filename    string    `json:"filename"`
	DurationSec float64   `json:"durationSec"`
	Segments    []Segment `json:"segments"`
}

// State is the lifecycle of one analysis job.
type State string

const (
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateDone       State = "done"
	StateError      State = "error"
)

// Progress is emitted while per-segment statistics are computed.
type Progress struct {
	Status   State   `json:"status"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message"`
}

// ProgressFunc receives progress updates. It may be nil.
type ProgressFunc func(Progress)
