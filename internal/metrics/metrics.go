// Package metrics wraps the Prometheus client to observe a
// sstv.Pipeline purely through its callbacks, never reaching into
// decoder internals.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the collectors fed by a Pipeline's callbacks.
type Recorder struct {
	linesDecoded    *prometheus.CounterVec
	imagesCompleted *prometheus.CounterVec
	visResets       *prometheus.CounterVec
	afcOffsetHz     *prometheus.GaugeVec
	currentLine     *prometheus.GaugeVec
}

// NewRecorder registers the decoder's metrics with the default registry.
func NewRecorder() *Recorder {
	return &Recorder{
		linesDecoded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sstv_lines_decoded_total",
				Help: "Lines decoded, by mode",
			},
			[]string{"mode"},
		),
		imagesCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sstv_images_completed_total",
				Help: "Images fully decoded, by mode",
			},
			[]string{"mode"},
		),
		visResets: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sstv_vis_resets_total",
				Help: "VIS header decode resets, by reason",
			},
			[]string{"reason"},
		),
		afcOffsetHz: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sstv_afc_offset_hz",
				Help: "Current PD AFC frequency offset, in Hz",
			},
			[]string{"mode"},
		),
		currentLine: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sstv_current_line",
				Help: "Current decoded line index, by mode",
			},
			[]string{"mode"},
		),
	}
}

// Reason values for VISReset.
const (
	ReasonParity            = "parity"
	ReasonTimeout           = "timeout"
	ReasonSignalLoss        = "signal_loss"
	ReasonUnsupportedFamily = "unsupported_family"
)

// VISReset records a protocol-level reset.
func (r *Recorder) VISReset(reason string) {
	r.visResets.WithLabelValues(reason).Inc()
}

// LineDecoded records one decoded line. Call from a Pipeline's
// OnLineDecoded callback alongside any other observer; the recorder
// never registers itself on the Pipeline to avoid clobbering a caller's
// own callback.
func (r *Recorder) LineDecoded(mode string, lineIndex int) {
	r.linesDecoded.WithLabelValues(mode).Inc()
	r.currentLine.WithLabelValues(mode).Set(float64(lineIndex))
}

// ImageCompleted records a finished image.
func (r *Recorder) ImageCompleted(mode string) {
	r.imagesCompleted.WithLabelValues(mode).Inc()
}

// AFCUpdate records the current AFC frequency offset. Call from a
// Pipeline's OnAFCUpdate callback.
func (r *Recorder) AFCUpdate(mode string, offsetHz float64) {
	r.afcOffsetHz.WithLabelValues(mode).Set(offsetHz)
}
