package sstv

import (
	"encoding/binary"
	"fmt"
	"log"
)

/*
 * SSTV Extension Wrapper
 * Integrates the PD-family SSTV decoder with the audio extension
 * framework.
 */

// Message types on the wire, matching the protocol documented in
// GetInfo().
const (
	MsgTypeImageLine    byte = 0x01
	MsgTypeModeDetected byte = 0x02
	MsgTypeComplete     byte = 0x05
)

// AudioExtensionParams contains audio stream parameters.
type AudioExtensionParams struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// AudioExtension is the common interface every audio-stream processor
// implements.
type AudioExtension interface {
	Start(audioChan <-chan []int16, resultChan chan<- []byte) error
	Stop() error
	GetName() string
}

// SSTVExtension wraps a Pipeline as an AudioExtension. The Pipeline
// itself stays single-threaded and synchronous; this wrapper owns the
// one goroutine that drives it from audioChan and never calls it
// concurrently.
type SSTVExtension struct {
	pipeline *Pipeline
	stopCh   chan struct{}
}

// NewSSTVExtension creates a new SSTV audio extension.
func NewSSTVExtension(audioParams AudioExtensionParams, extensionParams map[string]interface{}) (*SSTVExtension, error) {
	if audioParams.Channels != 1 {
		return nil, fmt.Errorf("sstv requires mono audio (got %d channels)", audioParams.Channels)
	}
	if audioParams.BitsPerSample != 16 {
		return nil, fmt.Errorf("sstv requires 16-bit audio (got %d bits)", audioParams.BitsPerSample)
	}

	pipeline := NewPipeline(float64(audioParams.SampleRate), nil)

	log.Printf("[SSTV Extension] created, sample_rate=%d", audioParams.SampleRate)

	return &SSTVExtension{
		pipeline: pipeline,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins processing audio, emitting binary protocol messages on
// resultChan as the Pipeline's callbacks fire.
func (e *SSTVExtension) Start(audioChan <-chan []int16, resultChan chan<- []byte) error {
	e.pipeline.OnModeDetected(func(desc ModeDescriptor) {
		sendNonBlocking(resultChan, encodeModeDetected(desc))
	})
	e.pipeline.OnLineDecoded(func(lineIndex int, pixels []Pixel) {
		sendNonBlocking(resultChan, encodeImageLine(lineIndex, pixels))
	})
	e.pipeline.OnImageComplete(func(width, height int) {
		sendNonBlocking(resultChan, encodeComplete(uint32(height)))
	})

	go func() {
		buf := make([]float64, 0, 2048)
		for {
			select {
			case <-e.stopCh:
				return
			case samples, ok := <-audioChan:
				if !ok {
					return
				}
				buf = buf[:0]
				for _, s := range samples {
					buf = append(buf, float64(s)/32768.0)
				}
				e.pipeline.Process(buf)
			}
		}
	}()

	return nil
}

// Stop stops the extension.
func (e *SSTVExtension) Stop() error {
	close(e.stopCh)
	return nil
}

// GetName returns the extension name.
func (e *SSTVExtension) GetName() string {
	return "sstv"
}

// sendNonBlocking mirrors the teacher's drop-on-backpressure pattern: a
// slow consumer never stalls the decode goroutine.
func sendNonBlocking(ch chan<- []byte, msg []byte) {
	select {
	case ch <- msg:
	default:
	}
}

func encodeModeDetected(desc ModeDescriptor) []byte {
	name := []byte(desc.Name)
	out := make([]byte, 0, 4+len(name))
	out = append(out, MsgTypeModeDetected)
	out = append(out, byte(desc.VISCode))
	out = append(out, byte(len(name)))
	out = append(out, name...)
	return out
}

func encodeImageLine(lineIndex int, pixels []Pixel) []byte {
	out := make([]byte, 0, 9+len(pixels)*3)
	out = append(out, MsgTypeImageLine)
	out = binary.BigEndian.AppendUint32(out, uint32(lineIndex))
	out = binary.BigEndian.AppendUint32(out, uint32(len(pixels)))
	for _, px := range pixels {
		out = append(out, px.R, px.G, px.B)
	}
	return out
}

func encodeComplete(totalLines uint32) []byte {
	out := make([]byte, 0, 5)
	out = append(out, MsgTypeComplete)
	out = binary.BigEndian.AppendUint32(out, totalLines)
	return out
}
