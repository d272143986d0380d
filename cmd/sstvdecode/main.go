// Command sstvdecode drives the sstv.Pipeline over a recorded PCM file
// and writes the decoded image to disk. File I/O, audio framing and
// image encoding live here and only here: the core decoder never
// touches any of them.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"math"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwsl/pd-sstv-decoder/internal/config"
	"github.com/cwsl/pd-sstv-decoder/internal/livefeed"
	"github.com/cwsl/pd-sstv-decoder/internal/metrics"
	"github.com/cwsl/pd-sstv-decoder/sstv"
)

// blockSize matches the 2048-sample chunking used by the reference
// decoder's own demo driver.
const blockSize = 2048

func main() {
	inPath := flag.String("in", "", "path to a raw PCM file")
	outPath := flag.String("out", "out.png", "path to write the decoded PNG")
	rate := flag.Int("rate", 11025, "input sample rate, Hz")
	pcm16 := flag.Bool("pcm16", false, "input is little-endian 16-bit PCM (default: float32)")
	configPath := flag.String("config", "", "optional YAML tuning file")
	listenAddr := flag.String("listen", "", "if set, serve /metrics and /ws on this address")
	flag.Parse()

	if *inPath == "" {
		log.Fatal("sstvdecode: -in is required")
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("sstvdecode: %v", err)
		}
		if err := config.RegisterExtraModes(cfg); err != nil {
			log.Fatalf("sstvdecode: %v", err)
		}
	}

	recorder := metrics.NewRecorder()
	broadcaster := livefeed.NewBroadcaster()

	if *listenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/ws", broadcaster)
		go func() {
			log.Printf("sstvdecode: serving on %s", *listenAddr)
			if err := http.ListenAndServe(*listenAddr, mux); err != nil {
				log.Printf("sstvdecode: http server stopped: %v", err)
			}
		}()
	}

	pipeline := sstv.NewPipeline(float64(*rate), log.Default())
	pipeline.ApplyTuning(cfg.VIS.ToneToleranceHz, cfg.VIS.MaxErrorMs, cfg.PD.AFCAlpha)

	var img *image.RGBA
	var mode sstv.ModeDescriptor

	pipeline.OnModeDetected(func(desc sstv.ModeDescriptor) {
		mode = desc
		log.Printf("sstvdecode: mode detected: %s (vis=%d)", desc.Name, desc.VISCode)
		broadcaster.Publish(livefeed.Event{Kind: "mode_detected", Mode: desc.Name, Width: desc.Width, Height: desc.Height})
		if desc.Family == sstv.FamilyPD {
			img = image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height))
		}
	})

	pipeline.OnLineDecoded(func(lineIndex int, pixels []sstv.Pixel) {
		recorder.LineDecoded(mode.Name, lineIndex)
		broadcaster.Publish(livefeed.Event{Kind: "line_decoded", Mode: mode.Name, LineIndex: lineIndex})
		if img == nil {
			return
		}
		for x, px := range pixels {
			img.SetRGBA(x, lineIndex, color.RGBA{R: px.R, G: px.G, B: px.B, A: 255})
		}
	})

	pipeline.OnImageComplete(func(width, height int) {
		recorder.ImageCompleted(mode.Name)
		broadcaster.Publish(livefeed.Event{Kind: "image_complete", Mode: mode.Name, Width: width, Height: height})
		log.Printf("sstvdecode: image complete %dx%d, writing %s", width, height, *outPath)
		if img == nil {
			return
		}
		if err := writePNG(*outPath, img); err != nil {
			log.Printf("sstvdecode: write png: %v", err)
		}
	})

	pipeline.OnVISReset(func(reason string) {
		recorder.VISReset(reason)
	})

	pipeline.OnAFCUpdate(func(mode string, offsetHz float64) {
		recorder.AFCUpdate(mode, offsetHz)
	})

	f, err := os.Open(*inPath)
	if err != nil {
		log.Fatalf("sstvdecode: %v", err)
	}
	defer f.Close()

	if err := feedFile(pipeline, f, *pcm16); err != nil && err != io.EOF {
		log.Fatalf("sstvdecode: %v", err)
	}
}

func feedFile(p *sstv.Pipeline, f *os.File, pcm16 bool) error {
	bytesPerSample := 4
	if pcm16 {
		bytesPerSample = 2
	}
	raw := make([]byte, blockSize*bytesPerSample)
	samples := make([]float64, 0, blockSize)

	for {
		n, err := io.ReadFull(f, raw)
		if n == 0 {
			if err == io.EOF {
				return nil
			}
			return err
		}

		samples = samples[:0]
		count := n / bytesPerSample
		for i := 0; i < count; i++ {
			if pcm16 {
				v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
				samples = append(samples, float64(v)/32768.0)
			} else {
				bits := binary.LittleEndian.Uint32(raw[i*4:])
				samples = append(samples, float64(math.Float32frombits(bits)))
			}
		}
		p.Process(samples)

		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func writePNG(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return png.Encode(f, img)
}
