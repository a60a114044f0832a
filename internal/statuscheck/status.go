// Package statuscheck probes the subsystems the editor depends on. Both
// probes run a real operation against a tiny generated PDF, so a broken
// pdfcpu configuration or a missing MuPDF shared library shows up here
// instead of on the first user upload.
package statuscheck

import (
	"os"
	"path/filepath"
	"time"

	"github.com/maotai11/pdf-editor-tool/internal/pdftest"
)

// CodecProber is the slice of the codec used for the probe.
type CodecProber interface {
	PageCount(data []byte) (int, error)
}

// RasterProber is the slice of the renderer used for the probe.
type RasterProber interface {
	Open(data []byte) (RenderedProbe, error)
}

// RenderedProbe is one opened probe document.
type RenderedProbe interface {
	RenderJPEG(pageIndex int) ([]byte, int, int, error)
	Close() error
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
	Codec      Status        `json:"codec"`
	Rasterizer Status        `json:"rasterizer"`
	Logs       Status        `json:"logs"`
	Took       time.Duration `json:"took_ns"`
}

// Healthy reports whether every subsystem passed.
func (s Summary) Healthy() bool {
	return s.Codec.OK && s.Rasterizer.OK && s.Logs.OK
}

// Checker aggregates the probes.
type Checker struct {
	codec  CodecProber
	raster RasterProber
	logDir string
	probe  []byte
}

// Options configures the Checker. LogDir may be empty when file logging is
// disabled.
type Options struct {
	Codec  CodecProber
	Raster RasterProber
	LogDir string
}

func New(opts Options) *Checker {
	return &Checker{
		codec:  opts.Codec,
		raster: opts.Raster,
		logDir: opts.LogDir,
		probe:  pdftest.Build(1),
	}
}

// Summary runs all probes and returns the snapshot.
func (c *Checker) Summary() Summary {
	start := time.Now()
	return Summary{
		Codec:      c.checkCodec(),
		Rasterizer: c.checkRasterizer(),
		Logs:       c.checkLogs(),
		Took:       time.Since(start),
	}
}

func (c *Checker) checkCodec() Status {
	if c.codec == nil {
		return Status{OK: false, Message: "codec unavailable"}
	}
	n, err := c.codec.PageCount(c.probe)
	if err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	if n != 1 {
		return Status{OK: false, Message: "probe miscounted"}
	}
	return Status{OK: true, Message: "Available"}
}

func (c *Checker) checkRasterizer() Status {
	if c.raster == nil {
		return Status{OK: false, Message: "renderer unavailable"}
	}
	doc, err := c.raster.Open(c.probe)
	if err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	defer doc.Close()
	thumb, _, _, err := doc.RenderJPEG(0)
	if err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	if len(thumb) == 0 {
		return Status{OK: false, Message: "empty render"}
	}
	return Status{OK: true, Message: "Available"}
}

func (c *Checker) checkLogs() Status {
	if c.logDir == "" {
		return Status{OK: true, Message: "File logging disabled"}
	}
	probe := filepath.Join(c.logDir, ".statuscheck")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	_ = os.Remove(probe)
	return Status{OK: true, Message: "Writable"}
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
