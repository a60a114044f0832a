package statuscheck

import (
	"errors"
	"strings"
	"testing"
)

type stubCodec struct {
	n   int
	err error
}

func (s stubCodec) PageCount([]byte) (int, error) { return s.n, s.err }

type stubRaster struct {
	openErr   error
	renderErr error
}

func (s stubRaster) Open([]byte) (RenderedProbe, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return stubProbe{renderErr: s.renderErr}, nil
}

type stubProbe struct{ renderErr error }

func (p stubProbe) RenderJPEG(int) ([]byte, int, int, error) {
	if p.renderErr != nil {
		return nil, 0, 0, p.renderErr
	}
	return []byte{0xff, 0xd8}, 1, 1, nil
}
func (p stubProbe) Close() error { return nil }

func TestSummaryAllHealthy(t *testing.T) {
	c := New(Options{Codec: stubCodec{n: 1}, Raster: stubRaster{}, LogDir: t.TempDir()})
	s := c.Summary()
	if !s.Healthy() {
		t.Fatalf("expected healthy summary, got %+v", s)
	}
}

func TestCodecFailureReported(t *testing.T) {
	c := New(Options{Codec: stubCodec{err: errors.New("corrupt xref")}, Raster: stubRaster{}})
	s := c.Summary()
	if s.Codec.OK {
		t.Fatal("codec probe should fail")
	}
	if !strings.Contains(s.Codec.Message, "corrupt xref") {
		t.Errorf("message = %q", s.Codec.Message)
	}
	if s.Healthy() {
		t.Fatal("summary with a failing probe must not be healthy")
	}
}

func TestCodecMiscountReported(t *testing.T) {
	c := New(Options{Codec: stubCodec{n: 3}, Raster: stubRaster{}})
	if s := c.Summary(); s.Codec.OK {
		t.Fatal("miscounting probe should fail")
	}
}

func TestRasterizerFailureReported(t *testing.T) {
	c := New(Options{Codec: stubCodec{n: 1}, Raster: stubRaster{openErr: errors.New("no mupdf")}})
	if s := c.Summary(); s.Rasterizer.OK {
		t.Fatal("open failure should fail the probe")
	}
	c = New(Options{Codec: stubCodec{n: 1}, Raster: stubRaster{renderErr: errors.New("render")}})
	if s := c.Summary(); s.Rasterizer.OK {
		t.Fatal("render failure should fail the probe")
	}
}

func TestLogsSkippedWhenDisabled(t *testing.T) {
	c := New(Options{Codec: stubCodec{n: 1}, Raster: stubRaster{}})
	if s := c.Summary(); !s.Logs.OK {
		t.Fatal("empty log dir means file logging disabled, not broken")
	}
}

func TestMissingDependenciesReported(t *testing.T) {
	c := New(Options{})
	s := c.Summary()
	if s.Codec.OK || s.Rasterizer.OK {
		t.Fatalf("nil probers should fail: %+v", s)
	}
}
