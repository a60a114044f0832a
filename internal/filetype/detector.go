package filetype

import (
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Detector classifies uploaded buffers by magic bytes, not filename.
type Detector struct{}

func New() *Detector {
	return &Detector{}
}

// Detect returns the detected MIME type string for the buffer.
func (d *Detector) Detect(data []byte) string {
	mtype := mimetype.Detect(data)
	log.Debug().Str("mime", mtype.String()).Str("ext", mtype.Extension()).Msg("detected upload type")
	return mtype.String()
}

// IsPDF reports whether the buffer is a PDF by content, regardless of the
// name it was uploaded under.
func (d *Detector) IsPDF(data []byte) bool {
	return mimetype.Detect(data).Is("application/pdf")
}
