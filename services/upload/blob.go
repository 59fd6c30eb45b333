package upload

import (
	"bytes"
	"io"
)

// Blob is a file's full contents held in memory, ready to upload
type Blob struct {
	Data        []byte
	ContentType string
	// Strategy names the acquisition strategy that produced the blob
	Strategy string
}

func (b *Blob) Size() int64 {
	if b == nil {
		return 0
	}
	return int64(len(b.Data))
}

func (b *Blob) Reader() io.Reader {
	return bytes.NewReader(b.Data)
}
