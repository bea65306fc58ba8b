package preview

import (
	"bytes"
	"image"
	"image/jpeg"
	"sync"
)

const maxPooledBuffer = 512 * 1024

var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBuffer {
		return
	}
	bufferPool.Put(buf)
}

// EncodeJPEG encodes img at quality and returns a slice the caller owns.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}
