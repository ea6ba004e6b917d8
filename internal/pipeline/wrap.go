package pipeline

import (
	"io"
	"sync"

	"github.com/terriblecrypt/terrible/internal/keystream"
)

// bufferPool is a shared buffer pool for the streaming loops
var bufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 64*1024) // 64KB buffers
		return &buf
	},
}

// GetBuffer gets a buffer from the pool
func GetBuffer() *[]byte {
	return bufferPool.Get().(*[]byte)
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *[]byte) {
	bufferPool.Put(buf)
}

// cryptReader XORs everything read through it with a keystream
type cryptReader struct {
	reader io.Reader
	gen    *keystream.Generator
}

// NewCryptReader wraps r so reads come back XORed with the keystream for
// key. Used by serve mode, where the pull loop belongs to the HTTP stack.
func NewCryptReader(r io.Reader, key []byte) (io.Reader, error) {
	g, err := keystream.New(key)
	if err != nil {
		return nil, err
	}
	return &cryptReader{reader: r, gen: g}, nil
}

func (r *cryptReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.gen.Transform(p[:n])
	}
	return n, err
}
