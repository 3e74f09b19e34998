// Package pool provides reusable byte buffers for transfer paths.
// Downloads copy object bodies through the copy tier and content sniffing
// reads through the small tier; pooling them keeps hot paths from churning
// the allocator.
package pool

import (
	"sync"
)

const (
	// SmallBufferSize is the tier used for metadata-sized reads (64KB).
	SmallBufferSize = 64 * 1024

	// CopyBufferSize is the tier used for streaming object bodies (256KB).
	CopyBufferSize = 256 * 1024
)

// BufferPool manages reusable buffers in two size tiers.
type BufferPool struct {
	small *sync.Pool
	copy  *sync.Pool
}

// NewBufferPool creates a buffer pool with the default tier sizes.
func NewBufferPool() *BufferPool {
	return &BufferPool{
		small: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, SmallBufferSize)
				return &buf
			},
		},
		copy: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, CopyBufferSize)
				return &buf
			},
		},
	}
}

// GetCopy returns a full-length copy buffer suitable for io.CopyBuffer.
// The caller must return it with PutCopy.
func (bp *BufferPool) GetCopy() []byte {
	bufPtr := bp.copy.Get().(*[]byte)
	return (*bufPtr)[:CopyBufferSize]
}

// PutCopy returns a copy buffer to the pool.
// The buffer must not be used after calling PutCopy.
func (bp *BufferPool) PutCopy(buf []byte) {
	if cap(buf) != CopyBufferSize {
		return
	}
	buf = buf[:CopyBufferSize]
	bp.copy.Put(&buf)
}

// GetSmall returns a full-length small buffer.
// The caller must return it with PutSmall.
func (bp *BufferPool) GetSmall() []byte {
	bufPtr := bp.small.Get().(*[]byte)
	return (*bufPtr)[:SmallBufferSize]
}

// PutSmall returns a small buffer to the pool.
func (bp *BufferPool) PutSmall(buf []byte) {
	if cap(buf) != SmallBufferSize {
		return
	}
	buf = buf[:SmallBufferSize]
	bp.small.Put(&buf)
}

// Global buffer pool instance shared by the transfer paths.
var globalBufferPool = NewBufferPool()

// GetCopyBuffer returns a copy buffer from the global pool.
func GetCopyBuffer() []byte {
	return globalBufferPool.GetCopy()
}

// PutCopyBuffer returns a copy buffer to the global pool.
func PutCopyBuffer(buf []byte) {
	globalBufferPool.PutCopy(buf)
}

// GetSmallBuffer returns a small buffer from the global pool.
func GetSmallBuffer() []byte {
	return globalBufferPool.GetSmall()
}

// PutSmallBuffer returns a small buffer to the global pool.
func PutSmallBuffer(buf []byte) {
	globalBufferPool.PutSmall(buf)
}
