package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferPool_CopyTier(t *testing.T) {
	bp := NewBufferPool()

	buf := bp.GetCopy()
	assert.Len(t, buf, CopyBufferSize)

	bp.PutCopy(buf)
	again := bp.GetCopy()
	assert.Len(t, again, CopyBufferSize)
}

func TestBufferPool_SmallTier(t *testing.T) {
	bp := NewBufferPool()

	buf := bp.GetSmall()
	assert.Len(t, buf, SmallBufferSize)
	bp.PutSmall(buf)
}

func TestBufferPool_ForeignCapacityNotPooled(t *testing.T) {
	bp := NewBufferPool()

	// Wrong-sized buffers are dropped rather than poisoning a tier.
	bp.PutCopy(make([]byte, 10))
	buf := bp.GetCopy()
	assert.Len(t, buf, CopyBufferSize)
}

func TestGlobalPool(t *testing.T) {
	buf := GetCopyBuffer()
	assert.Len(t, buf, CopyBufferSize)
	PutCopyBuffer(buf)

	small := GetSmallBuffer()
	assert.Len(t, small, SmallBufferSize)
	PutSmallBuffer(small)
}
