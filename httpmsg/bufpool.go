package httpmsg

import "sync"

// Response body size tiers, mirroring the teacher's three-tier response
// buffer pool: most handler bodies are small, a JSON-shaped body is
// medium, and anything past that is large enough that pooling it barely
// helps and just holds onto memory.
const (
	smallBodySize  = 2 * 1024
	mediumBodySize = 8 * 1024
	largeBodySize  = 32 * 1024
)

var bodyPool = struct {
	small, medium, large sync.Pool
}{
	small:  sync.Pool{New: func() any { b := make([]byte, smallBodySize); return &b }},
	medium: sync.Pool{New: func() any { b := make([]byte, mediumBodySize); return &b }},
	large:  sync.Pool{New: func() any { b := make([]byte, largeBodySize); return &b }},
}

// acquireBody returns a pooled byte slice with capacity at least size,
// tiered by size class; requests past the largest tier allocate directly
// rather than grow the pool's footprint for an outlier.
func acquireBody(size int) *[]byte {
	switch {
	case size <= smallBodySize:
		return bodyPool.small.Get().(*[]byte)
	case size <= mediumBodySize:
		return bodyPool.medium.Get().(*[]byte)
	case size <= largeBodySize:
		return bodyPool.large.Get().(*[]byte)
	default:
		b := make([]byte, size)
		return &b
	}
}

// releaseBody returns buf to its tier's pool. A buffer whose capacity
// doesn't match one of the three tiers (the oversized case acquireBody
// allocated directly) is left for the garbage collector.
func releaseBody(buf *[]byte) {
	if buf == nil {
		return
	}
	switch cap(*buf) {
	case smallBodySize:
		bodyPool.small.Put(buf)
	case mediumBodySize:
		bodyPool.medium.Put(buf)
	case largeBodySize:
		bodyPool.large.Put(buf)
	}
}
