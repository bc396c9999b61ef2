// Package buffer implements a fixed-capacity read/write cursor over a byte
// slice: the read-buffer/write-buffer half of every Connection. Capacity is
// set once at creation; there is no reallocation.
package buffer

// Buffer is a linear read/write cursor over a fixed capacity region.
// Invariant: 0 <= read <= written <= cap(data).
type Buffer struct {
	data    []byte
	written int
	read    int
	// ungettable is true only right after a Read that actually consumed at
	// least one byte and before any Reset; Unget is only legal then.
	ungettable bool
}

// New allocates a Buffer with the given fixed capacity.
func New(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// Wrap builds a Buffer over an existing, already-capacity-sized slice
// instead of allocating one, for callers that source storage from a pool
// (e.g. a tiered response-buffer pool) rather than letting New allocate.
func Wrap(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Size returns the fixed capacity N.
func (b *Buffer) Size() int { return len(b.data) }

// CanRead returns written - read.
func (b *Buffer) CanRead() int { return b.written - b.read }

// CanWrite returns N - written, unless read == written, in which case the
// cursors are implicitly reset and the full N is reported.
func (b *Buffer) CanWrite() int {
	if b.read == b.written {
		return len(b.data)
	}
	return len(b.data) - b.written
}

// Write copies up to min(CanWrite(), len(src)) bytes and returns the count
// actually copied. If the buffer is fully drained (read == written) and src
// doesn't fit in the remaining tail, the cursors reset first to make the
// full capacity available again.
func (b *Buffer) Write(src []byte) int {
	if len(src) == 0 {
		return 0
	}

	if len(src) > len(b.data)-b.written {
		if b.read == b.written {
			b.written, b.read = 0, 0
		}
	}

	n := len(src)
	if avail := len(b.data) - b.written; n > avail {
		n = avail
	}
	if n <= 0 {
		return 0
	}

	copy(b.data[b.written:b.written+n], src[:n])
	b.written += n
	return n
}

// Read copies up to min(CanRead(), len(dst)) bytes, advances the read
// cursor, and resets the buffer if the cursor caught up with written.
func (b *Buffer) Read(dst []byte) int {
	navail := b.CanRead()
	n := len(dst)
	if n > navail {
		n = navail
	}
	if n <= 0 {
		return 0
	}

	copy(dst[:n], b.data[b.read:b.read+n])
	b.read += n
	b.ungettable = n > 0

	if b.read == b.written {
		b.read, b.written = 0, 0
	}
	return n
}

// Unget decrements the read cursor by one, undoing the last byte consumed
// by Read. It fails (returns false) if no byte has been read since the last
// reset — including the implicit reset Read performs when it drains the
// buffer completely.
func (b *Buffer) Unget() bool {
	if !b.ungettable || b.read == 0 {
		return false
	}
	b.read--
	b.ungettable = false
	return true
}

// Data returns the unread region [read:written) directly; callers must not
// retain it across further Write/Read calls.
func (b *Buffer) Data() []byte {
	return b.data[b.read:b.written]
}

// Reset discards all buffered content without zeroing the backing array.
func (b *Buffer) Reset() {
	b.read, b.written = 0, 0
	b.ungettable = false
}

// Set fills the whole backing array with v without moving either cursor;
// used to pre-zero a region before building a NUL-terminated string view of
// it.
func (b *Buffer) Set(v byte) {
	for i := range b.data {
		b.data[i] = v
	}
}
