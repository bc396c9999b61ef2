// Package conn implements the buffered connection: one socket paired with a
// read buffer, a write buffer, and a per-call timeout/retry policy.
package conn

import (
	"github.com/searchktools/netcore/buffer"
	"github.com/searchktools/netcore/serr"
	"github.com/searchktools/netcore/socket"
)

// Policy bundles the per-op timeout and retry budget a Connection uses for
// every socket read/write it performs internally.
type Policy struct {
	ReadTimeoutMs  int
	WriteTimeoutMs int
	ReadRetries    int
	WriteRetries   int
}

// Connection composes a Socket with a read buffer and a write buffer.
// Reads drain the read buffer first, refilling from the socket only when it
// is empty; writes buffer locally and flush only when the buffer can't hold
// the next write.
type Connection struct {
	sock   socket.Socket
	rbuf   *buffer.Buffer
	wbuf   *buffer.Buffer
	policy Policy

	persistent bool

	bytesRead    uint64
	bytesWritten uint64
}

// New wraps an already-connected or already-accepted socket with fresh
// buffers of the given sizes.
func New(s socket.Socket, readBufSize, writeBufSize int, p Policy) *Connection {
	return &Connection{
		sock:       s,
		rbuf:       buffer.New(readBufSize),
		wbuf:       buffer.New(writeBufSize),
		policy:     p,
		persistent: true,
	}
}

// Connect dials host:port as a client and wraps the resulting socket.
func Connect(kind socket.Kind, host string, port int, readBufSize, writeBufSize int, p Policy) (*Connection, error) {
	var s socket.Socket
	if kind == socket.KindTLS {
		return nil, serr.New(serr.Configuration, "connect", nil)
	}
	s = socket.NewTCP()
	if err := s.Connect(host, port, p.ReadTimeoutMs); err != nil {
		return nil, err
	}
	return New(s, readBufSize, writeBufSize, p), nil
}

// refill performs at most one OS read into the read buffer, per the "one
// refill only when canread == 0" invariant.
func (c *Connection) refill() error {
	if c.rbuf.CanRead() > 0 {
		return nil
	}

	c.rbuf.Reset()
	scratch := make([]byte, c.rbuf.Size())
	n, err := c.sock.Read(scratch, c.policy.ReadTimeoutMs, c.policy.ReadRetries)
	if err != nil {
		return err
	}
	c.rbuf.Write(scratch[:n])
	c.bytesRead += uint64(n)
	return nil
}

// Getc returns one byte, refilling the read buffer from the socket when
// empty.
func (c *Connection) Getc() (byte, error) {
	if c.rbuf.CanRead() == 0 {
		if err := c.refill(); err != nil {
			return 0, err
		}
	}

	var b [1]byte
	if n := c.rbuf.Read(b[:]); n == 0 {
		return 0, serr.New(serr.IO, "getc", nil)
	}
	return b[0], nil
}

// Gets reads up to len(dst)-1 bytes or until '\n' inclusive, whichever comes
// first, zero-terminating the tail if room remains. It returns the number
// of bytes placed into dst, not counting the terminating NUL.
func (c *Connection) Gets(dst []byte) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	limit := len(dst) - 1
	i := 0
	for i < limit {
		b, err := c.Getc()
		if err != nil {
			if i > 0 && serr.Is(err, serr.PeerClosed) {
				break
			}
			return i, err
		}
		dst[i] = b
		i++
		if b == '\n' {
			break
		}
	}
	dst[i] = 0
	return i, nil
}

// Read drains the read buffer first; when the buffer is both empty and
// smaller than the residual need it bypasses the buffer and reads straight
// from the socket, otherwise it refills once and copies.
func (c *Connection) Read(dst []byte) (int, error) {
	total := 0
	for total < len(dst) {
		if c.rbuf.CanRead() > 0 {
			total += c.rbuf.Read(dst[total:])
			continue
		}

		remaining := len(dst) - total
		if remaining >= c.rbuf.Size() {
			n, err := c.sock.Read(dst[total:], c.policy.ReadTimeoutMs, c.policy.ReadRetries)
			if err != nil {
				return total, err
			}
			c.bytesRead += uint64(n)
			total += n
			continue
		}

		if err := c.refill(); err != nil {
			return total, err
		}
		if c.rbuf.CanRead() == 0 {
			break
		}
	}
	return total, nil
}

// flushIfShort flushes the write buffer if it can't hold n more bytes.
func (c *Connection) flushIfShort(n int) error {
	if c.wbuf.CanWrite() < n {
		return c.Flush()
	}
	return nil
}

// Putc buffers one byte, flushing first if there's no room.
func (c *Connection) Putc(ch byte) error {
	if err := c.flushIfShort(1); err != nil {
		return err
	}
	if c.wbuf.Write([]byte{ch}) == 0 {
		return c.sock.Write([]byte{ch}, c.policy.WriteTimeoutMs, c.policy.WriteRetries)
	}
	return nil
}

// Puts buffers a string, equivalent to Write([]byte(s)).
func (c *Connection) Puts(s string) error {
	return c.Write([]byte(s))
}

// Write buffers buf, flushing first if it doesn't fit; if it still doesn't
// fit after a flush it's written straight to the socket.
func (c *Connection) Write(buf []byte) error {
	if err := c.flushIfShort(len(buf)); err != nil {
		return err
	}

	if c.wbuf.CanWrite() < len(buf) {
		if err := c.sock.Write(buf, c.policy.WriteTimeoutMs, c.policy.WriteRetries); err != nil {
			return err
		}
		c.bytesWritten += uint64(len(buf))
		return nil
	}
	c.wbuf.Write(buf)
	return nil
}

// Flush drains the write buffer to the socket.
func (c *Connection) Flush() error {
	if c.wbuf.CanRead() == 0 {
		return nil
	}
	data := c.wbuf.Data()
	if err := c.sock.Write(data, c.policy.WriteTimeoutMs, c.policy.WriteRetries); err != nil {
		return err
	}
	c.bytesWritten += uint64(len(data))
	c.wbuf.Reset()
	return nil
}

// Close flushes the write buffer then closes the socket. Both errors are
// reported; the flush error takes priority since it implies data loss.
func (c *Connection) Close() error {
	ferr := c.Flush()
	cerr := c.sock.Close()
	if ferr != nil {
		return ferr
	}
	return cerr
}

// Ungetc unreads one byte via the read buffer.
func (c *Connection) Ungetc(ch byte) bool {
	if c.rbuf.Unget() {
		return true
	}
	// The read buffer had nothing to unget (e.g. it was just drained and
	// reset); re-seed a single byte so the next Getc sees it.
	return c.rbuf.Write([]byte{ch}) == 1
}

// SetPersistent sets the HTTP keep-alive hint.
func (c *Connection) SetPersistent(v bool) { c.persistent = v }

// IsPersistent reports the HTTP keep-alive hint.
func (c *Connection) IsPersistent() bool { return c.persistent }

// DetachBuffers removes and returns this connection's read and write
// buffers so a pool can recycle them independently of the connection
// struct.
func (c *Connection) DetachBuffers() (read, write *buffer.Buffer) {
	read, write = c.rbuf, c.wbuf
	c.rbuf, c.wbuf = nil, nil
	return read, write
}

// AttachBuffers installs caller-owned buffers, replacing whatever this
// connection currently holds.
func (c *Connection) AttachBuffers(read, write *buffer.Buffer) {
	c.rbuf, c.wbuf = read, write
}

// BytesRead returns the monotonically increasing count of bytes read from
// the underlying socket across this connection's lifetime.
func (c *Connection) BytesRead() uint64 { return c.bytesRead }

// BytesWritten returns the monotonically increasing count of bytes written
// to the underlying socket across this connection's lifetime.
func (c *Connection) BytesWritten() uint64 { return c.bytesWritten }

// Socket returns the underlying Socket, e.g. for peer-address admission
// checks in the TCP server.
func (c *Connection) Socket() socket.Socket { return c.sock }

// Recycle resets persistence and buffer state for reuse by a new
// transaction, without reallocating the buffers or the socket.
func (c *Connection) Recycle() {
	c.persistent = true
	if c.rbuf != nil {
		c.rbuf.Reset()
	}
	if c.wbuf != nil {
		c.wbuf.Reset()
	}
}
