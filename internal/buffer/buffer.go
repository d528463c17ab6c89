// Package buffer implements the ByteBuffer abstraction the protocol engine
// is built on: an append-only outbound queue and a drain-as-you-go inbound
// queue, both backed by a single growable byte slice so a caller can use one
// PooledBuffer for writes and another for reads without either side ever
// blocking.
package buffer

import (
	"bytes"
	"fmt"

	"github.com/valyala/bytebufferpool"
)

// ByteBuffer is the streaming byte queue the engine requires from its host.
// All operations are synchronous and never suspend; on the read side, a
// short buffer is the normal case and is reported via the bool return, not
// an error.
type ByteBuffer interface {
	// Append appends p and returns the number of bytes written.
	Append(p []byte) int
	// AppendFormatted appends a formatted string and returns the number of
	// bytes written.
	AppendFormatted(format string, args ...any) int
	// ReadLine returns one CRLF-terminated logical line, without the
	// terminator. ok is false when a full line is not yet available.
	ReadLine() (line []byte, ok bool)
	// PeekLen reports how many unread bytes are currently queued.
	PeekLen() int
	// Read drains exactly n bytes and returns a copy of them. ok is false
	// (no bytes consumed) when fewer than n bytes are available.
	Read(n int) (data []byte, ok bool)
	// Drain discards exactly n bytes without copying them. ok is false (no
	// bytes consumed) when fewer than n bytes are available.
	Drain(n int) (ok bool)
}

var pool bytebufferpool.Pool

// PooledBuffer is the default ByteBuffer, backed by a pooled, geometrically
// growing []byte. The unread region is [pos:len(buf.B)]; Reset returns the
// backing array to the shared pool.
type PooledBuffer struct {
	buf *bytebufferpool.ByteBuffer
	pos int
}

// New returns a PooledBuffer with its backing array drawn from the shared
// pool.
func New() *PooledBuffer {
	return &PooledBuffer{buf: pool.Get()}
}

// Reset empties the buffer and returns its backing array to the pool. The
// PooledBuffer immediately acquires a fresh array from the pool.
func (b *PooledBuffer) Reset() {
	pool.Put(b.buf)
	b.buf = pool.Get()
	b.pos = 0
}

func (b *PooledBuffer) Append(p []byte) int {
	b.buf.Write(p)
	return len(p)
}

func (b *PooledBuffer) AppendFormatted(format string, args ...any) int {
	before := len(b.buf.B)
	fmt.Fprintf(b.buf, format, args...)
	return len(b.buf.B) - before
}

func (b *PooledBuffer) ReadLine() (line []byte, ok bool) {
	unread := b.buf.B[b.pos:]
	// CRLF-strict: a bare '\n' with no preceding '\r' is not a terminator,
	// so keep searching past it for a real "\r\n" (evbuffer_readln's
	// EVBUFFER_EOL_CRLF_STRICT does a substring search, not "stop at the
	// first LF").
	idx := bytes.Index(unread, []byte("\r\n"))
	if idx == -1 {
		return nil, false
	}
	// Copied, because the compaction below may slide later bytes over the
	// region the line was read from.
	line = append([]byte(nil), unread[:idx]...)
	b.pos += idx + 2
	b.compactIfWorthwhile()
	return line, true
}

func (b *PooledBuffer) PeekLen() int {
	return len(b.buf.B) - b.pos
}

func (b *PooledBuffer) Read(n int) ([]byte, bool) {
	if b.PeekLen() < n {
		return nil, false
	}
	data := make([]byte, n)
	copy(data, b.buf.B[b.pos:b.pos+n])
	b.pos += n
	b.compactIfWorthwhile()
	return data, true
}

func (b *PooledBuffer) Drain(n int) bool {
	if b.PeekLen() < n {
		return false
	}
	b.pos += n
	b.compactIfWorthwhile()
	return true
}

// compactIfWorthwhile slides the unread tail to the front once the consumed
// prefix dominates the buffer, so long-lived connections don't grow their
// backing array unbounded purely from drained bytes.
func (b *PooledBuffer) compactIfWorthwhile() {
	if b.pos == 0 {
		return
	}
	if b.pos < 4096 && b.pos*2 < len(b.buf.B) {
		return
	}
	remaining := copy(b.buf.B, b.buf.B[b.pos:])
	b.buf.B = b.buf.B[:remaining]
	b.pos = 0
}
