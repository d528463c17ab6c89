// Package wire implements the three wire protocols the engine speaks to a
// key-value store: RESP (Redis), memcache text, and memcache binary. Each
// implementation is a resumable parser: ParseResponse consumes whatever is
// currently queued and reports NeedMore rather than blocking when a reply
// is only partially available, so the caller can feed it arbitrarily
// chunked network reads.
package wire

import (
	"fmt"

	"kvbench/internal/buffer"
	"kvbench/internal/keylist"
	"kvbench/internal/response"
)

// ParseResult is the outcome of one ParseResponse call.
type ParseResult int

const (
	// NeedMore means the buffer did not yet hold a complete reply; no
	// bytes were consumed beyond what was needed to determine that.
	NeedMore ParseResult = iota
	// Complete means one full reply was parsed and resp now holds it.
	Complete
	// Fatal means the stream violated the protocol and the connection
	// using it should be torn down.
	Fatal
)

func (r ParseResult) String() string {
	switch r {
	case NeedMore:
		return "need-more"
	case Complete:
		return "complete"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Protocol is the wire-format contract the engine drives: it builds request
// bytes for the handful of operations memtier-style workloads issue, and
// parses whatever comes back. Operations a given protocol doesn't support
// (e.g. WAIT against memcache) return an error rather than a zero value.
type Protocol interface {
	// Clone returns an independent Protocol instance with the same
	// static configuration (e.g. keep-value) but fresh parser state,
	// for use on another connection.
	Clone() Protocol
	// SetKeepValue controls whether ParseResponse retains reply values
	// in resp, or discards them after accounting for their length.
	SetKeepValue(keep bool)

	SelectDB(db int) ([]byte, error)
	Authenticate(credentials string) ([]byte, error)
	WriteSet(key, value []byte, expiry uint32, offset uint32) ([]byte, error)
	WriteGet(key []byte, offset uint32) ([]byte, error)
	WriteGetKey(key []byte, offset uint32) ([]byte, error)
	WriteMultiGet(keys *keylist.List) ([]byte, error)
	WriteWait(numSlaves, timeout uint32) ([]byte, error)

	// ParseResponse advances the protocol's internal parser state against
	// buf. On Complete it has populated resp with exactly one logical
	// reply (latency stamped as given) and drained the bytes that reply
	// consumed; on NeedMore it has drained nothing further than required
	// to discover the shortfall.
	ParseResponse(buf buffer.ByteBuffer, latency uint32, resp *response.Response) ParseResult
}

// Factory returns a fresh Protocol for name, one of "redis",
// "memcache_text", or "memcache_binary".
func Factory(name string) (Protocol, error) {
	switch name {
	case "redis":
		return NewRedis(), nil
	case "memcache_text":
		return NewMemcacheText(), nil
	case "memcache_binary":
		return NewMemcacheBinary(), nil
	default:
		return nil, fmt.Errorf("wire: unknown protocol %q", name)
	}
}
