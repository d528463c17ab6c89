package wire

import (
	"bytes"
	"fmt"
	"strconv"

	"kvbench/internal/buffer"
	"kvbench/internal/keylist"
	"kvbench/internal/response"
)

type memcacheTextState int

const (
	mcTextInitial memcacheTextState = iota
	mcTextReadSection
	mcTextReadValue
)

// MemcacheText speaks the memcache line-oriented protocol
// (original_source/protocol.cpp's memcache_text_protocol). SELECT DB and
// AUTH have no equivalent in this protocol and are rejected.
type MemcacheText struct {
	keepValue bool

	state    memcacheTextState
	valueLen uint32
	respLen  uint32
}

// NewMemcacheText returns a MemcacheText protocol ready to encode requests
// and parse replies.
func NewMemcacheText() *MemcacheText {
	return &MemcacheText{}
}

func (m *MemcacheText) Clone() Protocol {
	return &MemcacheText{keepValue: m.keepValue}
}

func (m *MemcacheText) SetKeepValue(keep bool) { m.keepValue = keep }

func (m *MemcacheText) SelectDB(db int) ([]byte, error) {
	return nil, fmt.Errorf("wire: SELECT is not supported for memcache text")
}

func (m *MemcacheText) Authenticate(credentials string) ([]byte, error) {
	return nil, fmt.Errorf("wire: AUTH is not supported for memcache text")
}

func (m *MemcacheText) WriteSet(key, value []byte, expiry uint32, offset uint32) ([]byte, error) {
	if len(key) == 0 || len(value) == 0 {
		return nil, fmt.Errorf("wire: memcache text SET requires a non-empty key and value")
	}
	out := []byte(fmt.Sprintf("set %s 0 %d %d\r\n", key, expiry, len(value)))
	out = append(out, value...)
	return append(out, '\r', '\n'), nil
}

func (m *MemcacheText) WriteGet(key []byte, offset uint32) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("wire: memcache text GET requires a non-empty key")
	}
	return []byte(fmt.Sprintf("get %s\r\n", key)), nil
}

// WriteGetKey is identical to WriteGet: memcache text GET already returns
// the key alongside the value.
func (m *MemcacheText) WriteGetKey(key []byte, offset uint32) ([]byte, error) {
	return m.WriteGet(key, offset)
}

func (m *MemcacheText) WriteMultiGet(keys *keylist.List) ([]byte, error) {
	if keys.Len() == 0 {
		return nil, fmt.Errorf("wire: multi-get requires at least one key")
	}
	out := []byte("get")
	for i := 0; i < keys.Len(); i++ {
		key, _ := keys.GetKey(i)
		out = append(out, ' ')
		out = append(out, key...)
	}
	return append(out, '\r', '\n'), nil
}

func (m *MemcacheText) WriteWait(numSlaves, timeout uint32) ([]byte, error) {
	return nil, fmt.Errorf("wire: WAIT is not supported for memcache")
}

func (m *MemcacheText) ParseResponse(buf buffer.ByteBuffer, latency uint32, resp *response.Response) ParseResult {
	for {
		switch m.state {
		case mcTextInitial:
			resp.Clear()
			m.respLen = 0
			m.state = mcTextReadSection

		case mcTextReadSection:
			line, ok := buf.ReadLine()
			if !ok {
				return NeedMore
			}
			m.respLen += uint32(len(line)) + 2

			if resp.Status() == nil {
				resp.SetStatus(string(line))
			}
			resp.SetTotalLen(uint(m.respLen))

			switch {
			case bytes.HasPrefix(line, []byte("VALUE")):
				fields := bytes.Fields(line)
				if len(fields) < 4 || len(fields) > 5 {
					resp.SetError(true)
					return Fatal
				}
				n, err := strconv.ParseUint(string(fields[3]), 10, 32)
				if err != nil {
					resp.SetError(true)
					return Fatal
				}
				m.valueLen = uint32(n)
				resp.SetLatency(uint(latency))
				m.state = mcTextReadValue
				continue
			case bytes.HasPrefix(line, []byte("END")), bytes.HasPrefix(line, []byte("STORED")):
				resp.SetLatency(uint(latency))
				m.state = mcTextInitial
				return Complete
			default:
				resp.SetError(true)
				return Fatal
			}

		case mcTextReadValue:
			if buf.PeekLen() < int(m.valueLen)+2 {
				return NeedMore
			}
			if m.keepValue {
				value, ok := buf.Read(int(m.valueLen))
				if !ok {
					return NeedMore
				}
				buf.Drain(2)
				resp.SetValue(value, nil)
			} else {
				buf.Drain(int(m.valueLen) + 2)
			}
			resp.IncrHits()
			m.respLen += m.valueLen + 2
			m.state = mcTextReadSection

		default:
			return Fatal
		}
	}
}
