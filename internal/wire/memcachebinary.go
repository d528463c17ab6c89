package wire

import (
	"encoding/binary"
	"fmt"
	"strings"

	"kvbench/internal/buffer"
	"kvbench/internal/keylist"
	"kvbench/internal/response"
)

const binaryHeaderSize = 24

const (
	magicRequest  byte = 0x80
	magicResponse byte = 0x81
)

const (
	opGet      byte = 0x00
	opSet      byte = 0x01
	opGetK     byte = 0x0c
	opGetKQ    byte = 0x0d
	opSASLAuth byte = 0x21
)

const (
	statusSuccess          uint16 = 0x00
	statusKeyNotFound      uint16 = 0x01
	statusKeyExists        uint16 = 0x02
	statusTooLarge         uint16 = 0x03
	statusInvalidArgs      uint16 = 0x04
	statusNotStored        uint16 = 0x05
	statusDeltaBadValue    uint16 = 0x06
	statusNotMyVBucket     uint16 = 0x07
	statusAuthError        uint16 = 0x20
	statusAuthContinue     uint16 = 0x21
	statusUnknownCommand   uint16 = 0x81
	statusOutOfMemory      uint16 = 0x82
	statusNotSupported     uint16 = 0x83
	statusInternalError    uint16 = 0x84
	statusBusy             uint16 = 0x85
	statusTemporaryFailure uint16 = 0x86
)

var binaryStatusStrings = map[uint16]string{
	statusSuccess:          "PROTOCOL_BINARY_RESPONSE_SUCCESS",
	statusKeyNotFound:      "PROTOCOL_BINARY_RESPONSE_KEY_ENOENT",
	statusKeyExists:        "PROTOCOL_BINARY_RESPONSE_KEY_EEXISTS",
	statusTooLarge:         "PROTOCOL_BINARY_RESPONSE_E2BIG",
	statusInvalidArgs:      "PROTOCOL_BINARY_RESPONSE_EINVAL",
	statusNotStored:        "PROTOCOL_BINARY_RESPONSE_NOT_STORED",
	statusDeltaBadValue:    "PROTOCOL_BINARY_RESPONSE_DELTA_BADVAL",
	statusNotMyVBucket:     "PROTOCOL_BINARY_RESPONSE_NOT_MY_VBUCKET",
	statusAuthError:        "PROTOCOL_BINARY_RESPONSE_AUTH_ERROR",
	statusAuthContinue:     "PROTOCOL_BINARY_RESPONSE_AUTH_CONTINUE",
	statusUnknownCommand:   "PROTOCOL_BINARY_RESPONSE_UNKNOWN_COMMAND",
	statusOutOfMemory:      "PROTOCOL_BINARY_RESPONSE_ENOMEM",
	statusNotSupported:     "PROTOCOL_BINARY_RESPONSE_NOT_SUPPORTED",
	statusInternalError:    "PROTOCOL_BINARY_RESPONSE_EINTERNAL",
	statusBusy:             "PROTOCOL_BINARY_RESPONSE_EBUSY",
	statusTemporaryFailure: "PROTOCOL_BINARY_RESPONSE_ETMPFAIL",
}

// BinaryStatusString returns the libmemcached-style name for a memcache
// binary protocol status code. ok is false for a status this table doesn't
// recognize.
func BinaryStatusString(status uint16) (name string, ok bool) {
	name, ok = binaryStatusStrings[status]
	return name, ok
}

func isBinaryErrorStatus(status uint16) bool {
	switch status {
	case statusInvalidArgs, statusAuthError, statusAuthContinue,
		statusNotSupported, statusUnknownCommand, statusBusy:
		return true
	default:
		return false
	}
}

func encodeBinaryHeader(opcode byte, keyLen uint16, extLen uint8, bodyLen uint32) []byte {
	hdr := make([]byte, binaryHeaderSize)
	hdr[0] = magicRequest
	hdr[1] = opcode
	binary.BigEndian.PutUint16(hdr[2:4], keyLen)
	hdr[4] = extLen
	binary.BigEndian.PutUint32(hdr[8:12], bodyLen)
	return hdr
}

type memcacheBinaryState int

const (
	mcBinInitial memcacheBinaryState = iota
	mcBinHeader
	mcBinBody
)

// MemcacheBinary speaks the memcache binary protocol: a fixed 24-byte
// header in network byte order followed by extras, key, and value
// (original_source/protocol.cpp's memcache_binary_protocol). Multi-get is
// issued as a GETKQ burst terminated by a single GETK, and quiet replies
// are folded into the response that completes the batch.
type MemcacheBinary struct {
	keepValue bool

	state   memcacheBinaryState
	respLen uint32

	opcode  byte
	status  uint16
	keyLen  uint16
	extLen  uint8
	bodyLen uint32
}

// NewMemcacheBinary returns a MemcacheBinary protocol ready to encode
// requests and parse replies.
func NewMemcacheBinary() *MemcacheBinary {
	return &MemcacheBinary{}
}

func (m *MemcacheBinary) Clone() Protocol {
	return &MemcacheBinary{keepValue: m.keepValue}
}

func (m *MemcacheBinary) SetKeepValue(keep bool) { m.keepValue = keep }

func (m *MemcacheBinary) SelectDB(db int) ([]byte, error) {
	return nil, fmt.Errorf("wire: SELECT is not supported for memcache binary")
}

func (m *MemcacheBinary) Authenticate(credentials string) ([]byte, error) {
	idx := strings.IndexByte(credentials, ':')
	if idx < 0 {
		return nil, fmt.Errorf("wire: memcache binary AUTH requires credentials in user:password form")
	}
	user, passwd := credentials[:idx], credentials[idx+1:]
	const mechanism = "PLAIN"

	bodyLen := uint32(len(mechanism) + 1 + len(user) + 1 + len(passwd))
	out := encodeBinaryHeader(opSASLAuth, uint16(len(mechanism)), 0, bodyLen)
	out = append(out, mechanism...)
	out = append(out, 0)
	out = append(out, user...)
	out = append(out, 0)
	out = append(out, passwd...)
	return out, nil
}

func (m *MemcacheBinary) WriteSet(key, value []byte, expiry uint32, offset uint32) ([]byte, error) {
	if len(key) == 0 || len(value) == 0 {
		return nil, fmt.Errorf("wire: memcache binary SET requires a non-empty key and value")
	}
	extras := make([]byte, 8) // flags(4)=0, expiration(4)
	binary.BigEndian.PutUint32(extras[4:8], expiry)

	bodyLen := uint32(len(extras) + len(key) + len(value))
	out := encodeBinaryHeader(opSet, uint16(len(key)), uint8(len(extras)), bodyLen)
	out = append(out, extras...)
	out = append(out, key...)
	out = append(out, value...)
	return out, nil
}

func (m *MemcacheBinary) WriteGet(key []byte, offset uint32) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("wire: memcache binary GET requires a non-empty key")
	}
	out := encodeBinaryHeader(opGet, uint16(len(key)), 0, uint32(len(key)))
	return append(out, key...), nil
}

func (m *MemcacheBinary) WriteGetKey(key []byte, offset uint32) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("wire: memcache binary GET KEY requires a non-empty key")
	}
	out := encodeBinaryHeader(opGetK, uint16(len(key)), 0, uint32(len(key)))
	return append(out, key...), nil
}

func (m *MemcacheBinary) WriteMultiGet(keys *keylist.List) ([]byte, error) {
	n := keys.Len()
	if n == 0 {
		return nil, fmt.Errorf("wire: multi-get requires at least one key")
	}

	var out []byte
	for i := 0; i < n-1; i++ {
		key, _ := keys.GetKey(i)
		out = append(out, encodeBinaryHeader(opGetKQ, uint16(len(key)), 0, uint32(len(key)))...)
		out = append(out, key...)
	}
	last, _ := keys.GetKey(n - 1)
	out = append(out, encodeBinaryHeader(opGetK, uint16(len(last)), 0, uint32(len(last)))...)
	out = append(out, last...)
	return out, nil
}

func (m *MemcacheBinary) WriteWait(numSlaves, timeout uint32) ([]byte, error) {
	return nil, fmt.Errorf("wire: WAIT is not supported for memcache")
}

func (m *MemcacheBinary) ParseResponse(buf buffer.ByteBuffer, latency uint32, resp *response.Response) ParseResult {
	for {
		switch m.state {
		case mcBinInitial:
			resp.Clear()
			m.respLen = 0
			m.state = mcBinHeader
			continue

		case mcBinHeader:
			if buf.PeekLen() < binaryHeaderSize {
				return NeedMore
			}
			hdr, ok := buf.Read(binaryHeaderSize)
			if !ok {
				return NeedMore
			}
			if hdr[0] != magicResponse {
				return Fatal
			}

			m.opcode = hdr[1]
			m.keyLen = binary.BigEndian.Uint16(hdr[2:4])
			m.extLen = hdr[4]
			m.status = binary.BigEndian.Uint16(hdr[6:8])
			m.bodyLen = binary.BigEndian.Uint32(hdr[8:12])
			m.respLen += binaryHeaderSize

			resp.SetTotalLen(uint(m.respLen))
			if text, ok := BinaryStatusString(m.status); ok {
				resp.SetStatus(text)
			}
			if isBinaryErrorStatus(m.status) {
				resp.SetError(true)
			}
			resp.SetLatency(uint(latency))

			if m.bodyLen == 0 {
				m.state = mcBinInitial
				return Complete
			}
			m.state = mcBinBody
			continue

		case mcBinBody:
			if buf.PeekLen() < int(m.bodyLen) {
				return NeedMore
			}
			if m.extLen > 0 {
				buf.Drain(int(m.extLen))
			}
			actualBodyLen := int(m.bodyLen) - int(m.extLen)

			if m.keepValue {
				var key []byte
				switch m.opcode {
				case opGetK, opGetKQ:
					k, ok := buf.Read(int(m.keyLen))
					if !ok {
						return NeedMore
					}
					key = k
				default:
					if m.keyLen > 0 {
						buf.Drain(int(m.keyLen))
					}
				}
				actualBodyLen -= int(m.keyLen)
				value, ok := buf.Read(actualBodyLen)
				if !ok {
					return NeedMore
				}
				resp.SetValue(value, key)
			} else {
				buf.Drain(actualBodyLen)
			}

			if m.status == statusSuccess {
				resp.IncrHits()
			}
			m.respLen += m.bodyLen
			resp.SetTotalLen(uint(m.respLen))

			if m.opcode == opGetKQ {
				m.state = mcBinHeader
				continue
			}
			m.state = mcBinInitial
			return Complete

		default:
			return Fatal
		}
	}
}
