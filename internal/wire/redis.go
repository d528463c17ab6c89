package wire

import (
	"fmt"
	"strconv"

	"kvbench/internal/buffer"
	"kvbench/internal/keylist"
	"kvbench/internal/response"
)

type redisState int

const (
	redisInitial redisState = iota
	redisReadBulk
)

// Redis speaks RESP, encoding SET/GET as SETEX/SETRANGE/GETRANGE variants
// when an expiry or offset is given (original_source/protocol.cpp's
// redis_protocol). Multi-bulk replies and GET KEY are not supported by the
// wire format this client issues, matching the original.
type Redis struct {
	keepValue bool

	state   redisState
	bulkLen uint32
	respLen uint32
}

// NewRedis returns a Redis protocol ready to encode requests and parse
// replies.
func NewRedis() *Redis {
	return &Redis{}
}

func (r *Redis) Clone() Protocol {
	return &Redis{keepValue: r.keepValue}
}

func (r *Redis) SetKeepValue(keep bool) { r.keepValue = keep }

func (r *Redis) SelectDB(db int) ([]byte, error) {
	dbStr := strconv.Itoa(db)
	return []byte(fmt.Sprintf("*2\r\n$6\r\nSELECT\r\n$%d\r\n%s\r\n", len(dbStr), dbStr)), nil
}

func (r *Redis) Authenticate(credentials string) ([]byte, error) {
	return []byte(fmt.Sprintf("*2\r\n$4\r\nAUTH\r\n$%d\r\n%s\r\n", len(credentials), credentials)), nil
}

func (r *Redis) WriteSet(key, value []byte, expiry uint32, offset uint32) ([]byte, error) {
	if len(key) == 0 || len(value) == 0 {
		return nil, fmt.Errorf("wire: redis SET requires a non-empty key and value")
	}

	var out []byte
	switch {
	case offset != 0:
		offStr := strconv.FormatUint(uint64(offset), 10)
		out = append(out, fmt.Sprintf("*4\r\n$8\r\nSETRANGE\r\n$%d\r\n", len(key))...)
		out = append(out, key...)
		out = append(out, fmt.Sprintf("\r\n$%d\r\n%s\r\n$%d\r\n", len(offStr), offStr, len(value))...)
	case expiry != 0:
		expStr := strconv.FormatUint(uint64(expiry), 10)
		out = append(out, fmt.Sprintf("*4\r\n$5\r\nSETEX\r\n$%d\r\n", len(key))...)
		out = append(out, key...)
		out = append(out, fmt.Sprintf("\r\n$%d\r\n%s\r\n$%d\r\n", len(expStr), expStr, len(value))...)
	default:
		out = append(out, fmt.Sprintf("*3\r\n$3\r\nSET\r\n$%d\r\n", len(key))...)
		out = append(out, key...)
		out = append(out, fmt.Sprintf("\r\n$%d\r\n", len(value))...)
	}
	out = append(out, value...)
	out = append(out, '\r', '\n')
	return out, nil
}

func (r *Redis) WriteGet(key []byte, offset uint32) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("wire: redis GET requires a non-empty key")
	}
	if offset == 0 {
		out := append([]byte(fmt.Sprintf("*2\r\n$3\r\nGET\r\n$%d\r\n", len(key))), key...)
		return append(out, '\r', '\n'), nil
	}

	offStr := strconv.FormatUint(uint64(offset), 10)
	out := append([]byte(fmt.Sprintf("*4\r\n$8\r\nGETRANGE\r\n$%d\r\n", len(key))), key...)
	out = append(out, fmt.Sprintf("\r\n$%d\r\n%s\r\n$2\r\n-1\r\n", len(offStr), offStr)...)
	return out, nil
}

func (r *Redis) WriteGetKey(key []byte, offset uint32) ([]byte, error) {
	return nil, fmt.Errorf("wire: GET KEY is not supported for redis")
}

func (r *Redis) WriteMultiGet(keys *keylist.List) ([]byte, error) {
	return nil, fmt.Errorf("wire: multi-get is not implemented for redis yet")
}

func (r *Redis) WriteWait(numSlaves, timeout uint32) ([]byte, error) {
	ns := strconv.FormatUint(uint64(numSlaves), 10)
	to := strconv.FormatUint(uint64(timeout), 10)
	return []byte(fmt.Sprintf("*3\r\n$4\r\nWAIT\r\n$%d\r\n%s\r\n$%d\r\n%s\r\n", len(ns), ns, len(to), to)), nil
}

func (r *Redis) ParseResponse(buf buffer.ByteBuffer, latency uint32, resp *response.Response) ParseResult {
	for {
		switch r.state {
		case redisInitial:
			line, ok := buf.ReadLine()
			if !ok {
				return NeedMore
			}
			if len(line) == 0 {
				return Fatal
			}
			r.respLen = uint32(len(line)) + 2

			switch line[0] {
			case '*':
				// multi-bulk replies are not supported.
				return Fatal
			case '$':
				n, err := strconv.Atoi(string(line[1:]))
				if err != nil {
					return Fatal
				}
				resp.Clear()
				resp.SetLatency(uint(latency))
				resp.SetStatus(string(line))
				if n == -1 {
					resp.SetTotalLen(uint(r.respLen))
					return Complete
				}
				r.bulkLen = uint32(n)
				r.state = redisReadBulk
				continue
			case '+', '-', ':':
				resp.Clear()
				resp.SetLatency(uint(latency))
				resp.SetStatus(string(line))
				resp.SetTotalLen(uint(r.respLen))
				if line[0] == '-' {
					resp.SetError(true)
				}
				return Complete
			default:
				return Fatal
			}

		case redisReadBulk:
			if buf.PeekLen() < int(r.bulkLen)+2 {
				return NeedMore
			}
			if r.keepValue && r.bulkLen > 0 {
				value, ok := buf.Read(int(r.bulkLen))
				if !ok {
					return NeedMore
				}
				buf.Drain(2)
				resp.SetValue(value, nil)
			} else {
				buf.Drain(int(r.bulkLen) + 2)
			}
			r.state = redisInitial
			resp.SetTotalLen(uint(r.respLen + r.bulkLen + 2))
			if r.bulkLen > 0 {
				resp.IncrHits()
			}
			return Complete

		default:
			return Fatal
		}
	}
}
