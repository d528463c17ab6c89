package wire

import (
	"testing"

	"kvbench/internal/buffer"
	"kvbench/internal/response"
)

func TestRedisWriteSetPlain(t *testing.T) {
	r := NewRedis()
	out, err := r.WriteSet([]byte("k"), []byte("v"), 0, 0)
	if err != nil {
		t.Fatalf("WriteSet: %v", err)
	}
	want := "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n"
	if string(out) != want {
		t.Fatalf("WriteSet() = %q, want %q", out, want)
	}
}

func TestRedisWriteSetWithExpiry(t *testing.T) {
	r := NewRedis()
	out, err := r.WriteSet([]byte("k"), []byte("v"), 60, 0)
	if err != nil {
		t.Fatalf("WriteSet: %v", err)
	}
	want := "*4\r\n$5\r\nSETEX\r\n$1\r\nk\r\n$2\r\n60\r\n$1\r\nv\r\n"
	if string(out) != want {
		t.Fatalf("WriteSet() = %q, want %q", out, want)
	}
}

func TestRedisWriteGetPlain(t *testing.T) {
	r := NewRedis()
	out, err := r.WriteGet([]byte("k"), 0)
	if err != nil {
		t.Fatalf("WriteGet: %v", err)
	}
	want := "*2\r\n$3\r\nGET\r\n$1\r\nk\r\n"
	if string(out) != want {
		t.Fatalf("WriteGet() = %q, want %q", out, want)
	}
}

func TestRedisUnsupportedOperationsError(t *testing.T) {
	r := NewRedis()
	if _, err := r.WriteGetKey([]byte("k"), 0); err == nil {
		t.Fatalf("expected WriteGetKey to be rejected for redis")
	}
	if _, err := r.WriteMultiGet(nil); err == nil {
		t.Fatalf("expected WriteMultiGet to be rejected for redis")
	}
}

func TestRedisParseSimpleStatus(t *testing.T) {
	r := NewRedis()
	buf := buffer.New()
	buf.Append([]byte("+OK\r\n"))

	resp := response.New()
	if got := r.ParseResponse(buf, 42, resp); got != Complete {
		t.Fatalf("ParseResponse() = %v, want Complete", got)
	}
	if status := resp.Status(); status == nil || *status != "+OK" {
		t.Fatalf("Status() = %v, want +OK", status)
	}
	if resp.IsError() {
		t.Fatalf("a + status should not be flagged as an error")
	}
}

func TestRedisParseErrorStatus(t *testing.T) {
	r := NewRedis()
	buf := buffer.New()
	buf.Append([]byte("-ERR bad\r\n"))

	resp := response.New()
	if got := r.ParseResponse(buf, 1, resp); got != Complete {
		t.Fatalf("ParseResponse() = %v, want Complete", got)
	}
	if !resp.IsError() {
		t.Fatalf("a - status should be flagged as an error")
	}
}

func TestRedisParseNullBulkReply(t *testing.T) {
	r := NewRedis()
	buf := buffer.New()
	buf.Append([]byte("$-1\r\n"))

	resp := response.New()
	if got := r.ParseResponse(buf, 1, resp); got != Complete {
		t.Fatalf("ParseResponse() = %v, want Complete", got)
	}
	if resp.ValuesCount() != 0 {
		t.Fatalf("a null bulk reply should not retain a value")
	}
}

func TestRedisParseBulkReplyAcrossChunkBoundary(t *testing.T) {
	r := NewRedis()
	r.SetKeepValue(true)
	buf := buffer.New()
	resp := response.New()

	reply := []byte("$5\r\nhello\r\n")
	chunks := [][]byte{reply[:4], reply[4:9], reply[9:]}
	var got ParseResult
	for i, chunk := range chunks {
		buf.Append(chunk)
		got = r.ParseResponse(buf, 7, resp)
		if i < len(chunks)-1 && got != NeedMore {
			t.Fatalf("chunk %d: ParseResponse() = %v, want NeedMore", i, got)
		}
	}
	if got != Complete {
		t.Fatalf("final chunk: ParseResponse() = %v, want Complete", got)
	}

	kv, ok := resp.GetValue()
	if !ok || string(kv.Value) != "hello" {
		t.Fatalf("GetValue() = (%+v, %v), want (hello, true)", kv, ok)
	}
	if resp.Hits() != 1 {
		t.Fatalf("Hits() = %d, want 1", resp.Hits())
	}
}
