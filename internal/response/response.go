// Package response implements ProtocolResponse (component I): the
// accumulator a protocol parser fills in while decoding one logical reply.
package response

import "container/list"

// KeyValue is one retained (key?, value) pair. Key is nil when the
// protocol only retains values (spec.md §4.I "klen==0 permitted").
type KeyValue struct {
	Key   []byte
	Value []byte
}

// Response accumulates status, hits, total bytes, per-op latencies, and
// optional retained key/value payloads for one logical reply
// (original_source/protocol.cpp's protocol_response). Values and
// latencies are FIFO queues; Clear releases every still-queued allocation,
// matching the "no leaks on partial consumption" invariant.
type Response struct {
	status  *string
	err     bool
	hits    uint
	totalLen uint

	values    list.List
	latencies list.List
}

// New returns a cleared Response.
func New() *Response {
	return &Response{}
}

// SetStatus takes ownership of status, replacing (and discarding) any
// prior one.
func (r *Response) SetStatus(status string) {
	r.status = &status
}

// Status returns the current status line, or nil if none has been set
// since the last Clear.
func (r *Response) Status() *string {
	return r.status
}

// SetValue enqueues an owned (key, value) pair. key may be nil.
func (r *Response) SetValue(value, key []byte) {
	r.values.PushBack(KeyValue{Key: key, Value: value})
}

// GetValue dequeues the front (key, value) pair. ok is false when the
// queue is empty.
func (r *Response) GetValue() (kv KeyValue, ok bool) {
	front := r.values.Front()
	if front == nil {
		return KeyValue{}, false
	}
	r.values.Remove(front)
	return front.Value.(KeyValue), true
}

// ValuesCount reports how many retained pairs are still queued.
func (r *Response) ValuesCount() int {
	return r.values.Len()
}

// SetLatency enqueues one latency measurement.
func (r *Response) SetLatency(latency uint) {
	r.latencies.PushBack(latency)
}

// GetLatency dequeues the front latency measurement. ok is false when the
// queue is empty.
func (r *Response) GetLatency() (latency uint, ok bool) {
	front := r.latencies.Front()
	if front == nil {
		return 0, false
	}
	r.latencies.Remove(front)
	return front.Value.(uint), true
}

// LatenciesCount reports how many latency measurements are still queued.
func (r *Response) LatenciesCount() int {
	return r.latencies.Len()
}

// IncrHits increments the hit counter.
func (r *Response) IncrHits() {
	r.hits++
}

// Hits reports the current hit count. hits <= values count whenever
// retention is enabled (spec.md §3 invariant).
func (r *Response) Hits() uint {
	return r.hits
}

// SetTotalLen records the number of bytes this reply consumed from the
// read buffer.
func (r *Response) SetTotalLen(n uint) {
	r.totalLen = n
}

// TotalLen reports the number of bytes this reply consumed from the read
// buffer.
func (r *Response) TotalLen() uint {
	return r.totalLen
}

// SetError flags this reply as a server error. The reply still completes
// normally; this only changes how the caller should interpret Status.
func (r *Response) SetError(err bool) {
	r.err = err
}

// IsError reports whether this reply was flagged as a server error.
func (r *Response) IsError() bool {
	return r.err
}

// Clear releases every still-queued allocation and resets every counter.
// It is idempotent.
func (r *Response) Clear() {
	r.status = nil
	r.err = false
	r.hits = 0
	r.totalLen = 0
	r.values.Init()
	r.latencies.Init()
}
