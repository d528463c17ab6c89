package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/panjf2000/gnet/v2"

	"kvbench/internal/buffer"
	"kvbench/internal/logging"
	"kvbench/internal/objgen"
	"kvbench/internal/response"
	"kvbench/internal/wire"
	"kvbench/internal/workerpool"
)

// connState is the per-connection scratch a gnet.Conn carries via
// SetContext: an inbound byte queue, the protocol parser driving it, the
// reply accumulator it fills, and a one-slot channel the worker goroutine
// blocks on between requests.
type connState struct {
	buf     *buffer.PooledBuffer
	proto   wire.Protocol
	resp    *response.Response
	pending chan struct{}
}

// engine is the gnet.EventHandler for every dialed connection. It only
// drives the parser; all request generation happens in the worker
// goroutines that own each connection.
type engine struct {
	gnet.BuiltinEventEngine
	sink logging.Sink
}

func (e *engine) OnTraffic(c gnet.Conn) gnet.Action {
	st, ok := c.Context().(*connState)
	if !ok {
		e.sink.Errorf("kvbench: traffic on a connection with no state")
		return gnet.Close
	}

	n := c.InboundBuffered()
	if n == 0 {
		return gnet.None
	}
	data, err := c.Peek(n)
	if err != nil {
		e.sink.Errorf("kvbench: peek: %v", err)
		return gnet.Close
	}
	st.buf.Append(data)
	c.Discard(n)

	for {
		switch st.proto.ParseResponse(st.buf, 0, st.resp) {
		case wire.NeedMore:
			return gnet.None
		case wire.Fatal:
			e.sink.Errorf("kvbench: protocol violation from %s", c.RemoteAddr())
			return gnet.Close
		case wire.Complete:
			select {
			case st.pending <- struct{}{}:
			default:
			}
		}
	}
}

// workerConfig is the per-run configuration every worker goroutine shares;
// only the seed is mixed with the worker's own index, so each of them
// drives an independent key/value stream (spec.md §5).
type workerConfig struct {
	addr      string
	protocol  string
	keyPrefix string
	keyMin    uint64
	keyMax    uint64
	dataSize  uint32
	expiry    uint32
	seed      int64
	requests  int
}

func runWorker(ctx context.Context, gc *gnet.Client, workerID int, cfg workerConfig, sink logging.Sink) error {
	gen, err := objgen.New(
		objgen.WithKeyPrefix(cfg.keyPrefix),
		objgen.WithKeyRange(cfg.keyMin, cfg.keyMax),
		objgen.WithDataSizeFixed(cfg.dataSize),
		objgen.WithExpiryRange(cfg.expiry, cfg.expiry),
		objgen.WithSeed(cfg.seed, workerID),
	)
	if err != nil {
		return fmt.Errorf("kvbench: worker %d: building generator: %w", workerID, err)
	}

	proto, err := wire.Factory(cfg.protocol)
	if err != nil {
		return fmt.Errorf("kvbench: worker %d: %w", workerID, err)
	}

	st := &connState{
		buf:     buffer.New(),
		proto:   proto,
		resp:    response.New(),
		pending: make(chan struct{}, 1),
	}

	conn, err := gc.Dial("tcp", cfg.addr)
	if err != nil {
		return fmt.Errorf("kvbench: worker %d: dial %s: %w", workerID, cfg.addr, err)
	}
	conn.SetContext(st)
	defer conn.Close()

	for i := 0; i < cfg.requests; i++ {
		obj := gen.GetObject(objgen.IterSet)
		req, err := proto.WriteSet(obj.Key, obj.Value, obj.Expiry, 0)
		if err != nil {
			return fmt.Errorf("kvbench: worker %d: encoding SET: %w", workerID, err)
		}

		start := time.Now()
		if err := conn.AsyncWrite(req, nil); err != nil {
			return fmt.Errorf("kvbench: worker %d: write: %w", workerID, err)
		}

		select {
		case <-st.pending:
		case <-ctx.Done():
			return ctx.Err()
		}
		sink.Debugf("worker %d op %d latency=%s status=%v", workerID, i, time.Since(start), st.resp.Status())
	}
	return nil
}

func main() {
	addr := flag.String("addr", "tcp://127.0.0.1:6379", "server address to dial")
	protocol := flag.String("protocol", "redis", "wire protocol: redis, memcache_text, memcache_binary")
	conns := flag.Int("conns", 4, "number of concurrent connections")
	requests := flag.Int("requests", 10000, "SET requests issued per connection")
	keyPrefix := flag.String("key-prefix", "memtier-", "key prefix")
	keyMin := flag.Uint64("key-minimum", 0, "minimum numeric key suffix")
	keyMax := flag.Uint64("key-maximum", 10000000, "maximum numeric key suffix")
	dataSize := flag.Uint("data-size", 32, "fixed value size in bytes")
	expiry := flag.Uint("expiry", 0, "expiry seconds to set on every key (0 disables)")
	seed := flag.Int64("seed", 12345, "PRNG seed shared across workers, mixed with worker index")
	debug := flag.Bool("debug", false, "enable debug logging")
	logFile := flag.String("log-file", "", "log file path (empty logs to stderr)")
	flag.Parse()

	sink := logging.NewZapSink(logging.Config{Filename: *logFile, Debug: *debug})
	defer sink.Sync()

	eng := &engine{sink: sink}
	gc, err := gnet.NewClient(eng, gnet.WithMulticore(true))
	if err != nil {
		log.Fatalf("kvbench: creating client: %v", err)
	}
	if err := gc.Start(); err != nil {
		log.Fatalf("kvbench: starting client: %v", err)
	}
	defer gc.Stop()

	cfg := workerConfig{
		addr:      strings.TrimPrefix(*addr, "tcp://"),
		protocol:  *protocol,
		keyPrefix: *keyPrefix,
		keyMin:    *keyMin,
		keyMax:    *keyMax,
		dataSize:  uint32(*dataSize),
		expiry:    uint32(*expiry),
		seed:      *seed,
		requests:  *requests,
	}

	pool := workerpool.New(*conns)
	tasks := make([]workerpool.Task, *conns)
	for i := range tasks {
		tasks[i] = func(ctx context.Context, workerID int) error {
			return runWorker(ctx, gc, workerID, cfg, sink)
		}
	}

	if err := pool.Run(context.Background(), tasks); err != nil {
		log.Fatalf("kvbench: %v", err)
	}
}
