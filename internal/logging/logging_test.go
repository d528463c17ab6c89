package logging

import (
	"path/filepath"
	"testing"
)

func TestNewZapSinkToStderrDoesNotPanic(t *testing.T) {
	sink := NewZapSink(Config{Debug: true})
	sink.Debugf("probing %d", 1)
	sink.Errorf("probing %s", "error")
	if err := sink.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}

func TestNewZapSinkRotatesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	sink := NewZapSink(Config{Filename: path, Debug: true})
	sink.Debugf("hello %s", "world")
	if err := sink.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}

func TestNopSinkDiscardsSilently(t *testing.T) {
	var sink Sink = NopSink{}
	sink.Debugf("ignored")
	sink.Errorf("ignored")
}
