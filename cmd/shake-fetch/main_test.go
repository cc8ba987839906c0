package main

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/GeoNet/strongmotion/internal/provider"
)

func TestParsePeriods(t *testing.T) {
	in := []struct {
		s        string
		expected []float64
	}{
		{"0.3,1.0,3.0", []float64{0.3, 1.0, 3.0}},
		{"0.3, 1.0, 3.0", []float64{0.3, 1.0, 3.0}},
		{"1", []float64{1.0}},
	}

	for _, v := range in {
		periods, err := parsePeriods(v.s)
		if err != nil {
			t.Errorf("%s: %s", v.s, err)
			continue
		}
		if !reflect.DeepEqual(periods, v.expected) {
			t.Errorf("%s: expected %v got %v", v.s, v.expected, periods)
		}
	}

	if _, err := parsePeriods("0.3,x"); err == nil {
		t.Error("expected an error")
	}
}

func TestParseFiles(t *testing.T) {
	if !testing.Verbose() {
		log.SetOutput(io.Discard)
	}

	dir := t.TempDir()

	good := filepath.Join(dir, "good.flat")
	if err := os.WriteFile(good, []byte("network NZ\nstation WEL\nlocation 20\nchannel HNZ\nunits acc\nsamplerate 50\ndata\n0.1\n-0.1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	bad := filepath.Join(dir, "bad.flat")
	if err := os.WriteFile(bad, []byte("units counts\nsamplerate 50\ndata\n0.1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	p, err := provider.Get("flat")
	if err != nil {
		t.Fatal(err)
	}

	// a file that fails to parse is skipped, not fatal
	traces, err := parseFiles(p, []string{good, bad})
	if err != nil {
		t.Fatal(err)
	}

	if len(traces) != 1 {
		t.Fatalf("expected 1 trace got %d", len(traces))
	}

	if traces[0].Metadata.ChannelID() != "NZ.WEL.20.HNZ" {
		t.Errorf("got channel %s", traces[0].Metadata.ChannelID())
	}

	if _, err := parseFiles(p, []string{bad}); err == nil {
		t.Error("expected an error when no file parses")
	}
}
