// Package provider defines the capability interface for strong-motion data
// providers.  A provider knows how to locate the raw files for a resolved
// catalog event and how to parse one raw file into traces.  Implementations
// are selected by configuration, not subclassing.
package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/GeoNet/strongmotion/internal/catalog"
	"github.com/GeoNet/strongmotion/internal/waveform"
)

// Provider retrieves and parses raw strong-motion data for one network.
type Provider interface {
	// Fetch locates the raw files for ev and returns local file paths,
	// downloading into rawDir when the provider is remote.
	Fetch(ctx context.Context, ev catalog.Event, rawDir string) ([]string, error)

	// Parse reads one raw file into traces.  Traces must carry sample
	// rate, start time, units, and calibration; site coordinates may be
	// left for an inventory to resolve.
	Parse(path string) ([]waveform.Trace, error)
}

var (
	mu        sync.RWMutex
	providers = make(map[string]Provider)
)

// Register makes a provider available under name.  It panics on a
// duplicate name, registration happens once at start up.
func Register(name string, p Provider) {
	mu.Lock()
	defer mu.Unlock()

	if _, dup := providers[name]; dup {
		panic("provider: Register called twice for " + name)
	}
	providers[name] = p
}

// Get returns the provider registered under name.
func Get(name string) (Provider, error) {
	mu.RLock()
	defer mu.RUnlock()

	p, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q, registered: %v", name, names())
	}
	return p, nil
}

func names() []string {
	var n []string
	for k := range providers {
		n = append(n, k)
	}
	sort.Strings(n)
	return n
}
