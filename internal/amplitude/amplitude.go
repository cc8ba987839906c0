// Package amplitude builds tables of per station ground motion intensity
// measures from corrected waveforms and serializes them as ShakeMap
// station XML.
package amplitude

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrMissingMetadata is the cause recorded for a trace whose site
// coordinates could not be resolved.  Coordinates are never fabricated.
var ErrMissingMetadata = errors.New("missing station metadata")

// TraceError records the failure of one trace during table assembly.  One
// bad trace never aborts the batch, failures are collected and reported
// alongside the partial table.
type TraceError struct {
	ChannelID string
	Err       error
}

func (e TraceError) Error() string {
	return fmt.Sprintf("trace %s: %s", e.ChannelID, e.Err)
}

func (e TraceError) Unwrap() error {
	return e.Err
}

// Origin is the event metadata shared by every record in a Table.  It is
// held once alongside the table, not repeated per record.
type Origin struct {
	ID        string
	Time      time.Time
	Latitude  float64
	Longitude float64
	Depth     float64 // km positive down
	Magnitude float64
	Location  string // free text location description
	Network   string // source network code e.g., nz, jp, us
}

// Record is one row of the table: a station channel and its intensity
// measures.  A measure name absent from Measures is unavailable, which is
// distinct from a recorded zero.
type Record struct {
	NetID     string
	Code      string // grouping key, NET.STA
	Name      string
	Loc       string
	Channel   string
	Latitude  float64
	Longitude float64
	Distance  float64 // km to the origin
	Source    string
	InstType  string
	CommType  string
	Intensity string // observed intensity, free text, usually empty

	Measures map[string]float64
}

// Table is an ordered collection of records for one event.  Insertion
// order is preserved and duplicate station channel pairs are retained.
type Table struct {
	Origin  Origin
	Created int64 // document creation, Unix seconds
	Records []Record
}

// FileName returns the conventional output file name for the table,
// <source>_dat.xml.
func (t *Table) FileName() string {
	return t.Origin.Network + "_dat.xml"
}

// Measures returns the union of measure names recorded across every record,
// ordered pga, pgv, then the remainder sorted.  This union is the column
// set of the table.
func (t *Table) Measures() []string {
	seen := make(map[string]bool)
	for _, r := range t.Records {
		for k := range r.Measures {
			seen[k] = true
		}
	}

	var rest []string
	for k := range seen {
		if k != "pga" && k != "pgv" {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)

	var out []string
	if seen["pga"] {
		out = append(out, "pga")
	}
	if seen["pgv"] {
		out = append(out, "pgv")
	}

	return append(out, rest...)
}
