// shake-fetch resolves a hypocenter report against an earthquake catalog,
// reduces the event's raw strong-motion files to peak ground motions, and
// writes the amplitude table as ShakeMap XML named <source>_dat.xml.
//
// Raw file retrieval and parsing is delegated to the configured provider.
// With AMPLITUDE_XML_BUCKET set the document is also put to S3 where it
// notifies shake-consumer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/GeoNet/kit/aws/s3"
	"github.com/GeoNet/strongmotion/internal/amplitude"
	"github.com/GeoNet/strongmotion/internal/catalog"
	"github.com/GeoNet/strongmotion/internal/provider"
	"github.com/GeoNet/strongmotion/internal/waveform"
)

var (
	reportTime = flag.String("time", "", "hypocenter origin time, RFC3339 UTC (required)")
	reportLat  = flag.Float64("lat", 0, "hypocenter latitude (required)")
	reportLon  = flag.Float64("lon", 0, "hypocenter longitude (required)")
	reportDep  = flag.Float64("depth", 0, "hypocenter depth, km positive down")
	reportMag  = flag.Float64("mag", 0, "magnitude")
	location   = flag.String("location", "", "free text location description")

	catalogName  = flag.String("catalog", "geonet", "catalog to match against: geonet or emsc")
	window       = flag.Float64("window", 300, "catalog search time window, seconds either side of the report time")
	radius       = flag.Float64("radius", 100, "catalog search radius, km")
	fetchTimeout = flag.Duration("timeout", 5*time.Minute, "deadline for the whole fetch")

	providerName = flag.String("provider", "flat", "data provider for raw waveform files")
	rawDir       = flag.String("raw", ".", "directory raw waveform files are fetched to or read from")
	outDir       = flag.String("out", ".", "directory the amplitude XML is written to")
	periodsArg   = flag.String("periods", "0.3,1.0,3.0", "comma separated spectral periods, seconds")
	workers      = flag.Int("workers", 4, "concurrent trace reductions")
)

func main() {
	flag.Parse()

	report, err := parseReport()
	if err != nil {
		log.Fatalf("bad report: %s", err)
	}

	periods, err := parsePeriods(*periodsArg)
	if err != nil {
		log.Fatalf("bad periods: %s", err)
	}

	var client catalog.Client
	switch *catalogName {
	case "geonet":
		client = &catalog.GeoNet{}
	case "emsc":
		client = &catalog.EMSC{}
	default:
		log.Fatalf("unknown catalog %q", *catalogName)
	}

	p, err := provider.Get(*providerName)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *fetchTimeout)
	defer cancel()

	// no catalog entry means no amplitude extraction for this report.
	ev, err := catalog.Match(ctx, client, report, time.Duration(*window*float64(time.Second)), *radius)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		log.Fatalf("could not find this event in the %s catalog", client.Source())
	case err != nil:
		log.Fatalf("matching against the %s catalog: %s", client.Source(), err)
	}

	log.Printf("matched event %s at %s", ev.ID, ev.Time.Format(time.RFC3339))

	files, err := p.Fetch(ctx, ev, *rawDir)
	if err != nil {
		log.Fatalf("fetching raw files: %s", err)
	}
	if len(files) == 0 {
		log.Fatalf("no raw files for event %s", ev.ID)
	}

	traces, err := parseFiles(p, files)
	if err != nil {
		log.Fatal(err)
	}

	origin := amplitude.Origin{
		ID:        ev.ID,
		Time:      ev.Time,
		Latitude:  ev.Latitude,
		Longitude: ev.Longitude,
		Depth:     ev.Depth,
		Magnitude: ev.Magnitude,
		Location:  *location,
		Network:   client.Source(),
	}

	table, failed := amplitude.Build(origin, traces, amplitude.Options{
		Periods: periods,
		Workers: *workers,
	})
	for _, f := range failed {
		log.Printf("WARN %s", f)
	}
	if len(table.Records) == 0 {
		log.Fatalf("no usable traces for event %s", ev.ID)
	}

	b, err := amplitude.Encode(&table)
	if err != nil {
		log.Fatalf("encoding amplitude table: %s", err)
	}

	out := filepath.Join(*outDir, table.FileName())
	if err = os.WriteFile(out, b, 0644); err != nil {
		log.Fatalf("writing %s: %s", out, err)
	}

	log.Printf("wrote %d records for %d traces to %s", len(table.Records), len(traces), out)

	if bucket := os.Getenv("AMPLITUDE_XML_BUCKET"); bucket != "" {
		s3Client, err := s3.New()
		if err != nil {
			log.Fatalf("creating S3 client: %s", err)
		}

		key := fmt.Sprintf("%s/%s", ev.ID, table.FileName())
		if err = s3Client.Put(bucket, key, b); err != nil {
			log.Fatalf("putting %s to %s: %s", key, bucket, err)
		}

		log.Printf("put %s to %s", key, bucket)
	}
}

func parseReport() (catalog.Report, error) {
	if *reportTime == "" {
		return catalog.Report{}, errors.New("time is required")
	}

	t, err := time.Parse(time.RFC3339, *reportTime)
	if err != nil {
		return catalog.Report{}, err
	}

	return catalog.Report{
		Time:      t,
		Latitude:  *reportLat,
		Longitude: *reportLon,
		Depth:     *reportDep,
		Magnitude: *reportMag,
	}, nil
}

func parsePeriods(s string) ([]float64, error) {
	var periods []float64
	for _, p := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		periods = append(periods, v)
	}
	return periods, nil
}

// parseFiles reads every raw file with p.  A file that fails to parse is
// logged and skipped, the remaining files still contribute traces.
func parseFiles(p provider.Provider, files []string) ([]waveform.Trace, error) {
	var traces []waveform.Trace

	for _, f := range files {
		t, err := p.Parse(f)
		if err != nil {
			log.Printf("WARN skipping %s: %s", f, err)
			continue
		}
		traces = append(traces, t...)
	}

	if len(traces) == 0 {
		return nil, errors.New("no traces parsed from any raw file")
	}

	return traces, nil
}
