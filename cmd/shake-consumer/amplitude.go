package main

import (
	"log"
	"path"
	"strings"
	"time"

	"github.com/GeoNet/strongmotion/internal/amplitude"
	"github.com/GeoNet/strongmotion/internal/valid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// doc is for saving an amplitude document to the db.
// field names match the column names in shake.amplitude.
type doc struct {
	EventID     string
	Source      string
	OriginTime  time.Time
	Latitude    float64
	Longitude   float64
	Depth       float64
	Magnitude   float64
	LocString   string
	Stations    int64
	CreatedTime time.Time
	ShakeXML    string // the complete amplitude document.
}

// unmarshal decodes a ShakeMap amplitude document into a doc.  The source
// network code travels in the object key (<eventid>/<source>_dat.xml), not
// the document.  Stations dropped during decoding are logged, a partially
// decoded document is still stored.
func unmarshal(b []byte, key string) (doc, error) {
	source := strings.TrimSuffix(path.Base(key), "_dat.xml")
	if err := valid.Source(source); err != nil {
		return doc{}, errors.Wrapf(err, "deriving source network from key %s", key)
	}

	t, err := amplitude.Decode(b)
	if err != nil {
		var m amplitude.MalformedError
		if !errors.As(err, &m) {
			return doc{}, errors.Wrap(err, "decoding amplitude XML")
		}
		log.Printf("WARN %s: %s", t.Origin.ID, m)
	}

	if t.Origin.ID == "" {
		return doc{}, errors.New("amplitude XML with no event id")
	}

	codes := make(map[string]bool)
	for _, r := range t.Records {
		codes[r.Code] = true
	}

	return doc{
		EventID:     t.Origin.ID,
		Source:      source,
		OriginTime:  t.Origin.Time,
		Latitude:    t.Origin.Latitude,
		Longitude:   t.Origin.Longitude,
		Depth:       t.Origin.Depth,
		Magnitude:   t.Origin.Magnitude,
		LocString:   t.Origin.Location,
		Stations:    int64(len(codes)),
		CreatedTime: time.Unix(t.Created, 0).UTC(),
		ShakeXML:    string(b),
	}, nil
}

// save or update the amplitude document in the DB to be the latest (most
// recently created) document for the event and source.
func (d *doc) save() error {
	txn, err := db.Begin()
	if err != nil {
		return err
	}

	_, err = txn.Exec(`DELETE FROM shake.amplitude WHERE EventID = $1 AND Source = $2 AND CreatedTime <= $3`,
		d.EventID, d.Source, d.CreatedTime)
	if err != nil {
		if e := txn.Rollback(); e != nil {
			log.Printf("Rollback Failed: %v", e)
		}
		return err
	}

	_, err = txn.Exec(`INSERT INTO shake.amplitude(EventID, Source, OriginTime, Latitude, Longitude,
			Depth, Magnitude, LocString, Stations, CreatedTime, ShakeXML)
			values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		d.EventID, d.Source, d.OriginTime, d.Latitude, d.Longitude, d.Depth, d.Magnitude,
		d.LocString, d.Stations, d.CreatedTime, d.ShakeXML)
	switch err {
	case nil:
		return txn.Commit()
	default:
		// a unique_violation means the document is older than the one in
		// the table already.  Not an error for this application - only
		// the latest document is kept.
		// http://www.postgresql.org/docs/9.3/static/errcodes-appendix.html
		if errorUnique, ok := err.(*pq.Error); ok && errorUnique.Code == `23505` {
			err = nil
		}
		if e := txn.Rollback(); e != nil {
			log.Printf("Rollback Failed: %v", e)
		}
		return err
	}
}
