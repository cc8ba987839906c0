package main

import (
	"bytes"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/GeoNet/kit/weft"
	"github.com/GeoNet/strongmotion/internal/valid"
	"github.com/golang/groupcache"
)

// 100 MB of encoded amplitude documents.
const documentCacheSize = 100000000

var errNoData = errors.New("no data")

// supported query parameters for the amplitude service.
type amplitudeQuery struct {
	EventID string `schema:"eventid"` // select the event by catalog ID.
	Source  string `schema:"source"`  // restrict to one source network e.g., nz.
}

// documentCache caches encoded amplitude documents.  Keys are
// "eventid" or "eventid source".
var documentCache = groupcache.NewGroup("amplitude", documentCacheSize, groupcache.GetterFunc(
	func(ctx groupcache.Context, key string, dest groupcache.Sink) error {
		var xml string
		var err error

		switch p := strings.Split(key, " "); len(p) {
		case 1:
			err = db.QueryRow(`SELECT ShakeXML FROM shake.amplitude WHERE eventid = $1
				ORDER BY createdtime DESC LIMIT 1`, p[0]).Scan(&xml)
		case 2:
			err = db.QueryRow(`SELECT ShakeXML FROM shake.amplitude WHERE eventid = $1 AND source = $2`,
				p[0], p[1]).Scan(&xml)
		default:
			return errors.New("expected 1 or 2 parts to key: " + key)
		}

		if err != nil {
			if err == sql.ErrNoRows {
				return errNoData
			}
			return err
		}

		dest.SetString(xml)
		return nil
	},
))

func amplitudeHandler(r *http.Request, h http.Header, b *bytes.Buffer) error {
	err := weft.CheckQuery(r, []string{"GET"}, []string{"eventid"}, []string{"source"})
	if err != nil {
		return err
	}

	var q amplitudeQuery

	if err := decoder.Decode(&q, r.URL.Query()); err != nil {
		return weft.StatusError{Code: http.StatusBadRequest, Err: err}
	}

	if err := valid.EventID(q.EventID); err != nil {
		return err
	}

	key := q.EventID
	if q.Source != "" {
		if err := valid.Source(q.Source); err != nil {
			return err
		}
		key = key + " " + q.Source
	}

	var xml []byte
	err = documentCache.Get(nil, key, groupcache.AllocatingByteSliceSink(&xml))
	if err != nil {
		if err == errNoData {
			return weft.StatusError{Code: http.StatusNotFound}
		}
		return err
	}

	h.Set("Content-Type", "application/xml")
	_, err = b.Write(xml)

	return err
}
