package amplitude

import (
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// MalformedError reports stations dropped while decoding a document with
// missing required attributes.  Decoding recovers the remaining stations,
// the partial table is still returned alongside this error.
type MalformedError struct {
	Dropped []string
}

func (e MalformedError) Error() string {
	return fmt.Sprintf("dropped %d malformed stations: %s", len(e.Dropped), strings.Join(e.Dropped, ", "))
}

// ShakeMap station data XML.  The measure elements inside a comp are named
// after the measure itself e.g., <pga value="0.45" flag="0"/> so they
// marshal through xml.Name rather than tags.
type xmlMeasure struct {
	XMLName xml.Name
	Value   string `xml:"value,attr"`
	Flag    string `xml:"flag,attr"`
}

type xmlComp struct {
	XMLName  xml.Name     `xml:"comp"`
	Name     string       `xml:"name,attr"`
	Measures []xmlMeasure `xml:",any"`
}

type xmlStation struct {
	XMLName   xml.Name  `xml:"station"`
	Code      string    `xml:"code,attr"`
	Name      string    `xml:"name,attr"`
	InstType  string    `xml:"insttype,attr"`
	Lat       string    `xml:"lat,attr"`
	Lon       string    `xml:"lon,attr"`
	Dist      string    `xml:"dist,attr"`
	Source    string    `xml:"source,attr"`
	NetID     string    `xml:"netid,attr"`
	CommType  string    `xml:"commtype,attr"`
	Loc       string    `xml:"loc,attr"`
	Intensity string    `xml:"intensity,attr"`
	Comps     []xmlComp `xml:"comp"`
}

type xmlStationList struct {
	XMLName  xml.Name     `xml:"stationlist"`
	Created  int64        `xml:"created,attr"`
	Stations []xmlStation `xml:"station"`
}

type xmlEarthquake struct {
	XMLName     xml.Name       `xml:"earthquake"`
	ID          string         `xml:"id,attr"`
	Lat         string         `xml:"lat,attr"`
	Lon         string         `xml:"lon,attr"`
	Depth       string         `xml:"depth,attr"`
	Mag         string         `xml:"mag,attr"`
	Year        int            `xml:"year,attr"`
	Month       int            `xml:"month,attr"`
	Day         int            `xml:"day,attr"`
	Hour        int            `xml:"hour,attr"`
	Minute      int            `xml:"minute,attr"`
	Second      int            `xml:"second,attr"`
	LocString   string         `xml:"locstring,attr"`
	Created     int64          `xml:"created,attr"`
	StationList xmlStationList `xml:"stationlist"`
}

type xmlShakemapData struct {
	XMLName    xml.Name      `xml:"shakemap-data"`
	Earthquake xmlEarthquake `xml:"earthquake"`
}

// Encode renders t as a ShakeMap station data document.  Stations are
// grouped by code in first appearance order, one comp per record within a
// station, one measure element per recorded value.  Numbers are formatted
// with the shortest representation that parses back to the identical
// float64, the document round trips exactly.
func Encode(t *Table) ([]byte, error) {
	created := t.Created
	if created == 0 {
		created = time.Now().Unix()
	}

	ot := t.Origin.Time.UTC()
	doc := xmlShakemapData{
		Earthquake: xmlEarthquake{
			ID:        t.Origin.ID,
			Lat:       formatFloat(t.Origin.Latitude),
			Lon:       formatFloat(t.Origin.Longitude),
			Depth:     formatFloat(t.Origin.Depth),
			Mag:       formatFloat(t.Origin.Magnitude),
			Year:      ot.Year(),
			Month:     int(ot.Month()),
			Day:       ot.Day(),
			Hour:      ot.Hour(),
			Minute:    ot.Minute(),
			Second:    ot.Second(),
			LocString: t.Origin.Location,
			Created:   created,
			StationList: xmlStationList{
				Created: created,
			},
		},
	}

	columns := t.Measures()

	// station order is first appearance of each code.
	index := make(map[string]int)

	for _, r := range t.Records {
		i, ok := index[r.Code]
		if !ok {
			doc.Earthquake.StationList.Stations = append(doc.Earthquake.StationList.Stations,
				xmlStation{
					Code:      r.Code,
					Name:      r.Name,
					InstType:  r.InstType,
					Lat:       formatFloat(r.Latitude),
					Lon:       formatFloat(r.Longitude),
					Dist:      formatFloat(r.Distance),
					Source:    r.Source,
					NetID:     r.NetID,
					CommType:  r.CommType,
					Loc:       r.Loc,
					Intensity: r.Intensity,
				})
			i = len(doc.Earthquake.StationList.Stations) - 1
			index[r.Code] = i
		}

		comp := xmlComp{Name: compName(r.Channel)}
		for _, m := range columns {
			v, ok := r.Measures[m]
			if !ok {
				continue
			}
			comp.Measures = append(comp.Measures, xmlMeasure{
				XMLName: xml.Name{Local: m},
				Value:   formatFloat(v),
				Flag:    "0",
			})
		}

		s := &doc.Earthquake.StationList.Stations[i]
		s.Comps = append(s.Comps, comp)
	}

	b, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshaling shakemap data")
	}

	return append([]byte(xml.Header), b...), nil
}

/*
Decode parses a ShakeMap station data document back into a Table.  One
record is built per station and comp pairing.  The measure column set is
the union of measure names seen across every comp.  Numeric attributes
that fail to parse are left unavailable rather than failing the document.
A station without a code attribute is dropped, dropped stations are
reported through a MalformedError returned with the partial table.
*/
func Decode(b []byte) (Table, error) {
	var doc xmlShakemapData

	if err := xml.Unmarshal(b, &doc); err != nil {
		return Table{}, errors.Wrap(err, "unmarshaling shakemap data")
	}

	eq := doc.Earthquake

	t := Table{
		Origin: Origin{
			ID:        eq.ID,
			Time:      time.Date(eq.Year, time.Month(eq.Month), eq.Day, eq.Hour, eq.Minute, eq.Second, 0, time.UTC),
			Latitude:  parseFloat(eq.Lat),
			Longitude: parseFloat(eq.Lon),
			Depth:     parseFloat(eq.Depth),
			Magnitude: parseFloat(eq.Mag),
			Location:  eq.LocString,
		},
		Created: eq.Created,
	}

	var dropped []string

	for i, s := range eq.StationList.Stations {
		if s.Code == "" {
			name := s.Name
			if name == "" {
				name = fmt.Sprintf("station %d", i)
			}
			dropped = append(dropped, name)
			continue
		}

		for _, c := range s.Comps {
			r := Record{
				NetID:     s.NetID,
				Code:      s.Code,
				Name:      s.Name,
				Loc:       s.Loc,
				Channel:   c.Name,
				Latitude:  parseFloat(s.Lat),
				Longitude: parseFloat(s.Lon),
				Distance:  parseFloat(s.Dist),
				Source:    s.Source,
				InstType:  s.InstType,
				CommType:  s.CommType,
				Intensity: s.Intensity,
				Measures:  make(map[string]float64),
			}

			for _, m := range c.Measures {
				v, err := strconv.ParseFloat(m.Value, 64)
				if err != nil {
					continue // unavailable
				}
				r.Measures[m.XMLName.Local] = v
			}

			t.Records = append(t.Records, r)
		}
	}

	if len(dropped) > 0 {
		return t, MalformedError{Dropped: dropped}
	}

	return t, nil
}

// compName maps a channel code to the comp element name.
func compName(channel string) string {
	if channel == "" {
		return "UNK"
	}
	return channel
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// parseFloat is for attributes that may legitimately be absent or
// unparseable, those become NaN rather than an error.
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
