package amplitude

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func testTable() Table {
	return Table{
		Origin: Origin{
			ID:        "2016p858000",
			Time:      time.Date(2016, 11, 13, 11, 2, 56, 0, time.UTC),
			Latitude:  -42.69,
			Longitude: 173.02,
			Depth:     15.0,
			Magnitude: 7.8,
			Location:  "15 km north-east of Culverden",
			Network:   "nz",
		},
		Created: 1479034000,
		Records: []Record{
			{
				NetID:     "NZ",
				Code:      "NZ.WEL",
				Name:      "Wellington",
				Loc:       "20",
				Channel:   "HN1",
				Latitude:  -41.284,
				Longitude: 174.768,
				Distance:  150.5,
				Source:    "New Zealand National Seismograph Network",
				InstType:  "Accelerometer",
				CommType:  "DIG",
				Measures: map[string]float64{
					"pga":   0.453,
					"pgv":   12.1,
					"psa03": 0.9,
					"psa10": 0.5,
					"psa30": 0.2,
				},
			},
			{
				NetID:     "NZ",
				Code:      "NZ.WEL",
				Name:      "Wellington",
				Loc:       "20",
				Channel:   "HN2",
				Latitude:  -41.284,
				Longitude: 174.768,
				Distance:  150.5,
				Source:    "New Zealand National Seismograph Network",
				InstType:  "Accelerometer",
				CommType:  "DIG",
				Measures: map[string]float64{
					"pga":   0.3121871939318869,
					"pgv":   9.007199254740993e-2,
					"psa03": 0.61,
					"psa10": 0.32,
					"psa30": 0.11,
				},
			},
			{
				NetID:     "NZ",
				Code:      "NZ.KHZ",
				Name:      "Kahutara",
				Loc:       "10",
				Channel:   "HHZ",
				Latitude:  -42.416,
				Longitude: 173.539,
				Distance:  52.3,
				Source:    "New Zealand National Seismograph Network",
				InstType:  "Broadband",
				CommType:  "DIG",
				Measures: map[string]float64{
					"pgv": 0.031,
				},
			},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := testTable()

	b, err := Encode(&in)
	if err != nil {
		t.Fatal(err)
	}

	out, err := Decode(b)
	if err != nil {
		t.Fatal(err)
	}

	if out.Created != in.Created {
		t.Errorf("expected created %d got %d", in.Created, out.Created)
	}

	// the source network code travels in the file name, not the document
	in.Origin.Network = ""
	if !reflect.DeepEqual(out.Origin, in.Origin) {
		t.Errorf("expected origin %+v got %+v", in.Origin, out.Origin)
	}

	if len(out.Records) != len(in.Records) {
		t.Fatalf("expected %d records got %d", len(in.Records), len(out.Records))
	}

	for i, r := range in.Records {
		if !reflect.DeepEqual(out.Records[i], r) {
			t.Errorf("record %d expected %+v got %+v", i, r, out.Records[i])
		}
	}
}

func TestEncodeGroupsStations(t *testing.T) {
	in := testTable()

	b, err := Encode(&in)
	if err != nil {
		t.Fatal(err)
	}

	s := string(b)

	if got := strings.Count(s, "<station "); got != 2 {
		t.Errorf("expected 2 station elements got %d", got)
	}

	if got := strings.Count(s, "<comp "); got != 3 {
		t.Errorf("expected 3 comp elements got %d", got)
	}

	// one pga element per acceleration comp, none for the broadband comp
	if got := strings.Count(s, "<pga "); got != 2 {
		t.Errorf("expected 2 pga elements got %d", got)
	}

	if !strings.Contains(s, `<pga value="0.453" flag="0">`) &&
		!strings.Contains(s, `<pga value="0.453" flag="0"/>`) {
		t.Error("expected a pga element with value 0.453")
	}
}

func TestMeasuresOrder(t *testing.T) {
	in := testTable()

	expected := []string{"pga", "pgv", "psa03", "psa10", "psa30"}
	if got := in.Measures(); !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v got %v", expected, got)
	}
}

func TestFileName(t *testing.T) {
	in := testTable()

	if got := in.FileName(); got != "nz_dat.xml" {
		t.Errorf("expected nz_dat.xml got %s", got)
	}
}

func TestDecodeMalformed(t *testing.T) {
	in := `<?xml version="1.0" encoding="UTF-8"?>
<shakemap-data>
  <earthquake id="2016p858000" lat="-42.69" lon="173.02" depth="15" mag="7.8" year="2016" month="11" day="13" hour="11" minute="2" second="56" locstring="Culverden" created="1479034000">
    <stationlist created="1479034000">
      <station code="NZ.WEL" name="Wellington" insttype="Accelerometer" lat="-41.284" lon="174.768" dist="150.5" source="" netid="NZ" commtype="DIG" loc="20" intensity="">
        <comp name="HN1">
          <pga value="0.453" flag="0"/>
          <pgv value="not-a-number" flag="0"/>
        </comp>
      </station>
      <station name="Nameless" insttype="Accelerometer" lat="-41.0" lon="174.0" dist="10" source="" netid="NZ" commtype="DIG" loc="20" intensity="">
        <comp name="HN1">
          <pga value="1.0" flag="0"/>
        </comp>
      </station>
    </stationlist>
  </earthquake>
</shakemap-data>`

	out, err := Decode([]byte(in))

	var m MalformedError
	switch e := err.(type) {
	case MalformedError:
		m = e
	default:
		t.Fatalf("expected MalformedError got %v", err)
	}

	if len(m.Dropped) != 1 || m.Dropped[0] != "Nameless" {
		t.Errorf("expected Nameless dropped got %v", m.Dropped)
	}

	// the well formed station survives
	if len(out.Records) != 1 {
		t.Fatalf("expected 1 record got %d", len(out.Records))
	}

	r := out.Records[0]
	if r.Code != "NZ.WEL" {
		t.Errorf("got code %s", r.Code)
	}

	if v, ok := r.Measures["pga"]; !ok || v != 0.453 {
		t.Errorf("expected pga 0.453 got %v", r.Measures)
	}

	// the unparseable value is unavailable, not zero
	if _, ok := r.Measures["pgv"]; ok {
		t.Error("expected pgv to be unavailable")
	}
}

func TestDecodeNotXML(t *testing.T) {
	if _, err := Decode([]byte("this is not XML")); err == nil {
		t.Error("expected an error")
	}
}
