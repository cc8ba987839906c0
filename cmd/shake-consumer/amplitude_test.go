package main

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestUnmarshal(t *testing.T) {
	b, err := os.ReadFile("etc/nz_dat.xml")
	if err != nil {
		t.Fatal(err)
	}

	d, err := unmarshal(b, "2016p858000/nz_dat.xml")
	if err != nil {
		t.Fatal(err)
	}

	if d.EventID != "2016p858000" {
		t.Errorf("got EventID %s", d.EventID)
	}
	if d.Source != "nz" {
		t.Errorf("got Source %s", d.Source)
	}
	if !d.OriginTime.Equal(time.Date(2016, 11, 13, 11, 2, 56, 0, time.UTC)) {
		t.Errorf("got OriginTime %s", d.OriginTime)
	}
	if d.Latitude != -42.69 {
		t.Errorf("got Latitude %f", d.Latitude)
	}
	if d.Longitude != 173.02 {
		t.Errorf("got Longitude %f", d.Longitude)
	}
	if d.Depth != 15.0 {
		t.Errorf("got Depth %f", d.Depth)
	}
	if d.Magnitude != 7.8 {
		t.Errorf("got Magnitude %f", d.Magnitude)
	}
	if d.LocString != "15 km north-east of Culverden" {
		t.Errorf("got LocString %s", d.LocString)
	}

	// two stations, three comps
	if d.Stations != 2 {
		t.Errorf("got Stations %d", d.Stations)
	}

	if !d.CreatedTime.Equal(time.Unix(1479037000, 0).UTC()) {
		t.Errorf("got CreatedTime %s", d.CreatedTime)
	}

	if d.ShakeXML != string(b) {
		t.Error("expected the document stored verbatim")
	}
}

func TestUnmarshalBadKey(t *testing.T) {
	b, err := os.ReadFile("etc/nz_dat.xml")
	if err != nil {
		t.Fatal(err)
	}

	in := []string{
		"2016p858000/amplitudes.xml",
		"2016p858000/_dat.xml",
		"2016p858000/NZ_dat.xml",
	}

	for _, key := range in {
		if _, err := unmarshal(b, key); err == nil {
			t.Errorf("%s: expected an error", key)
		}
	}
}

func TestUnmarshalNoEventID(t *testing.T) {
	in := `<?xml version="1.0" encoding="UTF-8"?>
<shakemap-data>
  <earthquake id="" lat="-42.69" lon="173.02" depth="15" mag="7.8" year="2016" month="11" day="13" hour="11" minute="2" second="56" locstring="" created="1479037000">
    <stationlist created="1479037000"></stationlist>
  </earthquake>
</shakemap-data>`

	_, err := unmarshal([]byte(in), "x/nz_dat.xml")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "no event id") {
		t.Errorf("got %v", err)
	}
}

func TestUnmarshalNotXML(t *testing.T) {
	if _, err := unmarshal([]byte("this is not XML"), "x/nz_dat.xml"); err == nil {
		t.Error("expected an error")
	}
}

func TestProcessBadNotification(t *testing.T) {
	var n notification

	// SQS->SNS subscriptions not set for raw delivery arrive as SNS
	// envelopes with no Records.
	if err := n.Process([]byte(`{"Type":"Notification","Message":"{}"}`)); err == nil {
		t.Error("expected an error for a notification with nil Records")
	}

	if err := n.Process([]byte(`{"Records":[]}`)); err == nil {
		t.Error("expected an error for a notification with zero Records")
	}

	if err := n.Process([]byte(`not json`)); err == nil {
		t.Error("expected an error for a notification that is not JSON")
	}
}
