package valid_test

import (
	"net/http"
	"runtime"
	"strconv"
	"testing"

	"github.com/GeoNet/strongmotion/internal/valid"
)

var bad = &valid.Error{Code: http.StatusBadRequest}

func TestEventID(t *testing.T) {
	in := []struct {
		s   string
		fn  valid.Validator
		err *valid.Error
		id  string
	}{
		{s: "2013p407387", fn: valid.EventID, id: loc()},
		{s: "emsc20161113_0000048", fn: valid.EventID, id: loc()},
		{s: "usp0007m27", fn: valid.EventID, id: loc()},
		{s: "", fn: valid.EventID, err: bad, id: loc()},
		{s: "2013p407387; drop table", fn: valid.EventID, err: bad, id: loc()},
		{s: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", fn: valid.EventID, err: bad, id: loc()},
	}

	for _, v := range in {
		err := v.fn(v.s)

		checkError(t, v.id, v.err, err)
	}
}

func TestSource(t *testing.T) {
	in := []struct {
		s   string
		fn  valid.Validator
		err *valid.Error
		id  string
	}{
		{s: "nz", fn: valid.Source, id: loc()},
		{s: "emsc", fn: valid.Source, id: loc()},
		{s: "NZ", fn: valid.Source, err: bad, id: loc()},
		{s: "n", fn: valid.Source, err: bad, id: loc()},
		{s: "", fn: valid.Source, err: bad, id: loc()},
	}

	for _, v := range in {
		err := v.fn(v.s)

		checkError(t, v.id, v.err, err)
	}
}

func checkError(t *testing.T, id string, expected *valid.Error, actual error) {
	if actual != nil {
		if expected == nil {
			t.Errorf("%s nil expected error with non nil actual error", id)
			return
		}
	}

	if expected == nil {
		return
	}

	if actual == nil {
		t.Errorf("%s nil actual error for non nil expected error", id)
		return
	}

	switch a := actual.(type) {
	case valid.Error:
		if a.Code != expected.Code {
			t.Errorf("%s expected code %d got %d", id, expected.Code, a.Code)
		}
	default:
		t.Errorf("%s actual error is not of type Error", id)
	}
}

func loc() string {
	_, _, l, _ := runtime.Caller(1)
	return "L" + strconv.Itoa(l)
}
