package main

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	wt "github.com/GeoNet/kit/weft/wefttest"
)

var testServer *httptest.Server

// routes that can be tested without a DB behind the server.
var routes = wt.Requests{
	{ID: wt.L(), URL: "/soh"},
	{ID: wt.L(), URL: "/soh/up"},
	{ID: wt.L(), URL: "/", Status: http.StatusNotFound},
	{ID: wt.L(), URL: "/no/such/route", Status: http.StatusNotFound},
	// eventid is required
	{ID: wt.L(), URL: "/shake/amplitude", Status: http.StatusBadRequest},
	{ID: wt.L(), URL: "/shake/amplitude?source=nz", Status: http.StatusBadRequest},
	{ID: wt.L(), URL: "/shake/amplitude?eventid=2016p858000;drop", Status: http.StatusBadRequest},
	{ID: wt.L(), URL: "/shake/amplitude?eventid=2016p858000&source=NZ", Status: http.StatusBadRequest},
	{ID: wt.L(), URL: "/shake/amplitude?eventid=2016p858000&cacheBuster=1", Status: http.StatusBadRequest},
	{ID: wt.L(), Method: "PUT", URL: "/shake/amplitude?eventid=2016p858000", Status: http.StatusMethodNotAllowed},
}

func TestRoutes(t *testing.T) {
	setup()
	defer teardown()

	for _, r := range routes {
		if b, err := r.Do(testServer.URL); err != nil {
			t.Error(err)
			t.Error(string(b))
		}
	}
}

func setup() {
	testServer = httptest.NewServer(mux)

	// Silence the logging unless running with
	// go test -v
	if !testing.Verbose() {
		log.SetOutput(io.Discard)
	}
}

func teardown() {
	testServer.Close()
}
