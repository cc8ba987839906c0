package main

import (
	"net/http"

	"github.com/GeoNet/kit/weft"
)

var mux *http.ServeMux

func init() {
	mux = http.NewServeMux()

	mux.HandleFunc("/shake/amplitude", weft.MakeHandler(amplitudeHandler, weft.TextError))

	mux.HandleFunc("/", weft.MakeHandler(weft.NoMatch, weft.TextError))

	// routes for balancers and probes.
	mux.HandleFunc("/soh/up", weft.MakeHandler(weft.Up, weft.TextError))
	mux.HandleFunc("/soh", weft.MakeHandler(weft.Soh, weft.TextError))
}
