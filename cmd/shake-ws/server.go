// shake-ws serves stored strong-motion amplitude documents over HTTP.
package main

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/GeoNet/kit/cfg"
	"github.com/gorilla/schema"
	_ "github.com/lib/pq"
)

var (
	db      *sql.DB
	decoder = schema.NewDecoder() // decoder for URL queries.
)

func main() {
	p, err := cfg.PostgresEnv()
	if err != nil {
		log.Fatalf("error reading DB config from the environment vars: %s", err)
	}

	// set a statement timeout to cancel any very long running DB queries.
	// Value is int milliseconds.
	db, err = sql.Open("postgres", p.Connection()+" statement_timeout=60000")
	if err != nil {
		log.Fatalf("error with DB config: %s", err)
	}
	defer db.Close()

	db.SetMaxIdleConns(p.MaxIdle)
	db.SetMaxOpenConns(p.MaxOpen)

	if err = db.Ping(); err != nil {
		log.Println("ERROR: problem pinging DB - is it up and contactable? 500s will be served")
	}

	log.Println("starting server")
	server := &http.Server{
		Addr:         ":8080",
		Handler:      mux,
		ReadTimeout:  1 * time.Minute,
		WriteTimeout: 1 * time.Minute,
	}
	log.Fatal(server.ListenAndServe())
}
