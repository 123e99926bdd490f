// Serves the RDS Data API over a local SQLite database. Point a client at it
// with the endpoint option, eg. --dsn='...&endpoint=http://localhost:6033'.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/anacrolix/envpprof"
	_ "github.com/mattn/go-sqlite3"

	"github.com/anacrolix/dataapi/dataapitest"
)

func refsHandler(s *dataapitest.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for ref, val := range s.Refs() {
			fmt.Fprintf(w, "%d: %#v\n\n", ref, val)
		}
	})
}

func main() {
	log.SetFlags(log.Flags() | log.Llongfile)
	dsn := flag.String("dsn", "", "sqlite3 dsn")
	addr := flag.String("addr", ":6033", "listen")
	expiry := flag.Duration("expiry", time.Minute, "idle time before an open transaction is rolled back")
	flag.Parse()
	if flag.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "unexpected positional arguments\n")
		os.Exit(2)
	}
	db, err := sql.Open("sqlite3", *dsn)
	if err != nil {
		log.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	s := &dataapitest.Service{DB: db, Expiry: *expiry}
	mux := http.NewServeMux()
	mux.Handle("/refs", refsHandler(s))
	mux.Handle("/", s)
	log.Print(http.ListenAndServe(*addr, mux))
}
