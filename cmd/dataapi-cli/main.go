// Runs queries against a database through the RDS Data API, printing rows
// the way the sqlite3 command-line utility does.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/anacrolix/envpprof"
	"github.com/docopt/docopt-go"

	"github.com/anacrolix/dataapi"
)

const doc = "" +
	"Usage: dataapi-cli [--dsn=<dsn> | --config=<file>] <query>...\n" +
	"Options:\n" +
	"  --dsn=<dsn>      data source name, eg. resource_arn=...&secret_arn=...&region=...\n" +
	"  --config=<file>  YAML configuration file\n" +
	"With neither option, configuration is read from RDS_RESOURCE_ARN, RDS_SECRET_ARN,\n" +
	"RDS_DATABASE_NAME, RDS_REGION and friends."

func loadConfig(opts map[string]interface{}) (dataapi.Config, error) {
	if dsn, ok := opts["--dsn"].(string); ok {
		return dataapi.ParseDSN(dsn)
	}
	if file, ok := opts["--config"].(string); ok {
		return dataapi.LoadConfigFile(file)
	}
	return dataapi.ConfigFromEnv(), nil
}

func printRows(rows *sql.Rows) {
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		log.Fatal(err)
	}
	dest := make([]interface{}, len(cols))
	for i := range cols {
		dest[i] = new(interface{})
	}
	for rows.Next() {
		err = rows.Scan(dest...)
		if err != nil {
			log.Fatal(err)
		}
		for i := range cols {
			if i != 0 {
				fmt.Printf("|")
			}
			switch v := (*dest[i].(*interface{})).(type) {
			case nil:
			case []byte:
				fmt.Printf("%s", v)
			default:
				fmt.Printf("%v", v)
			}
		}
		fmt.Printf("\n")
	}
	if err := rows.Err(); err != nil {
		log.Fatal(err)
	}
}

func main() {
	log.SetFlags(log.Flags() | log.Lshortfile)
	opts, err := docopt.Parse(doc, nil, true, "", false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error parsing options: %s", err)
		os.Exit(2)
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %s\n", err)
		os.Exit(2)
	}
	db, err := sql.Open("dataapi", cfg.FormatDSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %s\n", err)
		os.Exit(1)
	}
	defer db.Close()
	for _, arg := range opts["<query>"].([]string) {
		rows, err := db.Query(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error executing sql: %s\n", err)
			os.Exit(1)
		}
		printRows(rows)
	}
}
