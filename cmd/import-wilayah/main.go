// Command import-wilayah builds the sqlite region dataset from the official
// wilayah_2020 dump. Run once before starting the service:
//
//	import-wilayah -src wilayah_2020.sql -db wilayah.db
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cuacakota/weather-sampler/internal/region"
)

func main() {
	src := flag.String("src", "wilayah_2020.sql", "source dump (.sql) or two-column csv")
	dbPath := flag.String("db", "wilayah.db", "destination sqlite database")
	flag.Parse()

	if err := run(*src, *dbPath); err != nil {
		log.Fatal(err)
	}
}

func run(src, dbPath string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if err := region.CreateSchema(db); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	fmt.Printf("Importing %s...\n", src)

	var count int
	if strings.EqualFold(filepath.Ext(src), ".csv") {
		count, err = region.ImportCSV(db, f)
	} else {
		count, err = region.ImportDump(db, f)
	}
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	fmt.Printf("Finished importing %d regions into %s.\n", count, dbPath)

	// Sanity check: the store must accept what we just wrote.
	s, err := region.NewStore(db)
	if err != nil {
		return fmt.Errorf("verify dataset: %w", err)
	}
	for _, tz := range region.Timezones {
		fmt.Printf("  %-4s: %d cities\n", tz, len(s.CitiesInTimezone(tz)))
	}
	return nil
}
