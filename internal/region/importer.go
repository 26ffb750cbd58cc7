package region

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS wilayah_2020 (
		kode TEXT NOT NULL PRIMARY KEY,
		nama TEXT DEFAULT NULL
	)`

// CreateSchema creates the wilayah_2020 table if it does not exist.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(createTableSQL)
	return err
}

var valueRowRe = regexp.MustCompile(`\('([^']*)',\s*'([^']*)'\)`)

// ImportDump loads the official wilayah_2020 SQL dump into db. The dump is a
// series of INSERT statements; only the ('code', 'name') value tuples are
// consumed. Returns the number of rows inserted.
func ImportDump(db *sql.DB, r io.Reader) (int, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read dump: %w", err)
	}

	rows := valueRowRe.FindAllStringSubmatch(string(content), -1)
	if len(rows) == 0 {
		return 0, fmt.Errorf("no value rows found in dump")
	}

	records := make([][2]string, 0, len(rows))
	for _, m := range rows {
		records = append(records, [2]string{m[1], m[2]})
	}
	return insertBatched(db, records)
}

// ImportCSV loads a two-column (code, name) CSV into db. A header row is
// skipped when the first field is not a numeric code.
func ImportCSV(db *sql.DB, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var records [][2]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read csv: %w", err)
		}
		if len(rec) < 2 {
			continue
		}
		code := strings.TrimSpace(rec[0])
		if code == "" || (code[0] < '0' || code[0] > '9') {
			continue
		}
		records = append(records, [2]string{code, strings.TrimSpace(rec[1])})
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("no rows found in csv")
	}
	return insertBatched(db, records)
}

func insertBatched(db *sql.DB, records [][2]string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO wilayah_2020 (kode, nama) VALUES (?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for _, rec := range records {
		if _, err := stmt.Exec(rec[0], rec[1]); err != nil {
			return count, fmt.Errorf("insert %s: %w", rec[0], err)
		}
		count++
	}
	return count, tx.Commit()
}
