package region

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrDataLoad means the reference dataset is missing or corrupt. It is
	// fatal: the store refuses to start without a usable dataset.
	ErrDataLoad = errors.New("wilayah dataset load failed")

	// ErrRegionNotFound is returned when a lookup matches no region.
	ErrRegionNotFound = errors.New("region not found")
)

// Store gives read access to the wilayah reference dataset. The backing
// sqlite database is read-only after load, so a Store is safe for concurrent
// use without locking. The per-timezone city pools used as the sampling
// universe are indexed once at construction.
type Store struct {
	db        *sql.DB
	cityPools map[Timezone][]Region
}

// Open opens the sqlite dataset at path and indexes it. The file must already
// exist; use cmd/import-wilayah to build it from the official dump.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataLoad, path, err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataLoad, err)
	}
	s, err := NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore validates the dataset in db and builds the timezone indexes.
func NewStore(db *sql.DB) (*Store, error) {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM wilayah_2020`).Scan(&count); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataLoad, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", ErrDataLoad)
	}

	var dup string
	err := db.QueryRow(`SELECT kode FROM wilayah_2020 GROUP BY kode HAVING COUNT(*) > 1 LIMIT 1`).Scan(&dup)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: duplicate region code %q", ErrDataLoad, dup)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%w: %v", ErrDataLoad, err)
	}

	s := &Store{db: db}
	if err := s.buildCityPools(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the backing database.
func (s *Store) Close() error {
	return s.db.Close()
}

// cityRowsQuery selects regency-level rows that are cities: 5-char codes
// whose second segment is 71 or above and whose name carries the KOTA prefix.
// This is the granularity the upstream forecast service covers reliably.
const cityRowsQuery = `
	SELECT kode, nama
	FROM wilayah_2020
	WHERE LENGTH(kode) = 5
	AND CAST(SUBSTR(kode, 4, 2) AS INTEGER) >= 71
	AND nama LIKE 'KOTA %'
	ORDER BY kode`

func (s *Store) buildCityPools() error {
	rows, err := s.db.Query(cityRowsQuery)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDataLoad, err)
	}
	defer rows.Close()

	pools := make(map[Timezone][]Region, len(Timezones))
	for rows.Next() {
		var code, name string
		if err := rows.Scan(&code, &name); err != nil {
			return fmt.Errorf("%w: %v", ErrDataLoad, err)
		}
		tz, err := ClassifyTimezone(code)
		if err != nil {
			// A bad prefix fails that one record, not the whole store.
			log.Printf("region: skipping city %s: %v", code, err)
			continue
		}
		pools[tz] = append(pools[tz], Region{
			Code:     code,
			Name:     CleanName(name),
			Level:    LevelRegency,
			Parent:   ParentOf(code),
			Timezone: tz,
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDataLoad, err)
	}
	s.cityPools = pools
	return nil
}

// LookupByCode returns the region with the given code.
func (s *Store) LookupByCode(code string) (Region, error) {
	var name string
	err := s.db.QueryRow(`SELECT nama FROM wilayah_2020 WHERE kode = ?`, code).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return Region{}, fmt.Errorf("%w: code %q", ErrRegionNotFound, code)
	}
	if err != nil {
		return Region{}, err
	}
	return s.regionFromRow(code, name)
}

// FindByName does a case-insensitive substring search over region names,
// ordered by administrative level then name, capped at limit. An empty result
// is valid, not an error.
func (s *Store) FindByName(query string, limit int) ([]Region, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT kode, nama
		FROM wilayah_2020
		WHERE UPPER(nama) LIKE UPPER(?)
		ORDER BY LENGTH(kode), nama
		LIMIT ?`, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Region
	for rows.Next() {
		var code, name string
		if err := rows.Scan(&code, &name); err != nil {
			return nil, err
		}
		r, err := s.regionFromRow(code, name)
		if err != nil {
			continue
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// FindCityByName resolves a city by name substring, preferring city-level
// rows. Used to pin specific cities in a selection request.
func (s *Store) FindCityByName(query string) (Region, error) {
	var code, name string
	err := s.db.QueryRow(`
		SELECT kode, nama
		FROM wilayah_2020
		WHERE UPPER(nama) LIKE UPPER(?)
		AND LENGTH(kode) = 5
		AND CAST(SUBSTR(kode, 4, 2) AS INTEGER) >= 71
		AND nama LIKE 'KOTA %'
		ORDER BY nama
		LIMIT 1`, "%"+query+"%").Scan(&code, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return Region{}, fmt.Errorf("%w: no city matches %q", ErrRegionNotFound, query)
	}
	if err != nil {
		return Region{}, err
	}
	return s.regionFromRow(code, name)
}

// CitiesInTimezone returns the city-level sampling universe for a timezone.
// The returned slice is a copy; callers may reorder it freely.
func (s *Store) CitiesInTimezone(tz Timezone) []Region {
	pool := s.cityPools[tz]
	out := make([]Region, len(pool))
	copy(out, pool)
	return out
}

// WeatherKey maps a city to the upstream forecast query key: the code of the
// first village-level region under it. Upstream keys its forecasts by
// village (adm4) codes, not by city codes.
func (s *Store) WeatherKey(cityCode string) (string, error) {
	var key string
	err := s.db.QueryRow(`
		SELECT kode
		FROM wilayah_2020
		WHERE kode LIKE ? AND LENGTH(kode) >= 13
		ORDER BY kode
		LIMIT 1`, cityCode+".%").Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: no village under city %q", ErrRegionNotFound, cityCode)
	}
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *Store) regionFromRow(code, name string) (Region, error) {
	tz, err := ClassifyTimezone(code)
	if err != nil {
		return Region{}, err
	}
	return Region{
		Code:     code,
		Name:     CleanName(name),
		Level:    LevelOf(code),
		Parent:   ParentOf(code),
		Timezone: tz,
	}, nil
}
