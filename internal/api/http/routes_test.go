package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuacakota/weather-sampler/internal/bulletin"
	"github.com/cuacakota/weather-sampler/internal/region"
	"github.com/cuacakota/weather-sampler/internal/store"
)

func fixtureRegionStore(t *testing.T) *region.Store {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, region.CreateSchema(db))
	rows := [][2]string{
		{"31", "DKI JAKARTA"},
		{"31.71", "KOTA JAKARTA PUSAT"},
		{"31.71.01.1001", "GAMBIR"},
		{"51", "BALI"},
		{"51.71", "KOTA DENPASAR"},
		{"51.71.01.1001", "PEMECUTAN"},
		{"81", "MALUKU"},
		{"81.71", "KOTA AMBON"},
		{"81.71.01.1001", "BATU MEJA"},
	}
	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO wilayah_2020 (kode, nama) VALUES (?, ?)`, r[0], r[1])
		require.NoError(t, err)
	}

	s, err := region.NewStore(db)
	require.NoError(t, err)
	return s
}

type fakeGenerator struct {
	lastReq region.SelectionRequest
	out     bulletin.Bulletin
	err     error
}

func (g *fakeGenerator) Generate(ctx context.Context, req region.SelectionRequest) (bulletin.Bulletin, error) {
	g.lastReq = req
	return g.out, g.err
}

type fakeReader struct {
	latest bulletin.Bulletin
	byID   map[string]bulletin.Bulletin
	err    error
}

func (r *fakeReader) Latest() (bulletin.Bulletin, error) {
	if r.err != nil {
		return bulletin.Bulletin{}, r.err
	}
	return r.latest, nil
}

func (r *fakeReader) ByID(id string) (bulletin.Bulletin, error) {
	b, ok := r.byID[id]
	if !ok {
		return bulletin.Bulletin{}, store.ErrNotFound
	}
	return b, nil
}

func newTestApp(t *testing.T, gen *fakeGenerator, reader *fakeReader) *fiber.App {
	t.Helper()

	app := fiber.New()
	RegisterRoutes(app, Deps{
		Regions:   fixtureRegionStore(t),
		Generator: gen,
		Bulletins: reader,
		DefaultRequest: region.NewSelectionRequest(3).
			WithQuota(region.WIB, 1).
			WithQuota(region.WITA, 1).
			WithQuota(region.WIT, 1),
	})
	return app
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestSearchRegions(t *testing.T) {
	app := newTestApp(t, &fakeGenerator{}, &fakeReader{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/regions/search?q=jakarta", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Query   string          `json:"query"`
		Results []region.Region `json:"results"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "jakarta", body.Query)
	require.Len(t, body.Results, 2)
	assert.Equal(t, "31", body.Results[0].Code)
	assert.Equal(t, "31.71", body.Results[1].Code)
}

func TestSearchRegionsValidation(t *testing.T) {
	app := newTestApp(t, &fakeGenerator{}, &fakeReader{})

	for _, target := range []string{
		"/api/v1/regions/search",            // missing q
		"/api/v1/regions/search?q=j",        // too short
		"/api/v1/regions/search?q=ja&limit=0", // limit out of range
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
	}
}

func TestRegionTimezone(t *testing.T) {
	app := newTestApp(t, &fakeGenerator{}, &fakeReader{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/regions/51.71/timezone", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Code      string `json:"code"`
		Timezone  string `json:"timezone"`
		UTCOffset int    `json:"utcOffset"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "WITA", body.Timezone)
	assert.Equal(t, 8, body.UTCOffset)
}

func TestRegionTimezoneUnknown(t *testing.T) {
	app := newTestApp(t, &fakeGenerator{}, &fakeReader{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/regions/99.01/timezone", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateBulletinDefaultRequest(t *testing.T) {
	gen := &fakeGenerator{out: bulletin.Bulletin{ID: "b-1", Headline: "Prakiraan Cuaca BMKG"}}
	app := newTestApp(t, gen, &fakeReader{})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/bulletins", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body bulletin.Bulletin
	decodeBody(t, resp, &body)
	assert.Equal(t, "b-1", body.ID)

	// Empty body means the configured default selection.
	assert.Equal(t, 3, gen.lastReq.Total)
	assert.Equal(t, 1, gen.lastReq.Quotas[region.WIB])
}

func TestCreateBulletinWithOverrides(t *testing.T) {
	gen := &fakeGenerator{out: bulletin.Bulletin{ID: "b-2"}}
	app := newTestApp(t, gen, &fakeReader{})

	payload := `{"totalCities": 6, "wibCities": 3, "witaCities": 2, "witCities": 1, "pins": ["Jakarta"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulletins", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, 6, gen.lastReq.Total)
	assert.Equal(t, 3, gen.lastReq.Quotas[region.WIB])
	assert.Equal(t, 2, gen.lastReq.Quotas[region.WITA])
	assert.Equal(t, 1, gen.lastReq.Quotas[region.WIT])
	assert.Equal(t, []string{"Jakarta"}, gen.lastReq.Pins)
}

func TestCreateBulletinErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{region.ErrInsufficientPool, http.StatusUnprocessableEntity},
		{region.ErrRegionNotFound, http.StatusNotFound},
		{region.ErrUnknownRegion, http.StatusBadRequest},
	}
	for _, tc := range cases {
		app := newTestApp(t, &fakeGenerator{err: tc.err}, &fakeReader{})

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/bulletins", nil))
		require.NoError(t, err)
		assert.Equal(t, tc.want, resp.StatusCode, tc.err)
	}
}

func TestCreateBulletinRejectsMalformedBody(t *testing.T) {
	app := newTestApp(t, &fakeGenerator{}, &fakeReader{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulletins", strings.NewReader(`{"totalCities": -1}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLatestBulletin(t *testing.T) {
	reader := &fakeReader{latest: bulletin.Bulletin{ID: "b-latest"}}
	app := newTestApp(t, &fakeGenerator{}, reader)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/bulletins/latest", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body bulletin.Bulletin
	decodeBody(t, resp, &body)
	assert.Equal(t, "b-latest", body.ID)
}

func TestLatestBulletinNoneYet(t *testing.T) {
	app := newTestApp(t, &fakeGenerator{}, &fakeReader{err: store.ErrNotFound})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/bulletins/latest", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBulletinByID(t *testing.T) {
	reader := &fakeReader{byID: map[string]bulletin.Bulletin{"b-7": {ID: "b-7"}}}
	app := newTestApp(t, &fakeGenerator{}, reader)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/bulletins/b-7", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/bulletins/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
