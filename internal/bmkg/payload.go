package bmkg

// ForecastSlot is one upstream forecast entry for a specific time window.
// Numeric fields are pointers because upstream omits them for some regions.
type ForecastSlot struct {
	DateTime      string   `json:"datetime"`
	LocalDateTime string   `json:"local_datetime"`
	Temperature   *float64 `json:"t"`
	Humidity      *float64 `json:"hu"`
	WeatherDesc   string   `json:"weather_desc"`
	WindSpeed     *float64 `json:"ws"`
	WindDirection string   `json:"wd"`
	CloudCover    *float64 `json:"tcc"`
	Visibility    string   `json:"vs_text"`
}

// Forecast is the parsed, flattened payload for one region.
type Forecast struct {
	RegionCode   string         // city code the fetch was issued for
	QueryKey     string         // upstream adm4 key actually queried
	LocationName string         // upstream's own name for the location
	Slots        []ForecastSlot // all forecast slots, all days, flattened
}

// response mirrors the upstream payload shape: one data element per queried
// key, with forecast slots grouped per day in a nested array.
type response struct {
	Data []struct {
		Lokasi struct {
			Adm4     string `json:"adm4"`
			Desa     string `json:"desa"`
			Kotkab   string `json:"kotkab"`
			Provinsi string `json:"provinsi"`
		} `json:"lokasi"`
		Cuaca [][]ForecastSlot `json:"cuaca"`
	} `json:"data"`
}

// flattenSlots collapses the per-day nesting into a single ordered slot list.
func flattenSlots(days [][]ForecastSlot) []ForecastSlot {
	var out []ForecastSlot
	for _, day := range days {
		out = append(out, day...)
	}
	return out
}
