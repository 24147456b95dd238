package domain

// District is one row of the static registry: a named bounding box tied to
// the identifiers for the two IPMA feeds.
type District struct {
	Name string

	// Inclusive bounding box, WGS-84 degrees.
	MinLat, MaxLat float64
	MinLon, MaxLon float64

	// ForecastID keys the daily forecast feed (IPMA globalIdLocal).
	ForecastID string
	// WarningAreaID keys the warnings feed (IPMA idAreaAviso).
	WarningAreaID string
}

// Contains reports whether the point lies inside the district's bounding box,
// both bounds inclusive.
func (d District) Contains(lat, lon float64) bool {
	return lat >= d.MinLat && lat <= d.MaxLat && lon >= d.MinLon && lon <= d.MaxLon
}

// districts is the registry for the 18 mainland districts, transcribed from
// the upstream table in its original order. Order is load-bearing: overlapping
// boxes resolve to the earliest row. Known upstream irregularities are kept
// verbatim: Castelo Branco repeats Coimbra's CBR warning area, Setúbal repeats
// Lisboa's 1110600 forecast id, and Vila Real's forecast id is the
// non-numeric VRL1171400.
var districts = []District{
	{Name: "Viana do Castelo", MinLat: 41.70, MaxLat: 42.15, MinLon: -8.90, MaxLon: -8.05, ForecastID: "1160900", WarningAreaID: "VCT"},
	{Name: "Braga", MinLat: 41.30, MaxLat: 41.80, MinLon: -8.80, MaxLon: -7.95, ForecastID: "1030300", WarningAreaID: "BRG"},
	{Name: "Vila Real", MinLat: 41.20, MaxLat: 41.90, MinLon: -8.00, MaxLon: -7.20, ForecastID: "VRL1171400", WarningAreaID: "VRL"},
	{Name: "Bragança", MinLat: 41.30, MaxLat: 41.95, MinLon: -7.25, MaxLon: -6.20, ForecastID: "1040200", WarningAreaID: "BGC"},
	{Name: "Porto", MinLat: 40.90, MaxLat: 41.45, MinLon: -8.80, MaxLon: -7.95, ForecastID: "1131200", WarningAreaID: "PTO"},
	{Name: "Aveiro", MinLat: 40.30, MaxLat: 41.00, MinLon: -8.85, MaxLon: -8.10, ForecastID: "1010500", WarningAreaID: "AVR"},
	{Name: "Viseu", MinLat: 40.40, MaxLat: 41.20, MinLon: -8.15, MaxLon: -7.20, ForecastID: "1182300", WarningAreaID: "VIS"},
	{Name: "Guarda", MinLat: 40.20, MaxLat: 41.00, MinLon: -7.35, MaxLon: -6.75, ForecastID: "1090700", WarningAreaID: "GDA"},
	{Name: "Coimbra", MinLat: 39.90, MaxLat: 40.45, MinLon: -8.90, MaxLon: -7.75, ForecastID: "1060300", WarningAreaID: "CBR"},
	// Castelo Branco repeats CBR in the upstream table; kept as-is.
	{Name: "Castelo Branco", MinLat: 39.60, MaxLat: 40.30, MinLon: -7.85, MaxLon: -6.85, ForecastID: "1050200", WarningAreaID: "CBR"},
	{Name: "Leiria", MinLat: 39.35, MaxLat: 40.05, MinLon: -9.10, MaxLon: -8.30, ForecastID: "1100900", WarningAreaID: "LRA"},
	{Name: "Santarém", MinLat: 38.90, MaxLat: 39.80, MinLon: -8.95, MaxLon: -8.00, ForecastID: "1141600", WarningAreaID: "STM"},
	{Name: "Portalegre", MinLat: 38.80, MaxLat: 39.65, MinLon: -8.05, MaxLon: -6.95, ForecastID: "1121400", WarningAreaID: "PTG"},
	{Name: "Lisboa", MinLat: 38.65, MaxLat: 39.30, MinLon: -9.50, MaxLon: -8.80, ForecastID: "1110600", WarningAreaID: "LSB"},
	// Setúbal repeats Lisboa's forecast id in the upstream table; kept as-is.
	{Name: "Setúbal", MinLat: 37.80, MaxLat: 38.70, MinLon: -9.25, MaxLon: -8.30, ForecastID: "1110600", WarningAreaID: "STB"},
	{Name: "Évora", MinLat: 38.20, MaxLat: 38.95, MinLon: -8.35, MaxLon: -7.10, ForecastID: "1070500", WarningAreaID: "EVR"},
	{Name: "Beja", MinLat: 37.45, MaxLat: 38.30, MinLon: -8.80, MaxLon: -6.95, ForecastID: "1020500", WarningAreaID: "BJA"},
	{Name: "Faro", MinLat: 36.95, MaxLat: 37.55, MinLon: -9.00, MaxLon: -7.40, ForecastID: "1080500", WarningAreaID: "FAR"},
}

// Districts returns the registry in registration order. The returned slice is
// shared; callers must not mutate it.
func Districts() []District {
	return districts
}

// Resolve maps a coordinate to its containing district. Overlapping boxes
// resolve to the first matching row. ok is false when the point lies outside
// every district.
func Resolve(lat, lon float64) (District, bool) {
	return ResolveIn(districts, lat, lon)
}

// ResolveIn is Resolve over an explicit registry, used by tests that need
// synthetic overlapping districts.
func ResolveIn(registry []District, lat, lon float64) (District, bool) {
	for _, d := range registry {
		if d.Contains(lat, lon) {
			return d, true
		}
	}
	return District{}, false
}
