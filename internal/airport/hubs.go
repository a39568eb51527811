package airport

// Tier membership. Codes are IATA.
var majorHubs = setOf(
	// North America
	"ATL", "ORD", "DFW", "DEN", "LAX", "JFK", "SFO", "SEA", "EWR", "IAH", "MIA", "LAS", "MCO", "PHX", "BOS",
	// Europe
	"LHR", "CDG", "FRA", "AMS", "MAD", "IST", "FCO", "MUC",
	// Middle East and Asia Pacific
	"DXB", "DOH", "HND", "NRT", "SIN", "HKG", "ICN", "PEK", "PVG", "SYD",
)

var largeHubs = setOf(
	"CLT", "MSP", "DTW", "PHL", "LGA", "BWI", "SLC", "SAN", "IAD", "DCA", "TPA", "PDX", "MDW", "HNL", "FLL",
	"BNA", "AUS", "STL", "YYZ", "YVR", "YUL", "MEX", "CUN",
	"LGW", "BCN", "ZRH", "VIE", "CPH", "DUB", "LIS", "BRU", "OSL", "ARN",
	"AUH", "BKK", "KUL", "TPE", "MNL", "DEL", "BOM", "MEL", "GRU",
)

func setOf(codes ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		m[c] = struct{}{}
	}
	return m
}

// MajorHubs returns the major hub codes in no particular order.
func MajorHubs() []string {
	codes := make([]string, 0, len(majorHubs))
	for c := range majorHubs {
		codes = append(codes, c)
	}
	return codes
}
