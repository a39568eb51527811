package airport

// Location is an airport reference point.
type Location struct {
	Lat float64
	Lon float64
}

// LocationOf returns the reference point of a known airport.
func LocationOf(code string) (Location, bool) {
	loc, ok := locations[NormalizeCode(code)]
	return loc, ok
}

var locations = map[string]Location{
	"ATL": {33.6407, -84.4277},
	"ORD": {41.9742, -87.9073},
	"DFW": {32.8998, -97.0403},
	"DEN": {39.8561, -104.6737},
	"LAX": {33.9416, -118.4085},
	"JFK": {40.6413, -73.7781},
	"SFO": {37.6213, -122.3790},
	"SEA": {47.4502, -122.3088},
	"EWR": {40.6895, -74.1745},
	"IAH": {29.9902, -95.3368},
	"MIA": {25.7959, -80.2870},
	"LAS": {36.0840, -115.1537},
	"MCO": {28.4312, -81.3081},
	"PHX": {33.4342, -112.0116},
	"BOS": {42.3656, -71.0096},
	"LHR": {51.4700, -0.4543},
	"CDG": {49.0097, 2.5479},
	"FRA": {50.0379, 8.5622},
	"AMS": {52.3105, 4.7683},
	"MAD": {40.4983, -3.5676},
	"IST": {41.2753, 28.7519},
	"FCO": {41.8003, 12.2389},
	"MUC": {48.3538, 11.7861},
	"DXB": {25.2532, 55.3657},
	"DOH": {25.2731, 51.6081},
	"HND": {35.5494, 139.7798},
	"NRT": {35.7720, 140.3929},
	"SIN": {1.3644, 103.9915},
	"HKG": {22.3080, 113.9185},
	"ICN": {37.4602, 126.4407},
	"PEK": {40.0799, 116.6031},
	"PVG": {31.1443, 121.8083},
	"SYD": {-33.9399, 151.1753},
	"CLT": {35.2144, -80.9473},
	"MSP": {44.8848, -93.2223},
	"DTW": {42.2162, -83.3554},
	"PHL": {39.8744, -75.2424},
	"LGA": {40.7769, -73.8740},
	"BWI": {39.1774, -76.6684},
	"SLC": {40.7899, -111.9791},
	"SAN": {32.7338, -117.1933},
	"IAD": {38.9531, -77.4565},
	"DCA": {38.8512, -77.0402},
	"TPA": {27.9755, -82.5332},
	"PDX": {45.5898, -122.5951},
	"MDW": {41.7868, -87.7522},
	"HNL": {21.3187, -157.9225},
	"FLL": {26.0742, -80.1506},
	"BNA": {36.1263, -86.6774},
	"AUS": {30.1975, -97.6664},
	"STL": {38.7499, -90.3748},
	"YYZ": {43.6777, -79.6248},
	"YVR": {49.1967, -123.1815},
	"YUL": {45.4706, -73.7408},
	"MEX": {19.4361, -99.0719},
	"CUN": {21.0365, -86.8771},
	"LGW": {51.1537, -0.1821},
	"BCN": {41.2974, 2.0833},
	"ZRH": {47.4582, 8.5555},
	"VIE": {48.1103, 16.5697},
	"CPH": {55.6180, 12.6508},
	"DUB": {53.4264, -6.2499},
	"LIS": {38.7756, -9.1354},
	"BRU": {50.9010, 4.4856},
	"OSL": {60.1976, 11.1004},
	"ARN": {59.6498, 17.9238},
	"AUH": {24.4330, 54.6511},
	"BKK": {13.6900, 100.7501},
	"KUL": {2.7456, 101.7099},
	"TPE": {25.0797, 121.2342},
	"MNL": {14.5086, 121.0198},
	"DEL": {28.5562, 77.1000},
	"BOM": {19.0896, 72.8656},
	"MEL": {-37.6690, 144.8410},
	"GRU": {-23.4356, -46.4731},
	"RDU": {35.8801, -78.7880},
	"SMF": {38.6954, -121.5908},
	"SJC": {37.3639, -121.9289},
	"OAK": {37.7126, -122.2197},
	"MSY": {29.9934, -90.2580},
	"CLE": {41.4117, -81.8498},
	"PIT": {40.4915, -80.2329},
	"IND": {39.7169, -86.2956},
	"CMH": {39.9999, -82.8872},
	"MCI": {39.2976, -94.7139},
	"SAT": {29.5337, -98.4698},
	"BUF": {42.9405, -78.7322},
	"ANC": {61.1743, -149.9963},
}
