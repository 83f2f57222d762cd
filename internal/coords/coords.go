// Package coords extracts latitude/longitude pairs from the heterogeneous
// record shapes the upstream store hands back — varying key names, a
// nested location object, or a [lon, lat] coordinate pair — shared by the
// catalog loader (point/line ingestion) and the TEC schema transform.
package coords

import "strconv"

var latitudeKeys = []string{"latitude", "lat", "Latitude", "Latitude_deg"}
var longitudeKeys = []string{"longitude", "lon", "lng", "Longitude", "Longitude_deg"}

// ExtractLatLon returns latitude/longitude from a heterogeneous record map,
// trying direct key variants first, then a nested "location" object, then
// a "coordinates" list in [lon, lat] order. ok is false if no finite pair
// could be found.
func ExtractLatLon(row map[string]any) (lat, lon float64, ok bool) {
	var latOK, lonOK bool

	for _, key := range latitudeKeys {
		if v, present := row[key]; present {
			if f, fOK := CoerceFloat(v); fOK {
				lat, latOK = f, true
				break
			}
		}
	}
	for _, key := range longitudeKeys {
		if v, present := row[key]; present {
			if f, fOK := CoerceFloat(v); fOK {
				lon, lonOK = f, true
				break
			}
		}
	}

	if (!latOK || !lonOK) {
		if loc, isMap := row["location"].(map[string]any); isMap {
			if !latOK {
				if f, fOK := coerceFirst(loc, "lat", "latitude"); fOK {
					lat, latOK = f, true
				}
			}
			if !lonOK {
				if f, fOK := coerceFirst(loc, "lon", "lng", "longitude"); fOK {
					lon, lonOK = f, true
				}
			}
		}
	}

	if (!latOK || !lonOK) {
		if list, isList := row["coordinates"].([]any); isList && len(list) >= 2 {
			if !lonOK {
				if f, fOK := CoerceFloat(list[0]); fOK {
					lon, lonOK = f, true
				}
			}
			if !latOK {
				if f, fOK := CoerceFloat(list[1]); fOK {
					lat, latOK = f, true
				}
			}
		}
	}

	return lat, lon, latOK && lonOK
}

func coerceFirst(m map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		if v, present := m[key]; present {
			if f, ok := CoerceFloat(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

// CoerceFloat converts a loosely-typed value (float64, int, json.Number-like
// string) into a float64, returning false if the conversion is not possible
// or the result is not finite.
func CoerceFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, isFinite(val)
	case float32:
		return float64(val), isFinite(float64(val))
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return f, isFinite(f)
	default:
		return 0, false
	}
}

func isFinite(f float64) bool {
	return f == f && f > -1e308 && f < 1e308
}
