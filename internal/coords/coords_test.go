package coords

import "testing"

func TestExtractLatLon_DirectKeys(t *testing.T) {
	lat, lon, ok := ExtractLatLon(map[string]any{"latitude": 51.5, "longitude": -0.1})
	if !ok || lat != 51.5 || lon != -0.1 {
		t.Fatalf("expected (51.5, -0.1, true), got (%v, %v, %v)", lat, lon, ok)
	}
}

func TestExtractLatLon_AlternateKeyNames(t *testing.T) {
	lat, lon, ok := ExtractLatLon(map[string]any{"lat": 52.0, "lng": -1.0})
	if !ok || lat != 52.0 || lon != -1.0 {
		t.Fatalf("expected (52.0, -1.0, true), got (%v, %v, %v)", lat, lon, ok)
	}
}

func TestExtractLatLon_NestedLocationObject(t *testing.T) {
	row := map[string]any{"location": map[string]any{"lat": 53.0, "lon": -2.0}}
	lat, lon, ok := ExtractLatLon(row)
	if !ok || lat != 53.0 || lon != -2.0 {
		t.Fatalf("expected (53.0, -2.0, true), got (%v, %v, %v)", lat, lon, ok)
	}
}

func TestExtractLatLon_CoordinatesListIsLonLatOrder(t *testing.T) {
	row := map[string]any{"coordinates": []any{-3.0, 54.0}}
	lat, lon, ok := ExtractLatLon(row)
	if !ok || lat != 54.0 || lon != -3.0 {
		t.Fatalf("expected (54.0, -3.0, true), got (%v, %v, %v)", lat, lon, ok)
	}
}

func TestExtractLatLon_MissingReturnsFalse(t *testing.T) {
	if _, _, ok := ExtractLatLon(map[string]any{}); ok {
		t.Errorf("expected no coordinates to resolve from an empty row")
	}
}

func TestExtractLatLon_StringNumericValues(t *testing.T) {
	lat, lon, ok := ExtractLatLon(map[string]any{"latitude": "51.5", "longitude": "-0.1"})
	if !ok || lat != 51.5 || lon != -0.1 {
		t.Fatalf("expected numeric strings to coerce, got (%v, %v, %v)", lat, lon, ok)
	}
}

func TestCoerceFloat_RejectsNonFiniteAndUnsupportedTypes(t *testing.T) {
	if _, ok := CoerceFloat("not-a-number"); ok {
		t.Errorf("expected non-numeric string to fail")
	}
	if _, ok := CoerceFloat(true); ok {
		t.Errorf("expected unsupported type to fail")
	}
}
