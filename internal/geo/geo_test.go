package geo

import (
	"math"
	"testing"
)

func TestHaversine_ZeroDistance(t *testing.T) {
	d := Haversine(51.5, -0.1, 51.5, -0.1)
	if d != 0 {
		t.Errorf("expected 0 distance for identical points, got %f", d)
	}
}

func TestHaversine_KnownDistance(t *testing.T) {
	// London to Paris is roughly 344km.
	d := Haversine(51.5074, -0.1278, 48.8566, 2.3522)
	if d < 330 || d > 360 {
		t.Errorf("expected London-Paris distance near 344km, got %f", d)
	}
}

func TestPointToSegmentKM_ProjectsOntoSegment(t *testing.T) {
	// A point at the segment midpoint projects onto itself.
	d := PointToSegmentKM(51.0, 0.05, 51.0, 0.0, 51.0, 0.1)
	if d != 0 {
		t.Errorf("expected 0 distance for a point on the segment, got %f", d)
	}
}

func TestPointToSegmentKM_ClampsBeforeStart(t *testing.T) {
	onEndpoint := Haversine(51.0, -0.1, 51.0, 0.0)
	d := PointToSegmentKM(51.0, -0.1, 51.0, 0.0, 51.0, 0.1)
	if math.Abs(d-onEndpoint) > 1e-9 {
		t.Errorf("expected clamping to segment start, got %f want %f", d, onEndpoint)
	}
}

func TestPointToSegmentKM_DegenerateSegment(t *testing.T) {
	d := PointToSegmentKM(51.0, 0.0, 50.0, 0.0, 50.0, 0.0)
	expected := Haversine(51.0, 0.0, 50.0, 0.0)
	if math.Abs(d-expected) > 1e-9 {
		t.Errorf("expected degenerate segment to behave like a point, got %f want %f", d, expected)
	}
}

func TestBBoxWithinSearch_InsideMargin(t *testing.T) {
	bbox := BBox{MinLat: 51.0, MinLon: -0.2, MaxLat: 51.2, MaxLon: 0.0}
	if !BBoxWithinSearch(bbox, 51.1, 0.05, 10) {
		t.Errorf("expected point just outside bbox but within margin to pass")
	}
}

func TestBBoxWithinSearch_RejectsFarPoints(t *testing.T) {
	bbox := BBox{MinLat: 51.0, MinLon: -0.2, MaxLat: 51.2, MaxLon: 0.0}
	if BBoxWithinSearch(bbox, 60.0, 10.0, 10) {
		t.Errorf("expected far point to be rejected")
	}
}

func TestBBoxWithinSearch_PoleFloorPreventsUnboundedMargin(t *testing.T) {
	bbox := BBox{MinLat: 89.0, MinLon: -0.1, MaxLat: 89.1, MaxLon: 0.1}
	// Near the pole cos(lat) is tiny; the 0.2 floor should still produce a
	// finite, bounded longitude margin rather than accepting everything.
	if BBoxWithinSearch(bbox, 89.05, 170.0, 10) {
		t.Errorf("expected the pole-floor margin to still reject a far-away longitude")
	}
}
