package obstacles

import (
	"testing"

	"github.com/PossumXI/Asgard/Skylark/internal/geometry"
)

func TestIndexPointQuery(t *testing.T) {
	idx := NewIndex(100)
	idx.Add(NewCircular("c1", 23.7027, 120.4193, 10, 2))

	if _, found := idx.PointInObstacle(23.7027, 120.4193); !found {
		t.Error("expected center point to be inside obstacle")
	}
	if _, found := idx.PointInObstacle(23.8, 120.6); found {
		t.Error("expected far point to be outside obstacle")
	}
}

func TestIndexSegmentQuery(t *testing.T) {
	idx := NewIndex(100)
	idx.Add(NewCircular("c1", 23.7027, 120.4193, 50, 5))

	// Segment passing near the obstacle center.
	if _, found := idx.SegmentIntersectsObstacle(23.7020, 120.4190, 23.7035, 120.4200); !found {
		t.Error("expected segment crossing the obstacle to be detected")
	}
	// Segment far away.
	if _, found := idx.SegmentIntersectsObstacle(23.9, 120.9, 23.91, 120.91); found {
		t.Error("expected distant segment to not intersect")
	}
}

func TestIndexActiveFlagFiltersQueries(t *testing.T) {
	idx := NewIndex(100)
	o := NewCircular("c1", 23.7027, 120.4193, 10, 2)
	idx.Add(o)
	o.SetActive(false)

	if _, found := idx.PointInObstacle(23.7027, 120.4193); found {
		t.Error("inactive obstacle should not be reported")
	}
}

func TestIndexRemoveAndClear(t *testing.T) {
	idx := NewIndex(100)
	idx.Add(NewCircular("c1", 23.7027, 120.4193, 10, 2))
	idx.Remove("c1")

	if stats := idx.Statistics(); stats.Total != 0 {
		t.Errorf("expected 0 obstacles after remove, got %d", stats.Total)
	}

	idx.Add(NewCircular("c2", 23.7027, 120.4193, 10, 2))
	idx.Clear()
	if stats := idx.Statistics(); stats.Total != 0 {
		t.Errorf("expected 0 obstacles after clear, got %d", stats.Total)
	}
}

func TestPolygonalObstacleContainsPoint(t *testing.T) {
	verts := []geometry.GeoPoint{
		{Lat: 23.7000, Lon: 120.4000},
		{Lat: 23.7000, Lon: 120.4100},
		{Lat: 23.7100, Lon: 120.4100},
		{Lat: 23.7100, Lon: 120.4000},
	}
	poly := NewPolygonal("p1", verts, 0)

	if !poly.ContainsPoint(23.7050, 120.4050) {
		t.Error("expected centroid-ish point to be inside polygon obstacle")
	}
	if poly.ContainsPoint(23.8, 120.6) {
		t.Error("expected far point to be outside polygon obstacle")
	}
}

func TestAutoAssignedID(t *testing.T) {
	idx := NewIndex(100)
	o := NewCircular("", 23.7027, 120.4193, 10, 2)
	id := idx.Add(o)
	if id == "" {
		t.Fatal("expected non-empty auto-assigned id")
	}
	if o.ID() != id {
		t.Errorf("obstacle id not updated: got %q want %q", o.ID(), id)
	}
}
