package geo

import "testing"

func TestHaversineKm(t *testing.T) {
	// Jakarta (-6.2, 106.816) to Bandung (-6.9175, 107.6191) ~ 115-120 km
	d := HaversineKm(-6.2, 106.816, -6.9175, 107.6191)
	if d < 100 || d > 140 {
		t.Fatalf("unexpected distance: %v", d)
	}
	if HaversineKm(52.52, 13.405, 52.52, 13.405) != 0 {
		t.Fatalf("expected zero distance for identical points")
	}
}

func TestValidFix(t *testing.T) {
	if !ValidFix(-6.2, 106.8) {
		t.Fatalf("expected valid fix")
	}
	if ValidFix(91, 0) || ValidFix(0, -181) {
		t.Fatalf("expected invalid fix")
	}
}
