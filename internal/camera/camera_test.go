package camera

import (
	"math"
	"testing"
)

func testSpec() Spec {
	return Spec{
		SensorWidthMM:  13.2,
		SensorHeightMM: 8.8,
		FocalLengthMM:  8.8,
		ImageWidthPx:   4000,
		ImageHeightPx:  3000,
	}
}

func TestGroundFootprintAndGSD(t *testing.T) {
	s := testSpec()
	width, height := s.GroundFootprint(100)

	wantWidth := 100 * 13.2 / 8.8
	wantHeight := 100 * 8.8 / 8.8
	if math.Abs(width-wantWidth) > 1e-9 {
		t.Errorf("ground width = %v, want %v", width, wantWidth)
	}
	if math.Abs(height-wantHeight) > 1e-9 {
		t.Errorf("ground height = %v, want %v", height, wantHeight)
	}

	gsd := s.GSD(100)
	if math.Abs(gsd-wantWidth/4000) > 1e-9 {
		t.Errorf("GSD = %v, want %v", gsd, wantWidth/4000)
	}
}

func TestLineSpacingAndPhotoInterval(t *testing.T) {
	s := testSpec()
	width, height := s.GroundFootprint(100)

	spacing := s.LineSpacing(100, 60)
	if math.Abs(spacing-width*0.4) > 1e-9 {
		t.Errorf("line spacing = %v, want %v", spacing, width*0.4)
	}

	interval := s.PhotoInterval(100, 80)
	if math.Abs(interval-height*0.2) > 1e-9 {
		t.Errorf("photo interval = %v, want %v", interval, height*0.2)
	}
}

func TestFOV(t *testing.T) {
	s := testSpec()
	h, v := s.FOV()
	if h <= 0 || v <= 0 {
		t.Fatalf("expected positive FOV, got (%v, %v)", h, v)
	}
	if h <= v {
		t.Errorf("expected horizontal FOV > vertical for wider sensor dimension, got h=%v v=%v", h, v)
	}
}
