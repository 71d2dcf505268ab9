package imaging

import (
	"image/color"
	"testing"
)

func TestRegion_Clip(t *testing.T) {
	f := createSolidFrame(100, 80, color.RGBA{0, 0, 0, 255})

	tests := []struct {
		name string
		in   Region
		want Region
	}{
		{"inside", Region{10, 10, 20, 20}, Region{10, 10, 20, 20}},
		{"right overflow", Region{90, 10, 20, 20}, Region{90, 10, 10, 20}},
		{"bottom overflow", Region{10, 70, 20, 20}, Region{10, 70, 20, 10}},
		{"negative origin", Region{-10, -5, 20, 20}, Region{0, 0, 10, 15}},
		{"negative width", Region{10, 10, -5, 20}, Region{10, 10, 0, 20}},
		{"negative height", Region{10, 10, 5, -20}, Region{10, 10, 5, 0}},
		{"fully right", Region{200, 10, 20, 20}, Region{100, 10, 0, 20}},
		{"fully above", Region{10, -50, 20, 20}, Region{10, 0, 20, 0}},
		{"whole frame", Region{0, 0, 100, 80}, Region{0, 0, 100, 80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Clip(f)
			if got != tt.want {
				t.Errorf("Clip(%+v): got %+v, want %+v", tt.in, got, tt.want)
			}
			if got.Width < 0 || got.Height < 0 {
				t.Errorf("Clip produced negative size: %+v", got)
			}
		})
	}
}

func TestRegion_ClipEmptyFrame(t *testing.T) {
	got := Region{X: 5, Y: 5, Width: 10, Height: 10}.Clip(NewFrame(0, 0, nil))
	if !got.Empty() {
		t.Errorf("clip against empty frame: got %+v, want empty", got)
	}
}

func TestRegion_Area(t *testing.T) {
	if a := (Region{Width: 3, Height: 4}).Area(); a != 12 {
		t.Errorf("Area: got %d, want 12", a)
	}
	if a := (Region{Width: -3, Height: 4}).Area(); a != 0 {
		t.Errorf("Area of negative region: got %d, want 0", a)
	}
}
