package sampler

import (
	"reflect"
	"testing"
)

func TestNewDomainValidation(t *testing.T) {
	tests := []struct {
		name           string
		x0, x1, y0, y1 float64
		wantErr        bool
	}{
		{"unit square", 0, 1, 0, 1, false},
		{"negative spans", -2, -1, -3, 3, false},
		{"empty x span", 1, 1, 0, 1, true},
		{"inverted x span", 2, 1, 0, 1, true},
		{"inverted y span", 0, 1, 5, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDomain(tt.x0, tt.x1, tt.y0, tt.y1)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewDomain(%v, %v, %v, %v): err = %v, wantErr %v",
					tt.x0, tt.x1, tt.y0, tt.y1, err, tt.wantErr)
			}
		})
	}
}

func TestSampleDeterministic(t *testing.T) {
	d, _ := NewDomain(0, 1, 0, 1)

	a := Sample(NewRand(42), d, 20, 5)
	b := Sample(NewRand(42), d, 20, 5)
	if !reflect.DeepEqual(a, b) {
		t.Error("identical seeds produced different datasets")
	}

	c := Sample(NewRand(43), d, 20, 5)
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds produced identical datasets")
	}
}

func TestSplitStreamsDiverge(t *testing.T) {
	r := NewRand(7)
	a, b := r.Split(), r.Split()

	same := true
	for i := 0; i < 16; i++ {
		if a.Float64() != b.Float64() {
			same = false
			break
		}
	}
	if same {
		t.Error("two splits of the same stream produced identical values")
	}
}

func TestConsecutiveSamplesDiffer(t *testing.T) {
	d, _ := NewDomain(0, 1, 0, 1)
	r := NewRand(1)

	a := Sample(r.Split(), d, 10, 4)
	b := Sample(r.Split(), d, 10, 4)
	if reflect.DeepEqual(a, b) {
		t.Error("consecutive splits produced identical datasets")
	}
}

func TestSampleShapes(t *testing.T) {
	d, _ := NewDomain(0, 2, -1, 1)
	ds := Sample(NewRand(3), d, 17, 6)

	if got := ds.Interior.Len(); got != 17 {
		t.Errorf("interior: got %d points, want 17", got)
	}
	for name, b := range map[string]Batch{
		"left": ds.Left, "right": ds.Right, "bottom": ds.Bottom, "top": ds.Top,
	} {
		if b.Len() != 6 {
			t.Errorf("%s edge: got %d points, want 6", name, b.Len())
		}
		if len(b.Xs) != len(b.Ys) {
			t.Errorf("%s edge: xs and ys lengths differ", name)
		}
	}
}

func TestSampleBounds(t *testing.T) {
	d, _ := NewDomain(0, 2, -1, 1)
	ds := Sample(NewRand(9), d, 100, 25)

	for i := range ds.Interior.Xs {
		x, y := ds.Interior.Xs[i], ds.Interior.Ys[i]
		if x < d.X0 || x >= d.X1 || y < d.Y0 || y >= d.Y1 {
			t.Fatalf("interior point (%v, %v) outside domain", x, y)
		}
	}
	for i := range ds.Left.Xs {
		if ds.Left.Xs[i] != d.X0 {
			t.Errorf("left edge x = %v, want %v", ds.Left.Xs[i], d.X0)
		}
		if ds.Right.Xs[i] != d.X1 {
			t.Errorf("right edge x = %v, want %v", ds.Right.Xs[i], d.X1)
		}
		if ds.Bottom.Ys[i] != d.Y0 {
			t.Errorf("bottom edge y = %v, want %v", ds.Bottom.Ys[i], d.Y0)
		}
		if ds.Top.Ys[i] != d.Y1 {
			t.Errorf("top edge y = %v, want %v", ds.Top.Ys[i], d.Y1)
		}
	}
}
