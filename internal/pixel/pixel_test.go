package pixel

import (
	"math"
	"testing"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		typ  Type
		in   float64
		want float64
	}{
		{Uint8, 12.9, 12},
		{Uint8, -3, 0},
		{Uint8, 300, 255},
		{Uint8, math.NaN(), 0},
		{Uint16, 65535.7, 65535},
		{Uint16, 1234.5, 1234},
		{Float32, 0.5, 0.5},
		{Float32, 1e300, math.MaxFloat32},
		{Float32, -1e300, -math.MaxFloat32},
	}
	for _, tc := range tests {
		if got := tc.typ.Convert(tc.in); got != tc.want {
			t.Errorf("%v.Convert(%v) = %v, want %v", tc.typ, tc.in, got, tc.want)
		}
	}
}

func TestBufferFillAndSet(t *testing.T) {
	for _, typ := range []Type{Uint8, Uint16, Float32} {
		t.Run(typ.String(), func(t *testing.T) {
			b := NewBuffer(typ, 4)
			b.Fill(typ.Max())
			for i := 0; i < b.Len(); i++ {
				if b.At(i) != typ.Max() {
					t.Fatalf("At(%d) = %v after Fill, want %v", i, b.At(i), typ.Max())
				}
			}
			b.Set(2, 42.75)
			want := 42.0
			if typ.IsFloat() {
				want = 42.75
			}
			if got := b.At(2); got != want {
				t.Errorf("At(2) = %v, want %v", got, want)
			}
		})
	}
}

func TestAppendLE(t *testing.T) {
	b := NewBuffer(Uint16, 1)
	b.Set(0, 0x1234)
	got := b.AppendLE(nil, 0)
	if len(got) != 2 || got[0] != 0x34 || got[1] != 0x12 {
		t.Errorf("AppendLE = % x, want 34 12", got)
	}
	f := NewBuffer(Float32, 1)
	f.Set(0, 1)
	if got := f.AppendLE(nil, 0); len(got) != 4 || got[3] != 0x3f || got[2] != 0x80 {
		t.Errorf("AppendLE(float32 1) = % x", got)
	}
	if Uint16.Size() != 2 || Float32.Size() != 4 || Uint8.Size() != 1 {
		t.Error("unexpected Size")
	}
}

func TestTypeAppendLE(t *testing.T) {
	if got := Uint8.AppendLE(nil, 300); len(got) != 1 || got[0] != 0xff {
		t.Errorf("Uint8.AppendLE(300) = % x, want ff", got)
	}
	if got := Uint16.AppendLE([]byte{9}, 258.9); len(got) != 3 || got[1] != 0x02 || got[2] != 0x01 {
		t.Errorf("Uint16.AppendLE(258.9) = % x, want 09 02 01", got)
	}
}
