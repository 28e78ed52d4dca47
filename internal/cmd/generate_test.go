package cmd

import (
	"testing"

	"github.com/mhacking/topogen/internal/layerplan"
	"github.com/mhacking/topogen/internal/mesh"
	"github.com/mhacking/topogen/internal/raster"
	"github.com/mhacking/topogen/internal/scaling"
)

func TestParseFloatList(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []float64
		wantErr bool
	}{
		{name: "empty string", input: "", want: nil},
		{name: "single value", input: "100", want: []float64{100}},
		{name: "multiple values", input: "0,100,250.5", want: []float64{0, 100, 250.5}},
		{name: "values with spaces", input: " 0 , 100 , 250.5 ", want: []float64{0, 100, 250.5}},
		{name: "negative values", input: "-10,10", want: []float64{-10, 10}},
		{name: "invalid number", input: "abc,10", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFloatList(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseFloatList(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFloatList(%q) unexpected error: %v", tt.input, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseFloatList(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("parseFloatList(%q)[%d] = %v, want %v", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseLayerStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    layerplan.Strategy
		wantErr bool
	}{
		{input: "uniform", want: layerplan.Uniform},
		{input: "", want: layerplan.Uniform},
		{input: "Interval", want: layerplan.Interval},
		{input: "explicit", want: layerplan.Explicit},
		{input: "filtered", want: layerplan.Filtered},
		{input: "bogus", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseLayerStrategy(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseLayerStrategy(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseLayerStrategy(%q) unexpected error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("parseLayerStrategy(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseMeshQuality(t *testing.T) {
	tests := []struct {
		input   string
		want    mesh.Quality
		wantErr bool
	}{
		{input: "draft", want: mesh.Draft},
		{input: "medium", want: mesh.Medium},
		{input: "", want: mesh.Medium},
		{input: "HIGH", want: mesh.High},
		{input: "ultra", want: mesh.Ultra},
		{input: "bogus", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseMeshQuality(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseMeshQuality(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseMeshQuality(%q) unexpected error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("parseMeshQuality(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseScalingStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    scaling.Strategy
		wantErr bool
	}{
		{input: "auto", want: scaling.Auto},
		{input: "bedsize", want: scaling.BedSize},
		{input: "materialthickness", want: scaling.MaterialThickness},
		{input: "layers", want: scaling.Layers},
		{input: "printheight", want: scaling.PrintHeight},
		{input: "uniformxyz", want: scaling.UniformXYZ},
		{input: "explicit", want: scaling.Explicit},
		{input: "bogus", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseScalingStrategy(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseScalingStrategy(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseScalingStrategy(%q) unexpected error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("parseScalingStrategy(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseColorScheme(t *testing.T) {
	tests := []struct {
		input   string
		want    raster.ColorScheme
		wantErr bool
	}{
		{input: "terrain", want: raster.Terrain},
		{input: "", want: raster.Terrain},
		{input: "grayscale", want: raster.Grayscale},
		{input: "rainbow", want: raster.Rainbow},
		{input: "topographic", want: raster.Topographic},
		{input: "hypsometric", want: raster.Hypsometric},
		{input: "bogus", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseColorScheme(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseColorScheme(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseColorScheme(%q) unexpected error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("parseColorScheme(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseRenderMode(t *testing.T) {
	tests := []struct {
		input   string
		want    raster.RenderMode
		wantErr bool
	}{
		{input: "full-color", want: raster.FullColor},
		{input: "", want: raster.FullColor},
		{input: "grayscale", want: raster.GrayscaleMode},
		{input: "Monochrome", want: raster.Monochrome},
		{input: "bogus", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseRenderMode(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseRenderMode(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseRenderMode(%q) unexpected error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("parseRenderMode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
