package export

import (
	"fmt"
	"path/filepath"

	"github.com/mhacking/topogen/internal/diagnostics"
	"github.com/mhacking/topogen/internal/geomtypes"
	"github.com/mhacking/topogen/internal/label"
)

// Dispatcher fans a canonical layer stack out to the requested output
// formats (spec.md §4.9). It never halts on a single emitter's
// failure: every format and every per-layer file is attempted and the
// outcome recorded in the returned Summary.
type Dispatcher struct {
	opts  Options
	geo   GeoContext
	track *diagnostics.Tracker
}

// New constructs a Dispatcher for one generation run.
func New(opts Options, geo GeoContext, track *diagnostics.Tracker) *Dispatcher {
	return &Dispatcher{opts: opts, geo: geo, track: track}
}

// Dispatch emits every format in formats across the given layers,
// also writing the prebuilt stacked mesh for 3D formats when
// OutputStacked is set.
func (d *Dispatcher) Dispatch(formats []string, layers []LayerView, stacked geomtypes.Mesh, perLayerMesh []geomtypes.Mesh) Summary {
	var sum Summary
	sum.Success = true

	for _, fname := range formats {
		f := Format(fname)
		kind, err := KindOf(f)
		if err != nil {
			sum.Files = append(sum.Files, FileResult{Format: f, LayerIndex: -1, Err: err})
			sum.Success = false
			continue
		}

		switch kind {
		case Vector2D, Raster2D:
			d.dispatch2D(f, layers, &sum)
		case Mesh3D:
			d.dispatchMesh(f, perLayerMesh, stacked, &sum)
		}
	}
	return sum
}

func (d *Dispatcher) dispatch2D(f Format, layers []LayerView, sum *Summary) {
	if d.opts.OutputLayers {
		for _, lv := range layers {
			path := d.layerPath(f, lv.LevelIndex, lv.Elevation)
			err := d.emit2D(f, path, []LayerView{lv})
			d.record(sum, path, f, lv.LevelIndex, err)
		}
	}
	// A combined file for vector/raster formats is produced whenever
	// per-layer output is off, or always for formats meant to be
	// viewed as one sheet (SVG/PNG composited stack).
	if !d.opts.OutputLayers || f == SVG || f == PNG {
		path := d.combinedPath(f)
		err := d.emit2D(f, path, layers)
		d.record(sum, path, f, -1, err)
	}
}

func (d *Dispatcher) dispatchMesh(f Format, perLayer []geomtypes.Mesh, stacked geomtypes.Mesh, sum *Summary) {
	if d.opts.OutputLayers {
		for i, m := range perLayer {
			path := d.layerPath(f, i, 0)
			err := d.emitMesh(f, path, m)
			d.record(sum, path, f, i, err)
		}
	}
	if d.opts.OutputStacked {
		path := d.combinedPath(f)
		err := d.emitMesh(f, path, stacked)
		d.record(sum, path, f, -1, err)
	}
}

func (d *Dispatcher) emit2D(f Format, path string, layers []LayerView) error {
	switch f {
	case SVG:
		return writeSVG(path, layers, d.opts, d.geo)
	case GeoJSON:
		return writeGeoJSON(path, layers, d.geo)
	case Shapefile:
		return writeShapefile(path, layers, d.geo)
	case PNG:
		return writePNG(path, layers, d.opts, d.geo)
	case GeoTIFF:
		return writeGeoTIFF(path, layers, d.opts, d.geo)
	default:
		return fmt.Errorf("export: %s is not a 2D format", f)
	}
}

func (d *Dispatcher) emitMesh(f Format, path string, m geomtypes.Mesh) error {
	switch f {
	case STL:
		return writeSTL(path, m, d.opts)
	case OBJ:
		return writeOBJ(path, m, d.opts)
	case PLY:
		return writePLY(path, m, d.opts)
	default:
		return fmt.Errorf("export: %s is not a mesh format", f)
	}
}

func (d *Dispatcher) layerPath(f Format, levelIndex int, elevation float64) string {
	name := label.SubstituteFilenamePattern(d.pattern(), d.opts.BaseName, levelIndex, elevation) + "." + ext(f)
	return filepath.Join(d.opts.OutputDir, name)
}

func (d *Dispatcher) combinedPath(f Format) string {
	name := d.opts.BaseName + "_combined." + ext(f)
	return filepath.Join(d.opts.OutputDir, name)
}

func (d *Dispatcher) pattern() string {
	if d.opts.FilenamePattern != "" {
		return d.opts.FilenamePattern
	}
	return "%{b}_%{l}"
}

func ext(f Format) string {
	if f == Shapefile {
		return "shp"
	}
	return string(f)
}

func (d *Dispatcher) record(sum *Summary, path string, f Format, layerIndex int, err error) {
	sum.Files = append(sum.Files, FileResult{Path: path, Format: f, LayerIndex: layerIndex, Err: err})
	if err != nil {
		sum.Success = false
	}
	if d.track != nil {
		d.track.TrackFile(diagnostics.FileInfo{
			Filename:    path,
			Format:      string(f),
			Kind:        kindLabel(layerIndex),
			LayerNumber: layerIndex,
			Succeeded:   err == nil,
			ErrorMessage: errString(err),
		})
	}
}

func kindLabel(layerIndex int) string {
	if layerIndex < 0 {
		return "combined"
	}
	return "layer"
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
