// Package pipeline implements Generator: the top-level orchestrator
// wiring layerplan, contour, polygon, mesh, scaling, label, raster,
// export, and archive into the Plan -> Extract -> Process -> Mesh ->
// Scale -> Export pipeline (spec.md §3 data flow), generalized from
// the teacher's Generator.Generate (internal/pipeline), which wired
// datasource/renderer/watercolor/composite into a single tile-build
// step the same way.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/freetype"

	"github.com/mhacking/topogen/internal/archive"
	"github.com/mhacking/topogen/internal/config"
	"github.com/mhacking/topogen/internal/contour"
	"github.com/mhacking/topogen/internal/diagnostics"
	"github.com/mhacking/topogen/internal/errs"
	"github.com/mhacking/topogen/internal/export"
	"github.com/mhacking/topogen/internal/geomtypes"
	"github.com/mhacking/topogen/internal/grid"
	"github.com/mhacking/topogen/internal/label"
	"github.com/mhacking/topogen/internal/layerplan"
	"github.com/mhacking/topogen/internal/mesh"
	"github.com/mhacking/topogen/internal/polygon"
	"github.com/mhacking/topogen/internal/raster"
	"github.com/mhacking/topogen/internal/scaling"
	"github.com/mhacking/topogen/internal/worker"
)

// Generator wires the full pipeline into one orchestrated run.
type Generator struct {
	logger *slog.Logger
}

// NewGenerator constructs a Generator. A nil logger falls back to
// slog.Default().
func NewGenerator(logger *slog.Logger) *Generator {
	return &Generator{logger: logger}
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}

// Result is the outcome of one Generate call.
type Result struct {
	Summary export.Summary
	Tracker *diagnostics.Tracker
}

// Generate runs Plan -> Extract -> Process -> Mesh -> Scale -> Export
// over the given elevation grid per cfg, returning an export Summary
// and the diagnostic tracker recording per-stage timing and every
// output file attempted.
func (g *Generator) Generate(ctx context.Context, grd *grid.Grid, cfg config.Config) (Result, error) {
	cfg = cfg.WithDefaults()
	track := diagnostics.New()

	if err := cfg.Validate(); err != nil {
		return Result{Tracker: track}, fmt.Errorf("%w: %v", errs.ErrConfiguration, err)
	}
	if err := grd.RepairNoData(); err != nil {
		return Result{Tracker: track}, err
	}

	track.StartStage("plan")
	minElev, maxElev, err := grd.MinMax()
	if err != nil {
		track.CompleteStage("plan", false, err.Error())
		return Result{Tracker: track}, err
	}
	levels, err := layerplan.Plan{
		MinElev: float64(minElev), MaxElev: float64(maxElev),
		NumLayers: cfg.NumLayers, IntervalM: cfg.IntervalM,
		Strategy: cfg.LayerStrategy, ExplicitLevels: cfg.ExplicitLevels,
		MinElevationFilter: cfg.MinElevationFilter, MaxElevationFilter: cfg.MaxElevationFilter,
		ElevationThreshold: cfg.ElevationThreshold, FixedElevation: cfg.FixedElevation,
	}.Compute()
	if err != nil {
		track.CompleteStage("plan", false, err.Error())
		return Result{Tracker: track}, err
	}
	track.CompleteStage("plan", true, "")
	g.log().Info("planned layers", "count", len(levels))

	track.StartStage("extract")
	levelValues := make([]float64, len(levels))
	for i, lv := range levels {
		levelValues[i] = lv.Elevation
	}
	extracted, err := contour.Extract(grd, levelValues, contour.Options{OuterBoundariesOnly: cfg.OuterBoundariesOnly})
	if err != nil {
		track.CompleteStage("extract", false, err.Error())
		return Result{Tracker: track}, err
	}
	track.CompleteStage("extract", true, "")

	track.StartStage("process")
	processed, err := g.processLayers(ctx, extracted, cfg)
	if err != nil {
		track.CompleteStage("process", false, err.Error())
		return Result{Tracker: track}, err
	}
	track.CompleteStage("process", true, "")

	geoBounds := gridBounds(grd)

	var perLayerMeshes []geomtypes.Mesh
	var stackedMesh geomtypes.Mesh
	if needsMesh3D(cfg.Formats) {
		track.StartStage("mesh")
		perLayerMeshes, stackedMesh, err = g.buildMeshes(grd, processed, cfg)
		if err != nil {
			track.CompleteStage("mesh", false, err.Error())
			return Result{Tracker: track}, err
		}
		track.CompleteStage("mesh", true, "")
	}

	track.StartStage("scale")
	factor, explanation, err := scaling.Compute(scaling.Input{
		WidthM: geoBounds.Width(), DepthM: geoBounds.Height(),
		MinElevM: float64(minElev), MaxElevM: float64(maxElev),
		NumLayers: len(processed),
	}, cfg.ScalingParams)
	if err != nil {
		track.CompleteStage("scale", false, err.Error())
		return Result{Tracker: track}, err
	}
	track.CompleteStage("scale", true, "")
	track.Log(diagnostics.Info, "scale", explanation)
	g.log().Info("scale computed", "factor_xy", factor.X, "factor_z", factor.Z, "explanation", explanation)

	if cfg.ArchivePath != "" {
		if err := g.writeArchive(processed, geoBounds, cfg, float64(minElev), float64(maxElev)); err != nil {
			track.Log(diagnostics.Warn, "archive", err.Error())
		}
	}

	track.StartStage("export")
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		track.CompleteStage("export", false, err.Error())
		return Result{Tracker: track}, fmt.Errorf("pipeline: create output dir: %w", err)
	}

	layerViews := g.buildLayerViews(processed, geoBounds, cfg, factor)
	opts := g.exportOptions(cfg, factor, float64(minElev), float64(maxElev))

	dispatcher := export.New(opts, export.GeoContext{
		Bounds:       geoBounds,
		CenterLatDeg: geoBounds.Center().Y,
		GeoTransform: grd.Transform,
	}, track)

	summary := dispatcher.Dispatch(cfg.Formats, layerViews, stackedMesh, perLayerMeshes)
	track.CompleteStage("export", summary.Success, "")

	return Result{Summary: summary, Tracker: track}, nil
}

func needsMesh3D(formats []string) bool {
	for _, f := range formats {
		if f == "stl" || f == "obj" || f == "ply" {
			return true
		}
	}
	return false
}

// processLayers runs PolygonProcessor across every extracted layer in
// parallel via worker.Pool (spec §5: per-polygon operations are pure
// and parallelizable across layers), then applies the cross-layer
// nesting-lip inset before returning results in elevation order.
func (g *Generator) processLayers(ctx context.Context, extracted []contour.Layer, cfg config.Config) ([]contour.Layer, error) {
	progress := worker.NewProgress(len(extracted), cfg.ShowProgress)
	pool := worker.New(worker.Config{Workers: cfg.Workers, OnProgress: progress.Callback()})

	tasks := make([]worker.Task, len(extracted))
	for i, layer := range extracted {
		layer := layer
		tasks[i] = worker.Task{
			LevelIndex: layer.LevelIndex,
			Run: func(ctx context.Context) (any, error) {
				return processOneLayer(layer, cfg)
			},
		}
	}

	results := pool.Run(ctx, tasks)
	progress.Done()
	if cfg.ShowProgress {
		g.log().Info(progress.Summary())
	}
	byIndex := make(map[int]contour.Layer, len(results))
	for _, r := range results {
		if r.Err != nil {
			return nil, fmt.Errorf("process layer %d: %w", r.LevelIndex, r.Err)
		}
		byIndex[r.LevelIndex] = r.Value.(contour.Layer)
	}

	out := make([]contour.Layer, 0, len(extracted))
	for _, layer := range extracted {
		out = append(out, byIndex[layer.LevelIndex])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Elevation < out[j].Elevation })

	if cfg.NestingLipM > 0 {
		polysByLayer := make([][]geomtypes.Polygon, len(out))
		for i, l := range out {
			polysByLayer[i] = l.Polygons
		}
		adjusted, err := polygon.NestingLip(polysByLayer, cfg.NestingLipM)
		if err != nil {
			return nil, err
		}
		for i := range out {
			out[i].Polygons = adjusted[i]
		}
	}

	return out, nil
}

func processOneLayer(layer contour.Layer, cfg config.Config) (contour.Layer, error) {
	opts := polygon.Options{
		SimplifyToleranceM: cfg.SimplifyToleranceM,
		RemoveHoles:        cfg.RemoveHoles,
		DedupeEpsilonM:     cfg.DedupeEpsilonM,
		InsetM:             cfg.InsetM,
	}
	out := layer
	out.Polygons = make([]geomtypes.Polygon, 0, len(layer.Polygons))
	for _, p := range layer.Polygons {
		processedPoly, err := polygon.Process(p, opts)
		if err != nil {
			continue // dropped per spec's per-polygon recovery; errs.ErrInconsistentGeometry below if all drop
		}
		if !processedPoly.Valid() {
			continue
		}
		out.Polygons = append(out.Polygons, processedPoly)
	}
	if len(out.Polygons) == 0 && len(layer.Polygons) > 0 {
		return contour.Layer{}, errs.ErrInconsistentGeometry
	}
	return out, nil
}

// buildMeshes constructs one mesh per layer (prismatic extrusion or
// terrain-following drape) and their union as the stacked mesh.
func (g *Generator) buildMeshes(grd *grid.Grid, layers []contour.Layer, cfg config.Config) ([]geomtypes.Mesh, geomtypes.Mesh, error) {
	minElev, maxElev, err := grd.MinMax()
	if err != nil {
		return nil, geomtypes.Mesh{}, err
	}
	span := float64(maxElev - minElev)
	if span <= 0 {
		span = 1
	}

	out := make([]geomtypes.Mesh, len(layers))
	var stacked geomtypes.Mesh

	for i, layer := range layers {
		baseZ := 0.0
		if i > 0 {
			baseZ = layers[i-1].Elevation - float64(minElev)
		}
		topZ := layer.Elevation - float64(minElev)
		if topZ <= baseZ {
			topZ = baseZ + span/float64(len(layers)+1)
		}

		var m geomtypes.Mesh
		var err error
		if cfg.TerrainFollowing {
			m, err = mesh.DrapeTerrain(grd, layer.Polygons, baseZ, cfg.MeshQuality)
		} else {
			m, err = mesh.ExtrudePrism(layer.Polygons, baseZ, topZ)
		}
		if err != nil {
			return nil, geomtypes.Mesh{}, fmt.Errorf("mesh layer %d: %w", layer.LevelIndex, err)
		}
		if err := mesh.Validate(m); err != nil {
			g.log().Warn("mesh failed manifold validation", "layer", layer.LevelIndex, "error", err)
		}
		out[i] = m
		stacked.Merge(m)
	}

	return out, stacked, nil
}

func (g *Generator) writeArchive(layers []contour.Layer, bounds geomtypes.BoundingBox, cfg config.Config, minElevM, maxElevM float64) error {
	w, err := archive.New(cfg.ArchivePath, archive.Metadata{
		Name:       baseNameOf(cfg),
		SourcePath: cfg.InputPath,
		Bounds:     [4]float64{bounds.MinX, bounds.MinY, bounds.MaxX, bounds.MaxY},
		LayerCount: len(layers),
	})
	if err != nil {
		return fmt.Errorf("pipeline: open archive: %w", err)
	}
	defer w.Close()

	rOpts := raster.Options{
		WidthPx: 512, HeightPx: 512,
		CenterLatDeg: bounds.Center().Y,
		Scheme:       cfg.ColorScheme,
		GlobalMinM:   minElevM, GlobalMaxM: maxElevM,
	}
	builder := raster.NewBuilder(bounds, rOpts)

	for _, l := range layers {
		img := builder.RasterizeLayers([]raster.LayerInput{{ElevationM: l.Elevation, Polygons: l.Polygons}})
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("archive: encode thumbnail for layer %d: %w", l.LevelIndex, err)
		}
		if err := w.WriteLayer(archive.LayerEntry{
			LayerIndex:   l.LevelIndex,
			ElevationM:   l.Elevation,
			AreaM2:       l.Area,
			PolygonCount: len(l.Polygons),
			PNGData:      buf.Bytes(),
		}); err != nil {
			return err
		}
	}
	return nil
}

// buildLayerViews attaches generated labels to each processed layer,
// producing the canonical input every 2D emitter shares.
func (g *Generator) buildLayerViews(layers []contour.Layer, bounds geomtypes.BoundingBox, cfg config.Config, factor scaling.Factor) []export.LayerView {
	renderer := label.New(cfg.Labels)
	views := make([]export.LayerView, len(layers))

	for i, l := range layers {
		contentBBox := bounds
		if len(l.Polygons) > 0 {
			contentBBox = l.Polygons[0].Bounds()
			for _, p := range l.Polygons[1:] {
				contentBBox = contentBBox.Union(p.Bounds())
			}
		}

		labelCtx := label.Context{
			LayerNumber:      l.LevelIndex + 1,
			ElevationM:       l.Elevation,
			ScaleRatio:       factor.X,
			ContourHeightM:   l.Elevation,
			GeographicBounds: bounds,
			SubstrateSizeMM:  cfg.ScalingParams.BedWidthMM,
			ContentBBox:      contentBBox,
			HiddenBBox:       contentBBox,
		}
		if i+1 < len(layers) {
			labelCtx.NextLayerPolygons = layers[i+1].Polygons
		}

		var labels []label.Placed
		isBase := i == 0
		var visible, hidden label.Placed
		var okV, okH bool
		if isBase {
			visible, okV = renderer.GenerateBaseVisibleLabel(labelCtx)
			hidden, okH = renderer.GenerateBaseHiddenLabel(labelCtx)
		} else {
			visible, okV = renderer.GenerateLayerVisibleLabel(labelCtx)
			hidden, okH = renderer.GenerateLayerHiddenLabel(labelCtx)
		}
		if okV {
			labels = append(labels, visible)
		}
		if okH {
			labels = append(labels, hidden)
		}

		views[i] = export.LayerView{LevelIndex: l.LevelIndex, Elevation: l.Elevation, Polygons: l.Polygons, Labels: labels}
	}
	return views
}

func (g *Generator) exportOptions(cfg config.Config, factor scaling.Factor, minElevM, maxElevM float64) export.Options {
	annOpts := raster.AnnotatorOptions{
		MarginPx: 20,
		DPI:      cfg.PrintResolutionDPI,
	}
	if cfg.FontPath != "" {
		if data, err := os.ReadFile(cfg.FontPath); err == nil {
			if f, err := freetype.ParseFont(data); err == nil {
				annOpts.Font = f
			} else {
				g.log().Warn("could not parse font, labels will be skipped", "path", cfg.FontPath, "error", err)
			}
		} else {
			g.log().Warn("could not read font file, labels will be skipped", "path", cfg.FontPath, "error", err)
		}
	}

	return export.Options{
		OutputDir:            cfg.OutputDir,
		BaseName:             baseNameOf(cfg),
		FilenamePattern:      cfg.FilenamePattern,
		OutputLayers:         cfg.OutputLayers,
		OutputStacked:        cfg.OutputStacked,
		ScaleFactorXY:        factor.X,
		SubstrateSizeMM:      cfg.ScalingParams.BedWidthMM,
		MarginMM:             cfg.MarginMM,
		WidthPx:              cfg.RasterWidthPx,
		HeightPx:             cfg.RasterHeightPx,
		PrintResolutionDPI:   cfg.PrintResolutionDPI,
		AddRegistrationMarks: cfg.AddRegistrationMarks,
		RasterOptions:        raster.Options{Scheme: cfg.ColorScheme, Mode: cfg.RenderMode, MarginPx: 20},
		AnnotatorOptions:     annOpts,
		GlobalMinElevM:       minElevM,
		GlobalMaxElevM:       maxElevM,
	}
}

func baseNameOf(cfg config.Config) string {
	base := filepath.Base(cfg.InputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "topogen"
	}
	return base
}

func gridBounds(g *grid.Grid) geomtypes.BoundingBox {
	x0, y0 := g.Transform.ToGeo(0, 0)
	x1, y1 := g.Transform.ToGeo(float64(g.Width), float64(g.Height))
	return geomtypes.NewBoundingBox(geomtypes.Point{X: x0, Y: y0}, geomtypes.Point{X: x1, Y: y1})
}
