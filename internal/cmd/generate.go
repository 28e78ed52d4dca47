package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mhacking/topogen/internal/config"
	"github.com/mhacking/topogen/internal/grid"
	"github.com/mhacking/topogen/internal/label"
	"github.com/mhacking/topogen/internal/layerplan"
	"github.com/mhacking/topogen/internal/mesh"
	"github.com/mhacking/topogen/internal/pipeline"
	"github.com/mhacking/topogen/internal/raster"
	"github.com/mhacking/topogen/internal/scaling"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate contour relief layers from an elevation GeoTIFF",
	Long:  `Plan elevation bands, extract contours, process and nest their polygons, mesh them, and emit vector/raster/mesh layer files.`,
	RunE:  runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("input", "i", "", "Input elevation GeoTIFF path (required)")

	generateCmd.Flags().String("layer-strategy", "uniform", "Layer banding strategy: uniform, interval, explicit, filtered")
	generateCmd.Flags().Int("num-layers", 10, "Number of equal-width layers; when > 0 it overrides --interval-m and --explicit-levels for every strategy")
	generateCmd.Flags().Float64("interval-m", 0, "Elevation interval in meters (interval/filtered strategy)")
	generateCmd.Flags().String("explicit-levels", "", "Comma-separated explicit elevations in meters (explicit strategy)")
	generateCmd.Flags().Float64("elevation-threshold", 0, "Drop levels within this many meters of the data minimum or maximum (any strategy); 0 disables")
	generateCmd.Flags().Float64("fixed-elevation", 0, "Extra elevation band always included (e.g. a water table); used only with --has-fixed-elevation")
	generateCmd.Flags().Bool("has-fixed-elevation", false, "Enable --fixed-elevation")

	generateCmd.Flags().Float64("simplify-tolerance-m", 0, "Douglas-Peucker simplification tolerance in meters")
	generateCmd.Flags().Bool("remove-holes", false, "Drop interior rings from extracted polygons")
	generateCmd.Flags().Float64("dedupe-epsilon-m", 0, "Vertex dedupe distance in meters")
	generateCmd.Flags().Float64("inset-m", 0, "Uniform polygon inset/offset in meters")
	generateCmd.Flags().Float64("nesting-lip-m", 0, "Cross-layer nesting lip width in meters")
	generateCmd.Flags().Bool("outer-boundaries-only", false, "Extract only outer contour boundaries, skip interior rings")
	generateCmd.Flags().Bool("fast-visibility", false, "Skip full nesting inset for layers wholly contained within tolerance (speed over watertightness)")

	generateCmd.Flags().Bool("terrain-following", false, "Drape each layer over the terrain instead of a flat prism")
	generateCmd.Flags().String("mesh-quality", "medium", "Terrain-following mesh lattice quality: draft, medium, high, ultra")

	generateCmd.Flags().String("scaling-strategy", "auto", "Scaling strategy: auto, bedsize, materialthickness, layers, printheight, uniformxyz, explicit")
	generateCmd.Flags().Float64("bed-width-mm", 0, "Laser/printer bed width in millimeters")
	generateCmd.Flags().Float64("bed-depth-mm", 0, "Laser/printer bed depth in millimeters")
	generateCmd.Flags().Float64("layer-height-mm", 0, "Physical material thickness per layer in millimeters")
	generateCmd.Flags().Float64("material-thickness-m", 0, "Real-world meters represented by one material thickness")
	generateCmd.Flags().Float64("target-height-mm", 0, "Target total model height in millimeters")
	generateCmd.Flags().Float64("scale-factor", 0, "Uniform mm-per-meter scale factor (uniformxyz strategy)")

	generateCmd.Flags().StringSlice("formats", []string{"svg"}, "Output formats: svg,geojson,shapefile,png,geotiff,stl,obj,ply")
	generateCmd.Flags().String("filename-pattern", "%{b}_%{l}", "Output filename pattern (tokens: %{b} basename, %{l} layer number, %{e} elevation)")
	generateCmd.Flags().Bool("output-layers", true, "Emit one file per layer")
	generateCmd.Flags().Bool("output-stacked", true, "Emit one combined/stacked file")

	generateCmd.Flags().Int("raster-width-px", 2048, "Raster output width in pixels")
	generateCmd.Flags().Int("raster-height-px", 2048, "Raster output height in pixels")
	generateCmd.Flags().Float64("print-resolution-dpi", 300, "Print resolution in DPI for raster/annotated outputs")
	generateCmd.Flags().Float64("margin-mm", 5, "Margin around content in millimeters")
	generateCmd.Flags().Bool("registration-marks", false, "Draw alignment registration marks on raster outputs")
	generateCmd.Flags().String("color-scheme", "terrain", "Raster color scheme: terrain, grayscale, rainbow, topographic, hypsometric")
	generateCmd.Flags().String("render-mode", "full-color", "Raster/SVG fill mode: full-color, grayscale, monochrome (monochrome skips fills)")
	generateCmd.Flags().String("font-path", "", "TrueType font path for layer labels (labels skipped if unset)")

	generateCmd.Flags().String("base-label-visible", "Layer %{n}", "Visible-face base-layer label pattern")
	generateCmd.Flags().String("base-label-hidden", "%{n} / %{c}", "Hidden-face base-layer label pattern")
	generateCmd.Flags().String("layer-label-visible", "%{n}", "Visible-face layer label pattern")
	generateCmd.Flags().String("layer-label-hidden", "%{n} / %{c}", "Hidden-face layer label pattern")
	generateCmd.Flags().String("label-units", "metric", "Label distance units: metric, imperial")

	generateCmd.Flags().String("archive", "", "Optional layer-pack SQLite archive output path")

	generateCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: GOMAXPROCS)")
	generateCmd.Flags().Bool("progress", true, "Show a progress bar while processing layers")

	bindFlags := []string{
		"input", "layer-strategy", "num-layers", "interval-m", "explicit-levels",
		"elevation-threshold", "fixed-elevation", "has-fixed-elevation",
		"simplify-tolerance-m", "remove-holes", "dedupe-epsilon-m", "inset-m", "nesting-lip-m",
		"outer-boundaries-only", "fast-visibility",
		"terrain-following", "mesh-quality",
		"scaling-strategy", "bed-width-mm", "bed-depth-mm", "layer-height-mm",
		"material-thickness-m", "target-height-mm", "scale-factor",
		"formats", "filename-pattern", "output-layers", "output-stacked",
		"raster-width-px", "raster-height-px", "print-resolution-dpi", "margin-mm",
		"registration-marks", "color-scheme", "render-mode", "font-path",
		"base-label-visible", "base-label-hidden", "layer-label-visible", "layer-label-hidden", "label-units",
		"archive", "workers", "progress",
	}
	for _, name := range bindFlags {
		if err := viper.BindPFlag("generate."+name, generateCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", name, err))
		}
	}
}

// generateViper reads "generate."-prefixed viper keys without repeating
// the prefix at every call site, the same dotted-key convention the
// teacher's generate command used directly.
type generateViper struct{}

func (generateViper) GetString(key string) string         { return viper.GetString("generate." + key) }
func (generateViper) GetStringSlice(key string) []string  { return viper.GetStringSlice("generate." + key) }
func (generateViper) GetInt(key string) int               { return viper.GetInt("generate." + key) }
func (generateViper) GetFloat64(key string) float64       { return viper.GetFloat64("generate." + key) }
func (generateViper) GetBool(key string) bool             { return viper.GetBool("generate." + key) }

func runGenerate(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	g, err := grid.LoadGeoTIFF(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("failed to load elevation grid: %w", err)
	}

	logger.Info("starting generation",
		"input", cfg.InputPath,
		"output_dir", cfg.OutputDir,
		"formats", cfg.Formats,
		"width", g.Width, "height", g.Height,
	)

	gen := pipeline.NewGenerator(logger)
	result, err := gen.Generate(context.Background(), g, cfg)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	logger.Info("generation complete",
		"files", len(result.Summary.Files),
		"success", result.Summary.Success,
	)
	fmt.Println(result.Tracker.TimingReport())

	if !result.Summary.Success {
		return fmt.Errorf("one or more output files failed to emit")
	}
	return nil
}

func buildConfig() (config.Config, error) {
	v := generateViper{}

	strategy, err := parseLayerStrategy(v.GetString("layer-strategy"))
	if err != nil {
		return config.Config{}, err
	}
	quality, err := parseMeshQuality(v.GetString("mesh-quality"))
	if err != nil {
		return config.Config{}, err
	}
	scalingStrategy, err := parseScalingStrategy(v.GetString("scaling-strategy"))
	if err != nil {
		return config.Config{}, err
	}
	scheme, err := parseColorScheme(v.GetString("color-scheme"))
	if err != nil {
		return config.Config{}, err
	}
	renderMode, err := parseRenderMode(v.GetString("render-mode"))
	if err != nil {
		return config.Config{}, err
	}
	units := label.Metric
	if strings.EqualFold(v.GetString("label-units"), "imperial") {
		units = label.Imperial
	}

	explicitLevels, err := parseFloatList(v.GetString("explicit-levels"))
	if err != nil {
		return config.Config{}, fmt.Errorf("invalid --explicit-levels: %w", err)
	}

	var fixedElevation *float64
	if v.GetBool("has-fixed-elevation") {
		fe := v.GetFloat64("fixed-elevation")
		fixedElevation = &fe
	}

	labelCfg := label.DefaultConfig()
	labelCfg.BaseLabelVisible = v.GetString("base-label-visible")
	labelCfg.BaseLabelHidden = v.GetString("base-label-hidden")
	labelCfg.LayerLabelVisible = v.GetString("layer-label-visible")
	labelCfg.LayerLabelHidden = v.GetString("layer-label-hidden")
	labelCfg.LabelUnits = units

	cfg := config.Config{
		InputPath: v.GetString("input"),
		OutputDir: viper.GetString("output-dir"),

		LayerStrategy:      strategy,
		NumLayers:          v.GetInt("num-layers"),
		IntervalM:          v.GetFloat64("interval-m"),
		ExplicitLevels:     explicitLevels,
		ElevationThreshold: v.GetFloat64("elevation-threshold"),
		FixedElevation:     fixedElevation,

		SimplifyToleranceM:  v.GetFloat64("simplify-tolerance-m"),
		RemoveHoles:         v.GetBool("remove-holes"),
		DedupeEpsilonM:      v.GetFloat64("dedupe-epsilon-m"),
		InsetM:              v.GetFloat64("inset-m"),
		NestingLipM:         v.GetFloat64("nesting-lip-m"),
		OuterBoundariesOnly: v.GetBool("outer-boundaries-only"),

		TerrainFollowing: v.GetBool("terrain-following"),
		MeshQuality:      quality,

		ScalingStrategy: scalingStrategy,
		ScalingParams: scaling.Params{
			Strategy:       scalingStrategy,
			BedWidthMM:     v.GetFloat64("bed-width-mm"),
			BedDepthMM:     v.GetFloat64("bed-depth-mm"),
			LayerHeightMM:  v.GetFloat64("layer-height-mm"),
			MaterialThickM: v.GetFloat64("material-thickness-m"),
			TargetHeightMM: v.GetFloat64("target-height-mm"),
			Factor:         v.GetFloat64("scale-factor"),
		},

		Labels: labelCfg,

		Formats:         v.GetStringSlice("formats"),
		FilenamePattern: v.GetString("filename-pattern"),
		OutputLayers:    v.GetBool("output-layers"),
		OutputStacked:   v.GetBool("output-stacked"),

		RasterWidthPx:        v.GetInt("raster-width-px"),
		RasterHeightPx:       v.GetInt("raster-height-px"),
		PrintResolutionDPI:   v.GetFloat64("print-resolution-dpi"),
		MarginMM:             v.GetFloat64("margin-mm"),
		AddRegistrationMarks: v.GetBool("registration-marks"),
		ColorScheme:          scheme,
		RenderMode:           renderMode,
		FontPath:             v.GetString("font-path"),

		ArchivePath: v.GetString("archive"),

		Workers:      v.GetInt("workers"),
		ShowProgress: v.GetBool("progress"),
		Verbose:      viper.GetBool("verbose"),
	}

	return cfg.WithDefaults(), nil
}

func parseLayerStrategy(s string) (layerplan.Strategy, error) {
	switch strings.ToLower(s) {
	case "uniform", "":
		return layerplan.Uniform, nil
	case "interval":
		return layerplan.Interval, nil
	case "explicit":
		return layerplan.Explicit, nil
	case "filtered":
		return layerplan.Filtered, nil
	default:
		return 0, fmt.Errorf("unknown --layer-strategy %q", s)
	}
}

func parseMeshQuality(s string) (mesh.Quality, error) {
	switch strings.ToLower(s) {
	case "draft":
		return mesh.Draft, nil
	case "medium", "":
		return mesh.Medium, nil
	case "high":
		return mesh.High, nil
	case "ultra":
		return mesh.Ultra, nil
	default:
		return 0, fmt.Errorf("unknown --mesh-quality %q", s)
	}
}

func parseScalingStrategy(s string) (scaling.Strategy, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return scaling.Auto, nil
	case "bedsize":
		return scaling.BedSize, nil
	case "materialthickness":
		return scaling.MaterialThickness, nil
	case "layers":
		return scaling.Layers, nil
	case "printheight":
		return scaling.PrintHeight, nil
	case "uniformxyz":
		return scaling.UniformXYZ, nil
	case "explicit":
		return scaling.Explicit, nil
	default:
		return 0, fmt.Errorf("unknown --scaling-strategy %q", s)
	}
}

func parseColorScheme(s string) (raster.ColorScheme, error) {
	switch strings.ToLower(s) {
	case "terrain", "":
		return raster.Terrain, nil
	case "grayscale":
		return raster.Grayscale, nil
	case "rainbow":
		return raster.Rainbow, nil
	case "topographic":
		return raster.Topographic, nil
	case "hypsometric":
		return raster.Hypsometric, nil
	default:
		return 0, fmt.Errorf("unknown --color-scheme %q", s)
	}
}

func parseRenderMode(s string) (raster.RenderMode, error) {
	switch strings.ToLower(s) {
	case "full-color", "":
		return raster.FullColor, nil
	case "grayscale":
		return raster.GrayscaleMode, nil
	case "monochrome":
		return raster.Monochrome, nil
	default:
		return 0, fmt.Errorf("unknown --render-mode %q", s)
	}
}

func parseFloatList(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		var f float64
		if _, err := fmt.Sscanf(p, "%g", &f); err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", p, err)
		}
		out = append(out, f)
	}
	return out, nil
}
