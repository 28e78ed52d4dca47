package export

import (
	"fmt"
	"image/color"
	"os"
	"strings"

	"github.com/mhacking/topogen/internal/geomtypes"
	"github.com/mhacking/topogen/internal/raster"
)

// writeSVG renders layers as an SVG document: y flipped, scaled by
// ScaleFactorXY (mm per meter), with content centered on the page.
// Per spec.md §4.9 this is the one vector format expressed in the
// substrate's print units rather than passed through in WGS84.
func writeSVG(path string, layers []LayerView, opts Options, geo GeoContext) error {
	widthMM := geo.Bounds.Width() * opts.ScaleFactorXY
	heightMM := geo.Bounds.Height() * opts.ScaleFactorXY
	pageW := widthMM + 2*opts.MarginMM
	pageH := heightMM + 2*opts.MarginMM

	rOpts := opts.RasterOptions
	rOpts.GlobalMinM = opts.GlobalMinElevM
	rOpts.GlobalMaxM = opts.GlobalMaxElevM

	toSVG := func(p geomtypes.Point) (float64, float64) {
		x := (p.X-geo.Bounds.MinX)*opts.ScaleFactorXY + opts.MarginMM
		y := pageH - ((p.Y-geo.Bounds.MinY)*opts.ScaleFactorXY + opts.MarginMM) // flip y
		return x, y
	}

	var defs, body strings.Builder
	pathID := 0

	for _, lv := range layers {
		fill := "none"
		if c, ok := raster.FillColor(rOpts, lv.Elevation); ok {
			fill = hexColor(c)
		}

		fmt.Fprintf(&body, "  <g id=\"layer-%d\" data-elevation=\"%.2f\">\n", lv.LevelIndex, lv.Elevation)
		for _, poly := range lv.Polygons {
			fmt.Fprintf(&body, "    <path d=\"%s\" fill-rule=\"evenodd\" fill=\"%s\" stroke=\"#000000\" stroke-width=\"0.1\"/>\n",
				polygonPathD(poly, toSVG), fill)
		}
		for _, lbl := range lv.Labels {
			// Curved labels reference a <path> placed in <defs>; straight
			// labels place directly via x/y.
			if lbl.Path != nil {
				pathID++
				id := fmt.Sprintf("label-path-%d", pathID)
				fmt.Fprintf(&defs, "    <path id=\"%s\" d=\"%s\"/>\n", id, lbl.Path.SVGPathD)
				fmt.Fprintf(&body, "    <text font-size=\"%.2f\" fill=\"%s\"><textPath href=\"#%s\" startOffset=\"50%%\" text-anchor=\"middle\">%s</textPath></text>\n",
					lbl.FontSizeMM*opts.ScaleFactorXY, lbl.Color, id, escapeXML(lbl.Text))
				continue
			}
			x, y := toSVG(geomtypes.Point{X: lbl.X, Y: lbl.Y})
			fmt.Fprintf(&body, "    <text x=\"%.3f\" y=\"%.3f\" font-size=\"%.2f\" fill=\"%s\" text-anchor=\"%s\">%s</text>\n",
				x, y, lbl.FontSizeMM*opts.ScaleFactorXY, lbl.Color, lbl.Anchor, escapeXML(lbl.Text))
		}
		body.WriteString("  </g>\n")
	}

	var doc strings.Builder
	doc.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(&doc, "<svg xmlns=\"http://www.w3.org/2000/svg\" xmlns:xlink=\"http://www.w3.org/1999/xlink\" width=\"%.3fmm\" height=\"%.3fmm\" viewBox=\"0 0 %.3f %.3f\">\n",
		pageW, pageH, pageW, pageH)
	if pathID > 0 {
		doc.WriteString("  <defs>\n")
		doc.WriteString(defs.String())
		doc.WriteString("  </defs>\n")
	}
	doc.WriteString(body.String())
	doc.WriteString("</svg>\n")

	return os.WriteFile(path, []byte(doc.String()), 0o644)
}

func hexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func polygonPathD(p geomtypes.Polygon, toSVG func(geomtypes.Point) (float64, float64)) string {
	var b strings.Builder
	writeRing := func(r geomtypes.Ring) {
		for i, pt := range r {
			x, y := toSVG(pt)
			if i == 0 {
				fmt.Fprintf(&b, "M %.3f %.3f ", x, y)
			} else {
				fmt.Fprintf(&b, "L %.3f %.3f ", x, y)
			}
		}
		b.WriteString("Z ")
	}
	writeRing(p.Exterior)
	for _, h := range p.Holes {
		writeRing(h)
	}
	return strings.TrimSpace(b.String())
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;")
	return r.Replace(s)
}
