package raster

import (
	"fmt"
	"image"
	"image/draw"
)

// CompositeOver alpha-blends overlays onto base, in order, using
// Porter-Duff "over" compositing. It is used to merge the Annotator's
// transparent text/registration-mark layer onto the elevation-colored
// raster produced by Builder.RasterizeLayers, adapted from the
// teacher's internal/composite.CompositeLayersOverBase (which stacked
// watercolor-painted OSM layers the same way, minus the per-layer
// ordering concept this pipeline doesn't need).
func CompositeOver(base *image.NRGBA, overlays ...*image.NRGBA) (*image.NRGBA, error) {
	if base == nil {
		return nil, fmt.Errorf("composite: base image is nil")
	}

	dst := image.NewNRGBA(base.Bounds())
	draw.Draw(dst, dst.Bounds(), base, image.Point{}, draw.Src)

	for i, o := range overlays {
		if o == nil {
			continue
		}
		if o.Bounds() != base.Bounds() {
			return nil, fmt.Errorf("composite: overlay %d bounds %v do not match base bounds %v", i, o.Bounds(), base.Bounds())
		}
		draw.Draw(dst, dst.Bounds(), o, image.Point{}, draw.Over)
	}

	return dst, nil
}
