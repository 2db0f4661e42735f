// Package imaging loads rock-joint photographs and renders label overlays
// for export.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Label fields and masks
// passed to this package must have the photograph's dimensions.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Rendering functions are
// stateless and never modify the photograph they are given.
//
// # Overlays
//
// RenderOverlay blends one colour per label over the photograph. Colours come
// from LabelColor, which walks the HSV hue circle by the golden angle so that
// neighbouring ids get clearly different hues. A clip mask (the crop region)
// makes everything outside it transparent and can trim the output to its
// bounding box.
//
// # Previews
//
// Preview crops and scales the photograph (or a rendered overlay) and can
// draw a coordinate grid whose labels are positions in the uncropped image.
package imaging
