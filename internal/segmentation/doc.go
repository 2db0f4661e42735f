// Package segmentation turns grayscale pixels inside a region into labeled
// connected components.
//
// Two detectors are provided:
//
//   - Polygon analysis: an Otsu threshold computed only from the pixels of a
//     user polygon (masked Otsu), followed by optional removal of small
//     objects and small holes and 8-connected labeling.
//   - Statistical detection: a threshold at mean + z*sigma of the intensities
//     pooled from a set of example polygons, applied across a whole region.
//
// All operations return new rasters and never modify their inputs.
package segmentation
