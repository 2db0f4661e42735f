package session

import (
	"github.com/ironsheep/shear-failure-mcp/internal/config"
	"github.com/ironsheep/shear-failure-mcp/internal/labelmap"
	"github.com/ironsheep/shear-failure-mcp/internal/measure"
	"github.com/ironsheep/shear-failure-mcp/internal/segmentation"
)

// Options collects the algorithm settings a session applies.
type Options struct {
	Segmentation     segmentation.Options
	Statistic        segmentation.StatisticOptions
	Merge            labelmap.Options
	Perimeter        measure.PerimeterMethod
	OverlayAlpha     float64
	OverlayGrayscale bool
	Workers          int
}

// DefaultOptions mirrors config.DefaultConfig.
func DefaultOptions() Options {
	o, _ := OptionsFromConfig(config.DefaultConfig())
	return o
}

// OptionsFromConfig translates a validated configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	method, err := measure.ParsePerimeterMethod(cfg.Measure.PerimeterMethod)
	if err != nil {
		return Options{}, err
	}

	seg := segmentation.DefaultOptions()
	seg.MinObjectSize = cfg.Segmentation.MinObjectSize
	seg.MinHoleSize = cfg.Segmentation.MinHoleSize
	seg.Morphology = cfg.Segmentation.Morphology
	seg.Threshold.Strict = !cfg.Segmentation.InclusiveThreshold

	workers := cfg.Server.Workers
	if workers < 1 {
		workers = 1
	}

	return Options{
		Segmentation:     seg,
		Statistic:        segmentation.StatisticOptions{Z: cfg.Riss.Z},
		Merge:            labelmap.Options{PadMismatched: cfg.Merge.PadMismatchedShapes},
		Perimeter:        method,
		OverlayAlpha:     cfg.Overlay.Alpha,
		OverlayGrayscale: cfg.Overlay.Grayscale,
		Workers:          workers,
	}, nil
}
