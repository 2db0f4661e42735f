// Package session owns the label field of the photograph being measured.
//
// A Session holds one open photograph with its grayscale raster, optional
// crop region, scale factor and current label field. Every operation runs
// under the session mutex and computes a complete replacement field before
// committing it, so a failed call leaves the field exactly as it was.
package session

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"

	"github.com/ironsheep/shear-failure-mcp/internal/geometry"
	"github.com/ironsheep/shear-failure-mcp/internal/imaging"
	"github.com/ironsheep/shear-failure-mcp/internal/labelmap"
	"github.com/ironsheep/shear-failure-mcp/internal/logger"
	"github.com/ironsheep/shear-failure-mcp/internal/measure"
	"github.com/ironsheep/shear-failure-mcp/internal/raster"
)

const component = "session"

// ErrNoImage is returned by operations that need an open photograph.
var ErrNoImage = errors.New("no image open")

// Status summarises the session state.
type Status struct {
	ID        string  `json:"session_id"`
	Path      string  `json:"path"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Format    string  `json:"format"`
	Scale     float64 `json:"scale"`
	HasCrop   bool    `json:"has_crop"`
	CropArea  int     `json:"crop_area_px,omitempty"`
	Labels    int     `json:"labels"`
	MaxLabel  int     `json:"max_label"`
	Labeled   int     `json:"labeled_px"`
	ColorBits string  `json:"color_depth,omitempty"`
}

// Session is the single owner of a label field.
type Session struct {
	cache *imaging.ImageCache
	log   logger.Logger
	opts  Options

	mu     sync.Mutex
	id     string
	path   string
	info   *imaging.ImageInfo
	img    image.Image
	gray   *raster.Gray
	crop   *raster.Mask
	scale  float64
	labels *raster.LabelField
}

// New creates a session without an open photograph.
func New(cache *imaging.ImageCache, log logger.Logger, opts Options) *Session {
	if cache == nil {
		cache = imaging.NewImageCache()
	}
	if log == nil {
		log = logger.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Session{cache: cache, log: log, opts: opts}
}

// Open loads a photograph and starts a fresh label field for it. Any
// previously open photograph is closed first.
func (s *Session) Open(path string) (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := imaging.LoadImageInfo(s.cache, path)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}

	if s.path != "" && s.path != path {
		s.cache.Evict(s.path)
	}

	s.id = uuid.NewString()
	s.path = path
	s.info = info
	s.img = img
	s.gray = raster.GrayFromImage(img)
	s.crop = nil
	s.scale = 0
	s.labels = raster.NewLabelField(s.gray.Width, s.gray.Height)

	s.log.Info(component, "image opened", map[string]interface{}{
		"session_id": s.id,
		"path":       path,
		"width":      info.Width,
		"height":     info.Height,
		"format":     info.Format,
	})
	return s.statusLocked(), nil
}

// Close releases the photograph and its label field.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return ErrNoImage
	}
	s.cache.Evict(s.path)
	s.log.Info(component, "image closed", map[string]interface{}{"session_id": s.id})

	s.id, s.path = "", ""
	s.info, s.img, s.gray, s.crop, s.labels = nil, nil, nil, nil, nil
	s.scale = 0
	return nil
}

// Status reports the current state.
func (s *Session) Status() (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gray == nil {
		return nil, ErrNoImage
	}
	return s.statusLocked(), nil
}

func (s *Session) statusLocked() *Status {
	st := &Status{
		ID:        s.id,
		Path:      s.path,
		Width:     s.gray.Width,
		Height:    s.gray.Height,
		Format:    s.info.Format,
		ColorBits: s.info.ColorDepth,
		Scale:     s.scale,
		HasCrop:   s.crop != nil,
		Labels:    labelmap.Count(s.labels),
		MaxLabel:  s.labels.Max(),
		Labeled:   s.labels.Foreground().Count(),
	}
	if s.crop != nil {
		st.CropArea = s.crop.Count()
	}
	return st
}

// SetCrop restricts later analysis to poly. A nil or empty polygon removes
// the crop region.
func (s *Session) SetCrop(poly geometry.Polygon) (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gray == nil {
		return nil, ErrNoImage
	}

	if len(poly) == 0 {
		s.crop = nil
		return s.statusLocked(), nil
	}
	m, err := geometry.Rasterize(poly, s.gray.Width, s.gray.Height)
	if err != nil {
		return nil, err
	}
	if !m.Any() {
		return nil, fmt.Errorf("crop polygon lies outside the image: %w", geometry.ErrInvalidGeometry)
	}
	s.crop = m
	s.log.Debug(component, "crop set", map[string]interface{}{"pixels": m.Count()})
	return s.statusLocked(), nil
}

// SetScale calibrates the physical length per pixel from a reference line.
func (s *Session) SetScale(line geometry.Line, physicalLength float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gray == nil {
		return 0, ErrNoImage
	}

	scale, err := measure.ScaleFromLine(line, physicalLength)
	if err != nil {
		return 0, err
	}
	s.scale = scale
	s.log.Info(component, "scale set", map[string]interface{}{"scale": scale})
	return scale, nil
}

// Labels returns a copy of the current label field.
func (s *Session) Labels() (*raster.LabelField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.labels == nil {
		return nil, ErrNoImage
	}
	return s.labels.Clone(), nil
}

// commit replaces the label field. Callers hold s.mu.
func (s *Session) commit(f *raster.LabelField, op string) {
	s.labels = f
	s.log.Debug(component, "labels updated", map[string]interface{}{
		"op":     op,
		"labels": labelmap.Count(f),
	})
}
