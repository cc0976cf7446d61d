// Package annotations persists chart line annotations in a write-ahead log.
package annotations

import (
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/volprofile/internal/domain"
)

const (
	defaultAnnotationDir   = "./wal/annotations"
	annotationSegmentLimit = 1000
	annotationMaxSegments  = 1000
	annotationKeyPrefix    = "annotation_"

	DefaultColor = "#0000FF"
	DefaultWidth = 3
)

// ErrInvalidAnnotation is returned for annotations with non-finite coordinates or a bad width.
var ErrInvalidAnnotation = errors.New("invalid annotation")

// WALStore persists annotations per owner. Records are append-only.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
	now func() time.Time
}

// NewWALStore initializes a WAL-backed annotation store under the provided directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultAnnotationDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "annotation_",
		SegmentThreshold: annotationSegmentLimit,
		MaxSegments:      annotationMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init annotation WAL")
	}

	return &WALStore{wal: wal, now: time.Now}, nil
}

// Save stores a single annotation for owner and returns it with ID and timestamps filled in.
func (s *WALStore) Save(owner string, a domain.Annotation) (domain.Annotation, error) {
	saved, err := s.Import(owner, []domain.Annotation{a})
	if err != nil {
		return domain.Annotation{}, err
	}
	return saved[0], nil
}

// Import stores a batch of annotations for owner, e.g. from an uploaded JSON file.
// The batch is validated as a whole before anything is written.
func (s *WALStore) Import(owner string, batch []domain.Annotation) ([]domain.Annotation, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("annotation store is not initialized")
	}
	if owner == "" {
		return nil, errors.New("annotation owner is required")
	}

	now := s.now().UTC()
	prepared := make([]domain.Annotation, 0, len(batch))
	payloads := make([][]byte, 0, len(batch))
	for i, a := range batch {
		a, err := normalize(owner, a, now)
		if err != nil {
			return nil, errors.Wrapf(err, "annotation %d", i)
		}
		payload, err := json.Marshal(a)
		if err != nil {
			return nil, errors.Wrap(err, "marshal annotation")
		}
		prepared = append(prepared, a)
		payloads = append(payloads, payload)
	}

	key := annotationKeyPrefix + owner

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, payload := range payloads {
		nextIndex := s.wal.CurrentIndex() + 1
		if err := s.wal.Write(nextIndex, key, payload); err != nil {
			return nil, errors.Wrap(err, "write annotation")
		}
	}

	return prepared, nil
}

// List returns the owner's annotations in write order.
func (s *WALStore) List(owner string) ([]domain.AnnotationRecord, error) {
	return s.ListAfter(owner, 0)
}

// ListAfter returns the owner's annotations written after the provided WAL index.
func (s *WALStore) ListAfter(owner string, index uint64) ([]domain.AnnotationRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("annotation store is not initialized")
	}

	key := annotationKeyPrefix + owner

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	var records []domain.AnnotationRecord
	for idx := index + 1; idx <= current; idx++ {
		k, payload, err := s.wal.Get(idx)
		if err != nil || k != key {
			continue
		}
		var a domain.Annotation
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, errors.Wrap(err, "decode annotation")
		}
		records = append(records, domain.AnnotationRecord{
			Index:      idx,
			Annotation: a,
		})
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("annotation store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}

func normalize(owner string, a domain.Annotation, now time.Time) (domain.Annotation, error) {
	for _, v := range []float64{a.X1, a.Y1, a.X2, a.Y2, a.Width} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return a, errors.Wrap(ErrInvalidAnnotation, "coordinates must be finite")
		}
	}
	if a.Width < 0 {
		return a, errors.Wrapf(ErrInvalidAnnotation, "negative width %v", a.Width)
	}
	if a.Width == 0 {
		a.Width = DefaultWidth
	}
	if a.Color == "" {
		a.Color = DefaultColor
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.Owner = owner
	return a, nil
}
