package domain

import "time"

// Annotation line drawn by a user on top of the chart.
type Annotation struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	X1        float64   `json:"x1"`
	Y1        float64   `json:"y1"`
	X2        float64   `json:"x2"`
	Y2        float64   `json:"y2"`
	Color     string    `json:"color"`
	Width     float64   `json:"width"`
	CreatedAt time.Time `json:"created_at"`
}

// AnnotationRecord annotation with its WAL index.
type AnnotationRecord struct {
	Index      uint64
	Annotation Annotation
}
