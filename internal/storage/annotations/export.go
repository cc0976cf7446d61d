package annotations

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/volprofile/internal/domain"
)

var csvHeader = []string{"x1", "y1", "x2", "y2", "color", "width"}

// ExportJSON writes the owner's annotations as an indented JSON array.
func (s *WALStore) ExportJSON(owner string, w io.Writer) error {
	records, err := s.List(owner)
	if err != nil {
		return err
	}

	out := make([]domain.Annotation, 0, len(records))
	for _, r := range records {
		out = append(out, r.Annotation)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(out), "encode annotations")
}

// ExportCSV writes the owner's annotations as CSV with a header row.
func (s *WALStore) ExportCSV(owner string, w io.Writer) error {
	records, err := s.List(owner)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, r := range records {
		a := r.Annotation
		row := []string{
			formatFloat(a.X1),
			formatFloat(a.Y1),
			formatFloat(a.X2),
			formatFloat(a.Y2),
			a.Color,
			formatFloat(a.Width),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// DecodeJSON parses an uploaded annotation file: a JSON array of annotation objects.
func DecodeJSON(r io.Reader) ([]domain.Annotation, error) {
	var batch []domain.Annotation
	if err := json.NewDecoder(r).Decode(&batch); err != nil {
		return nil, errors.Wrap(err, "decode annotations")
	}
	return batch, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
