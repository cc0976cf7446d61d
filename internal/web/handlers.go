package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/volprofile/internal/domain"
	"github.com/vadiminshakov/volprofile/internal/services/market/analysis"
	"github.com/vadiminshakov/volprofile/internal/services/market/indicators"
	"github.com/vadiminshakov/volprofile/internal/session"
	"github.com/vadiminshakov/volprofile/internal/storage/annotations"
	"go.uber.org/zap"
)

const maxUploadSize = 1 << 20

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

type candleResponse struct {
	Time   int64   `json:"t"`
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

type overlayResponse struct {
	indicators.MovingAverage
	// nil where the average is undefined
	Values []*float64 `json:"values"`
}

type profileResponse struct {
	Symbol         string           `json:"symbol"`
	Interval       string           `json:"interval"`
	Source         string           `json:"source"`
	Start          time.Time        `json:"start"`
	End            time.Time        `json:"end"`
	Edges          []float64        `json:"edges"`
	Volumes        []float64        `json:"volumes"`
	Midpoints      []float64        `json:"midpoints"`
	InValueArea    []bool           `json:"in_value_area"`
	DroppedCandles int              `json:"dropped_candles"`
	DroppedVolume  float64          `json:"dropped_volume"`
	Landmarks      domain.Landmarks `json:"landmarks"`
	Candles        []candleResponse `json:"candles,omitempty"`
	MovingAverage  *overlayResponse `json:"moving_average,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadSize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed login request")
		return
	}

	sess, err := s.Sessions.Login(req.Username, req.Password)
	if err != nil {
		s.logger.Warn("login failed", zap.String("username", req.Username))
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Info("user logged in", zap.String("username", sess.Username))
	writeJSON(w, http.StatusOK, loginResponse{Username: sess.Username, ExpiresAt: sess.ExpiresAt})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, sess session.Session) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.Sessions.Logout(sess.ID)
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, _ session.Session) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q, err := s.parseQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.Analyzer.Analyze(r.Context(), q)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newProfileResponse(report, true))
}

func (s *Server) handleTimeframes(w http.ResponseWriter, r *http.Request, _ session.Session) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	values := r.URL.Query()
	q, err := s.parseQuery(values)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	intervals, err := parseIntervals(values.Get("timeframes"), s.Defaults.Timeframes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reports, err := s.Analyzer.AnalyzeTimeframes(r.Context(), q, intervals)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	out := make([]profileResponse, 0, len(reports))
	for _, report := range reports {
		out = append(out, newProfileResponse(report, false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAnnotations(w http.ResponseWriter, r *http.Request, sess session.Session) {
	switch r.Method {
	case http.MethodGet:
		records, err := s.Annotations.ListAfter(sess.Username, 0)
		if err != nil {
			s.logger.Error("list annotations", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load annotations")
			return
		}
		out := make([]domain.Annotation, 0, len(records))
		for _, rec := range records {
			out = append(out, rec.Annotation)
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadSize))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read body")
			return
		}
		body = bytes.TrimSpace(body)

		var saved []domain.Annotation
		if bytes.HasPrefix(body, []byte("[")) {
			batch, err := annotations.DecodeJSON(bytes.NewReader(body))
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			saved, err = s.Annotations.Import(sess.Username, batch)
			if err != nil {
				s.writeAnnotationError(w, err)
				return
			}
		} else {
			var a domain.Annotation
			if err := json.Unmarshal(body, &a); err != nil {
				writeError(w, http.StatusBadRequest, "malformed annotation")
				return
			}
			one, err := s.Annotations.Save(sess.Username, a)
			if err != nil {
				s.writeAnnotationError(w, err)
				return
			}
			saved = []domain.Annotation{one}
		}
		writeJSON(w, http.StatusCreated, saved)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleAnnotationExport(w http.ResponseWriter, r *http.Request, sess session.Session) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var buf bytes.Buffer
	var contentType, filename string
	var err error

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		contentType, filename = "application/json", "annotations.json"
		err = s.Annotations.ExportJSON(sess.Username, &buf)
	case "csv":
		contentType, filename = "text/csv", "annotations.csv"
		err = s.Annotations.ExportCSV(sess.Username, &buf)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported export format %q", format))
		return
	}
	if err != nil {
		s.logger.Error("export annotations", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to export annotations")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleAnnotationStream(w http.ResponseWriter, r *http.Request, sess session.Session) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// send a comment heartbeat every 30s so proxies keep connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(annotationPollTick)
	defer pollTicker.Stop()

	lastIndex := parseLastEventID(r.Header.Get("Last-Event-ID"), r.URL.Query().Get("last_id"))
	sendAnnotations := func() error {
		records, err := s.Annotations.ListAfter(sess.Username, lastIndex)
		if err != nil {
			return err
		}
		for _, record := range records {
			payload, err := json.Marshal(record.Annotation)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "id: %d\n", record.Index)
			fmt.Fprintf(w, "event: annotation\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			lastIndex = record.Index
		}
		flusher.Flush()
		return nil
	}

	if err := sendAnnotations(); err != nil {
		http.Error(w, "failed to load annotations", http.StatusInternalServerError)
		s.logger.Error("annotation stream initial load", zap.Error(err))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendAnnotations(); err != nil {
				s.logger.Warn("annotation stream poll", zap.Error(err))
			}
		}
	}
}

func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNoData(err):
		writeError(w, http.StatusNotFound, "no data: "+err.Error())
	case errors.Is(err, domain.ErrInvalidScheme),
		errors.Is(err, domain.ErrInvalidTarget),
		errors.Is(err, indicators.ErrInvalidMovingAverage):
		writeError(w, http.StatusBadRequest, "invalid parameter: "+err.Error())
	case errors.Is(err, context.Canceled):
		// client went away, nothing to write
	default:
		s.logger.Error("profile analysis failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "market data request failed")
	}
}

func (s *Server) writeAnnotationError(w http.ResponseWriter, err error) {
	if errors.Is(err, annotations.ErrInvalidAnnotation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error("save annotations", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "failed to save annotations")
}

func newProfileResponse(report *analysis.Report, withCandles bool) profileResponse {
	prof := report.Profile
	resp := profileResponse{
		Symbol:         report.Symbol.String(),
		Interval:       report.Interval.String(),
		Source:         report.Source,
		Start:          report.Start,
		End:            report.End,
		Edges:          prof.Edges,
		Volumes:        prof.Volumes,
		Midpoints:      make([]float64, prof.Len()),
		InValueArea:    make([]bool, prof.Len()),
		DroppedCandles: prof.DroppedCandles,
		DroppedVolume:  prof.DroppedVolume,
		Landmarks:      report.Landmarks,
	}
	for i := 0; i < prof.Len(); i++ {
		resp.Midpoints[i] = prof.Midpoint(i)
		resp.InValueArea[i] = report.Landmarks.InValueArea(i)
	}

	if withCandles {
		resp.Candles = make([]candleResponse, len(report.Candles))
		for i, c := range report.Candles {
			resp.Candles[i] = candleResponse{
				Time:   c.OpenTime.UnixMilli(),
				Open:   c.Open,
				High:   c.High,
				Low:    c.Low,
				Close:  c.Close,
				Volume: c.Volume,
			}
		}
	}

	if report.Overlay != nil {
		values := make([]*float64, len(report.Overlay.Values))
		for i, v := range report.Overlay.Values {
			if math.IsNaN(v) {
				continue
			}
			values[i] = &report.Overlay.Values[i]
		}
		resp.MovingAverage = &overlayResponse{MovingAverage: report.Overlay.MovingAverage, Values: values}
	}

	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
