// Package web serves the volume profile dashboard and its JSON API.
package web

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/volprofile/internal/domain"
	"github.com/vadiminshakov/volprofile/internal/services/market/analysis"
	"github.com/vadiminshakov/volprofile/internal/services/market/indicators"
	"github.com/vadiminshakov/volprofile/internal/session"
	"go.uber.org/zap"
)

const (
	sessionCookie      = "volprofile_session"
	annotationPollTick = 2 * time.Second
)

type profileAnalyzer interface {
	Analyze(ctx context.Context, q analysis.Query) (*analysis.Report, error)
	AnalyzeTimeframes(ctx context.Context, q analysis.Query, intervals []domain.Interval) ([]*analysis.Report, error)
}

type annotationStore interface {
	Save(owner string, a domain.Annotation) (domain.Annotation, error)
	Import(owner string, batch []domain.Annotation) ([]domain.Annotation, error)
	ListAfter(owner string, index uint64) ([]domain.AnnotationRecord, error)
	ExportJSON(owner string, w io.Writer) error
	ExportCSV(owner string, w io.Writer) error
}

type sessionManager interface {
	Login(username, password string) (session.Session, error)
	Validate(id string) (session.Session, error)
	Logout(id string)
	TTL() time.Duration
}

// Defaults are the query values used when a request leaves a parameter out.
type Defaults struct {
	Symbol         domain.Symbol
	Interval       domain.Interval
	PeriodDays     int
	Mode           analysis.Mode
	Resolution     int
	BinCount       int
	TargetFraction float64
	MovingAverage  *indicators.MovingAverage
	Timeframes     []domain.Interval
}

// Server exposes HTTP endpoints serving the HTML UI and the profile API.
type Server struct {
	Addr        string
	Analyzer    profileAnalyzer
	Annotations annotationStore
	Sessions    sessionManager
	Defaults    Defaults

	logger *zap.Logger
	now    func() time.Time
}

// NewServer creates a new web server instance.
func NewServer(addr string, analyzer profileAnalyzer, annotations annotationStore, sessions sessionManager, defaults Defaults, logger *zap.Logger) *Server {
	return &Server{
		Addr:        addr,
		Analyzer:    analyzer,
		Annotations: annotations,
		Sessions:    sessions,
		Defaults:    defaults,
		logger:      logger,
		now:         time.Now,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", gzipped(s.handleIndex))
	mux.HandleFunc("/api/login", s.handleLogin)
	mux.HandleFunc("/api/logout", s.requireSession(s.handleLogout))
	mux.HandleFunc("/api/profile", s.requireSession(s.handleProfile))
	mux.HandleFunc("/api/profile/timeframes", s.requireSession(s.handleTimeframes))
	mux.HandleFunc("/api/annotations", s.requireSession(s.handleAnnotations))
	mux.HandleFunc("/api/annotations/export", s.requireSession(s.handleAnnotationExport))
	mux.HandleFunc("/api/annotations/stream", s.requireSession(s.handleAnnotationStream))
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("web server listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess session.Session)

func (s *Server) requireSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "login required")
			return
		}
		sess, err := s.Sessions.Validate(cookie.Value)
		if err != nil {
			clearSessionCookie(w)
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next(w, r, sess)
	}
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
