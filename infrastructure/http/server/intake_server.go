package server

import (
	"chat-relay/codec"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/mimetypes"
	"chat-relay/errors"
	"chat-relay/observability"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	serviceName     = "intake"
	submissionPath  = "/message.html"
	shutdownTimeout = 5 * time.Second
)

// staticAllowlist maps every servable path to its file under the static directory.
var staticAllowlist = map[string]string{
	"/":             "index.html",
	"/index.html":   "index.html",
	"/message.html": "message.html",
	"/style.css":    "style.css",
	"/logo.png":     "logo.png",
}

type Settings struct {
	Addr         string
	StaticDir    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Now stamps accepted submissions, time.Now when nil.
	Now func() time.Time
}

// IntakeServer serves the static pages and the message submission form.
// Requests are handled one at a time, like the relay tier.
type IntakeServer struct {
	settings Settings
	relay    contract.Relay
	logSink  contract.Sink
	log      *slog.Logger
	now      func() time.Time
	serial   sync.Mutex
	router   http.Handler
}

func NewIntakeServer(settings Settings, relay contract.Relay, logSink contract.Sink, log *slog.Logger) *IntakeServer {
	s := &IntakeServer{
		settings: settings,
		relay:    relay,
		logSink:  logSink,
		log:      log,
		now:      settings.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.router = s.routes()
	return s
}

func (s *IntakeServer) Name() string {
	return "IntakeServer"
}

func (s *IntakeServer) Handler() http.Handler {
	return s.router
}

func (s *IntakeServer) routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(observability.MetricsMiddleware(serviceName))
	router.Use(s.serialHandling)

	for path, file := range staticAllowlist {
		router.Get(path, s.serveStatic(file))
	}
	router.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusNotFound, "Not Found")
	})
	router.Post(submissionPath, s.submit)
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("Page not found", "path", r.URL.Path)
		writeText(w, http.StatusNotFound, "Page not found")
	})
	return router
}

func (s *IntakeServer) serialHandling(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.serial.Lock()
		defer s.serial.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *IntakeServer) serveStatic(file string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("Requested path", "path", r.URL.Path)
		data, err := os.ReadFile(filepath.Join(s.settings.StaticDir, file))
		if err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				s.log.Debug("File does not exist", "file", file)
				writeText(w, http.StatusNotFound, "File not found")
				return
			}
			s.log.Error("Unable to read static file", "file", file, "error", err)
			writeText(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		if expected, ok := mimetypes.ByExtension(file); ok {
			w.Header().Set("Content-Type", string(expected))
			s.checkContent(file, data, expected)
		} else {
			// Prevents net/http from sniffing a type on its own
			w.Header()["Content-Type"] = nil
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

// checkContent warns and counts when a served file does not look like its extension says.
// The file is still served with the declared type.
// Plain text detections are ignored: stylesheets and empty files sniff as text/plain.
func (s *IntakeServer) checkContent(file string, data []byte, expected mimetypes.MIME) {
	detected := mimetype.Detect(data)
	if detected.Is("text/plain") {
		return
	}
	if _, ok := mimetypes.Matches(detected.String(), expected); !ok {
		observability.StaticContentMismatchTotal.WithLabelValues(file).Inc()
		s.log.Warn("Static file content does not match its extension",
			"file", file, "expected", expected, "detected", detected.String())
	}
}

// submit validates the form, relays the message, then appends it to the log.
// Relay delivery always comes first: a relay failure leaves the log untouched,
// a log failure happens after the relay already took the message.
func (s *IntakeServer) submit(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, codec.MaxPayloadSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.reject(w, http.StatusRequestEntityTooLarge, "Payload too large", observability.OutcomeInvalid, err)
			return
		}
		s.reject(w, http.StatusBadRequest, "No data received", observability.OutcomeInvalid, err)
		return
	}
	if len(raw) == 0 {
		s.reject(w, http.StatusBadRequest, "No data received", observability.OutcomeInvalid, nil)
		return
	}
	if !utf8.Valid(raw) {
		s.reject(w, http.StatusBadRequest, "Invalid form data", observability.OutcomeInvalid, nil)
		return
	}

	form, err := url.ParseQuery(string(raw))
	if err != nil {
		// Pairs decoded before the faulty one are kept
		s.log.Debug("Partially invalid form", "error", err)
	}

	msg, err := domain.NewMessage(form.Get("username"), form.Get("message"), s.now().UTC())
	if err != nil {
		s.reject(w, http.StatusBadRequest, "Invalid form data", observability.OutcomeInvalid, err)
		return
	}

	if err = s.relay.Send(r.Context(), msg); err != nil {
		if stderrors.Is(err, errors.ErrPayloadTooLarge) {
			s.reject(w, http.StatusRequestEntityTooLarge, "Payload too large", observability.OutcomeInvalid, err)
			return
		}
		s.log.Error("Failed to send data to relay server", "error", err)
		s.reject(w, http.StatusInternalServerError, "Failed to send data to relay server", observability.OutcomeRelayFailed, err)
		return
	}

	if err = s.logSink.Consume(r.Context(), msg); err != nil {
		s.log.Error("Failed to save data to file", "error", err)
		s.reject(w, http.StatusInternalServerError, "Failed to save data to file", observability.OutcomeLogFailed, err)
		return
	}

	observability.SubmissionsTotal.WithLabelValues(observability.OutcomeAccepted).Inc()
	s.log.Debug("Submission accepted", "username", msg.Username)
	w.Header().Set("Location", submissionPath)
	w.WriteHeader(http.StatusSeeOther)
}

func (s *IntakeServer) reject(w http.ResponseWriter, status int, text, outcome string, err error) {
	observability.SubmissionsTotal.WithLabelValues(outcome).Inc()
	if err != nil && status < http.StatusInternalServerError {
		s.log.Debug("Submission rejected", "status", status, "error", err)
	}
	writeText(w, status, text)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}

// Run serves on the configured address until ctx is cancelled.
func (s *IntakeServer) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.settings.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	s.log.Info("Intake server listening", "addr", listener.Addr().String())
	if err = srv.Serve(listener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("Intake server stopped")
	return nil
}
