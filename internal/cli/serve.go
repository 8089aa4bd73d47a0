package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nugetaudit/pkg/audit"
	errs "github.com/matzehuels/nugetaudit/pkg/errors"
)

const (
	headerRequestID = "X-Request-ID"
	shutdownTimeout = 5 * time.Second
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve audits over HTTP",
		Long: `Serve starts an HTTP API:

  GET /audit/{id}?range=<range>[&source_control=true][&ignore_errors=false]
  GET /healthz

Audit responses are JSON reports. The status code reflects the report's
error code: 400 for an invalid range, 404 for an unknown package or version,
502 for registry failures.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Server.Addr
			}

			auditor, store, err := c.newAuditor(ctx, noCache)
			if err != nil {
				return err
			}
			defer store.Close()

			srv := &server{auditor: auditor, settings: cfg.Audit.Settings, logger: c.Logger}
			return srv.listen(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response caching")
	return cmd
}

// server exposes an Auditor over HTTP.
type server struct {
	auditor  *audit.Auditor
	settings audit.Settings
	logger   *log.Logger
}

func (s *server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/audit/{id}", s.handleAudit)
	return r
}

func (s *server) listen(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// requestLogger tags each request with an id and logs it on completion.
func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request", "id", id, "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "took", time.Since(start).Round(time.Millisecond))
	})
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleAudit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errs.ValidatePackageID(id); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	query := r.URL.Query()
	versionRange := query.Get("range")
	if err := errs.RequireNonBlank("range", versionRange); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	settings := s.settings
	for name, dst := range map[string]*bool{
		"source_control": &settings.IncludeSourceControl,
		"ignore_errors":  &settings.IgnoreSourceControlErrors,
	} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errs.New(errs.ErrCodeInvalidInput, "%s must be a boolean", name))
			return
		}
		*dst = v
	}

	report, err := s.auditor.Audit(r.Context(), id, versionRange, settings)
	if err != nil {
		status := http.StatusInternalServerError
		switch errs.GetCode(err) {
		case errs.ErrCodeInvalidInput:
			status = http.StatusBadRequest
		case errs.ErrCodeCanceled:
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err)
		return
	}
	writeJSONResponse(w, reportStatus(report.ErrorCode), report)
}

// reportStatus maps a report's error code to an HTTP status. Source-control
// failures still carry a usable verdict, so they answer 200.
func reportStatus(code errs.Code) int {
	switch code {
	case "", errs.ErrCodeSourceControl:
		return http.StatusOK
	case errs.ErrCodeInvalidRange:
		return http.StatusBadRequest
	case errs.ErrCodePackageNotFound, errs.ErrCodeVersionNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

type errorResponse struct {
	Code    errs.Code `json:"code"`
	Message string    `json:"message"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	writeJSONResponse(w, status, errorResponse{Code: code, Message: errs.UserMessage(err)})
}

func writeJSONResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
