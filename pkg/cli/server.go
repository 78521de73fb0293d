package cli

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/mchmarny/cargoscan/pkg/auth"
	"github.com/mchmarny/cargoscan/pkg/config"
	"github.com/mchmarny/cargoscan/pkg/logging"
	"github.com/mchmarny/cargoscan/pkg/manifest"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 300
	serverMaxHeaderBytes      = 20
	megabyte                  = 1 << 20
)

const (
	flagPort      = "port"
	flagNoBrowser = "no-browser"
	flagUsername  = "username"
	flagPassword  = "password"
	flagJSONLogs  = "json-logs"
	flagNoReload  = "no-reload"
)

//go:embed assets/* templates/*
var embedFS embed.FS

func newServerCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.IntFlag{
			Name:    flagPort,
			Usage:   "Port on which the server will listen (default: from config)",
			Sources: cli.EnvVars(envPrefix + "PORT"),
		},
		&cli.BoolFlag{
			Name:    flagNoBrowser,
			Aliases: []string{"nb"},
			Usage:   "Do not open browser automatically",
		},
		&cli.StringFlag{
			Name:    flagUsername,
			Usage:   "Operator username (default: from config)",
			Sources: cli.EnvVars(envPrefix + "USERNAME"),
		},
		&cli.StringFlag{
			Name:    flagPassword,
			Usage:   "Operator password (default: from OS keychain, see 'auth')",
			Sources: cli.EnvVars(envPrefix + "PASSWORD"),
		},
		&cli.BoolFlag{
			Name:  flagJSONLogs,
			Usage: "Write server logs as JSON",
		},
		&cli.BoolFlag{
			Name:  flagNoReload,
			Usage: "Do not reload the engine when the config file changes",
		},
	}

	return &cli.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Start local HTTP server with the upload and results UI",
		Action:  cmdStartServer,
		Flags:   append(flags, engineFlags()...),
	}
}

// server holds the dependencies of the web handlers.
type server struct {
	db        *sql.DB
	analyzer  atomic.Pointer[manifest.Analyzer]
	creds     auth.Credentials
	sessions  *auth.Sessions
	tmpl      *template.Template
	maxUpload int64
}

func cmdStartServer(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	if cmd.Bool(flagJSONLogs) {
		slog.SetDefault(logging.NewServerLogger(os.Stderr, cmd.String(flagLogLevel)))
	}

	port := cfg.Conf.Server.Port
	if cmd.IsSet(flagPort) {
		port = cmd.Int(flagPort)
	}

	creds := auth.Credentials{
		Username: cfg.Conf.Server.Username,
		Password: cmd.String(flagPassword),
	}
	if cmd.IsSet(flagUsername) {
		creds.Username = cmd.String(flagUsername)
	}
	if creds.Password == "" {
		pwd, err := getOperatorPassword(cfg.HomeDir)
		if err != nil {
			if errors.Is(err, auth.ErrNoPassword) {
				return errors.New("operator password not set, run 'cargoscan auth' or set --password")
			}
			return fmt.Errorf("getting operator password: %w", err)
		}
		creds.Password = pwd
	}
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("invalid operator credentials: %w", err)
	}

	srv, err := newServer(cfg.DB, manifest.NewAnalyzer(engineConfig(cmd, cfg.Conf.Engine)), creds,
		auth.NewSessions(cfg.Conf.Server.SessionTTL), int64(cfg.Conf.Server.MaxUploadMegabytes)*megabyte)
	if err != nil {
		return err
	}

	address := fmt.Sprintf("127.0.0.1:%d", port)
	s := &http.Server{
		Addr:           address,
		Handler:        srv.routes(),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("error starting server", "error", err)
		}
	}()

	url := fmt.Sprintf("http://%s", address)
	slog.Info("server started", "address", url, "operator", creds.Username)

	if !cmd.Bool(flagNoBrowser) {
		openBrowser(url)
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if !cmd.Bool(flagNoReload) {
		go func() {
			err := config.Watch(watchCtx, cfg.ConfigPath, func(c *config.Config) {
				srv.setAnalyzer(manifest.NewAnalyzer(engineConfig(cmd, c.Engine)))
			})
			if err != nil {
				slog.Error("config watch stopped", "error", err)
			}
		}()
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
	stopWatch()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	return nil
}

func newServer(db *sql.DB, a *manifest.Analyzer, creds auth.Credentials, sessions *auth.Sessions, maxUpload int64) (*server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"join": joinTerms,
	}).ParseFS(embedFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	if maxUpload <= 0 {
		maxUpload = 32 * megabyte
	}
	s := &server{
		db:        db,
		creds:     creds,
		sessions:  sessions,
		tmpl:      tmpl,
		maxUpload: maxUpload,
	}
	s.setAnalyzer(a)
	return s, nil
}

// setAnalyzer swaps the engine used by new analyses. In-flight uploads keep
// the analyzer they started with.
func (s *server) setAnalyzer(a *manifest.Analyzer) {
	if a == nil {
		a = manifest.NewAnalyzer(manifest.DefaultConfig())
	}
	s.analyzer.Store(a)
}

func (s *server) currentAnalyzer() *manifest.Analyzer {
	return s.analyzer.Load()
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Static files and metrics
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(embedFS)))
	mux.Handle("GET /metrics", promhttp.Handler())

	// Login gate
	mux.HandleFunc("GET /{$}", s.loginViewHandler)
	mux.HandleFunc("POST /login", s.loginHandler)
	mux.HandleFunc("GET /logout", s.logoutHandler)

	// Views
	mux.HandleFunc("GET /index", s.requireSession(s.indexViewHandler))
	mux.HandleFunc("POST /analyze", s.requireSession(s.analyzeHandler))
	mux.HandleFunc("GET /results/{id}", s.requireSession(s.resultsViewHandler))
	mux.HandleFunc("GET /export/{id}/{format}", s.requireSession(s.exportHandler))

	// Data API
	mux.HandleFunc("GET /api/analyses", s.requireAPISession(s.listAPIHandler))
	mux.HandleFunc("GET /api/analyses/{id}", s.requireAPISession(s.analysisAPIHandler))
	mux.HandleFunc("DELETE /api/analyses/{id}", s.requireAPISession(s.deleteAPIHandler))
	mux.HandleFunc("GET /api/suspects", s.requireAPISession(s.suspectsAPIHandler))

	return mux
}

func (s *server) loggedIn(r *http.Request) bool {
	ck, err := r.Cookie(auth.CookieName)
	if err != nil {
		return false
	}
	return s.sessions.Valid(ck.Value)
}

func (s *server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.loggedIn(r) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

func (s *server) requireAPISession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.loggedIn(r) {
			writeError(w, http.StatusUnauthorized, "login required")
			return
		}
		next(w, r)
	}
}

func openBrowser(url string) {
	var cmd string
	args := make([]string, 0, 1)

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
	case "linux":
		cmd = "xdg-open"
	default: // windows
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler"}
	}

	args = append(args, url)
	if err := exec.Command(cmd, args...).Start(); err != nil {
		slog.Error("failed to open browser", "error", err)
	}
}
