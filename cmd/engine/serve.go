package main

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"offersearch-engine/internal/config"
	"offersearch-engine/internal/httpapi"
	"offersearch-engine/internal/logger"
	"offersearch-engine/internal/secrets"
	"offersearch-engine/internal/store"
)

// ShutdownTokenEnv lets the launcher choose the token it will send back.
const ShutdownTokenEnv = "OFFERSEARCH_SHUTDOWN_TOKEN"

var serveFlags struct {
	port int
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP surface on 127.0.0.1",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&serveFlags.port, "port", 0, "listen port (default app.port from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx, appOptions{exclusive: true})
	if err != nil {
		return err
	}
	defer a.Close()

	var cfgVal atomic.Value
	cfgVal.Store(a.cfg)
	var scrapeStatus atomic.Value
	scrapeStatus.Store(httpapi.ScrapeStatus{})

	d := httpapi.Deps{
		Offers:       a.svc,
		Hub:          a.hub,
		Metrics:      a.metrics,
		Logger:       a.log,
		CfgVal:       &cfgVal,
		ScrapeStatus: &scrapeStatus,
		UserCfgPath:  a.cfgPath,
		LoadCfg: func() (config.Config, error) {
			cfg, err := config.Load(a.cfgPath)
			if err != nil {
				return cfg, err
			}
			if err := config.OverlaySelectors(&cfg, filepath.Join(a.dataDir, selectorsFileName)); err != nil {
				return cfg, err
			}
			cfg, _ = config.NormalizeAndValidate(cfg)
			return cfg, nil
		},
		SetToken: func(cfg config.Config, token string) error {
			return secrets.SetAPIToken(secrets.APIKeyringAccount(cfg), token)
		},
	}
	if sq, ok := a.kv.(*store.SQLite); ok {
		d.Checkpoint = sq.Checkpoint
	}

	mux := httpapi.NewMux(d)

	token := os.Getenv(ShutdownTokenEnv)
	if token == "" {
		if token, err = randomToken(16); err != nil {
			return err
		}
	}

	port := a.cfg.App.Port
	if serveFlags.port > 0 {
		port = serveFlags.port
	}
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           httpapi.Handler(mux, a.log),
		ReadHeaderTimeout: 5 * time.Second,
	}
	mux.HandleFunc("/shutdown", shutdownHandler(token, srv, a.log))

	a.log.Info("engine listening", logger.String("addr", "http://"+addr))
	fmt.Fprintf(cmd.OutOrStdout(), "SHUTDOWN_TOKEN=%s\n", token)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		a.log.Info("shutting down")
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shCtx)
	}
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// shutdownHandler stops the server for the launcher that started it.
// Only loopback callers holding the token are honoured.
func shutdownHandler(token string, srv *http.Server, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if host != "127.0.0.1" && host != "::1" && host != "localhost" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		got := r.Header.Get("X-Shutdown-Token")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("shutting down\n"))

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Warn("shutdown failed", logger.Err(err))
			}
		}()
	}
}
