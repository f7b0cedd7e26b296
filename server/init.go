package main

import (
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/esimov/greenscreen-wasm/config"
	"github.com/esimov/greenscreen-wasm/console"
)

// httpParams stores the http connection parameters
type httpParams struct {
	address string
	prefix  string
	root    string
}

func main() {
	cfgPath := flag.String("config", config.FileName, "configuration file")
	addr := flag.String("addr", "", "listen address, overrides the configuration")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: console.ParseLevel(cfg.Log.Level),
	}))
	if err != nil {
		logger.Error("loading configuration", "path", *cfgPath, "error", err)
		os.Exit(1)
	}

	httpConn := &httpParams{
		address: cfg.Server.Address,
		prefix:  cfg.Server.Prefix,
		root:    cfg.Server.Root,
	}
	if *addr != "" {
		httpConn.address = *addr
	}
	if err := initServer(httpConn, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// initServer initializes the webserver
func initServer(p *httpParams, logger *slog.Logger) error {
	handler, err := newHandler(p, logger)
	if err != nil {
		return err
	}
	logger.Info("serving", "root", p.root, "prefix", p.prefix, "address", p.address)

	httpServer := http.Server{
		Addr:              p.address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return httpServer.ListenAndServe()
}

// newHandler serves the files under p.root below p.prefix and logs every request.
func newHandler(p *httpParams, logger *slog.Logger) (http.Handler, error) {
	var err error
	p.root, err = filepath.Abs(p.root)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(p.prefix, http.StripPrefix(p.prefix, http.FileServer(http.Dir(p.root))))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info("request", "remote", r.RemoteAddr, "method", r.Method, "url", r.URL.String())
		// The wasm bundle and the configuration change on every build.
		w.Header().Set("Cache-Control", "no-cache")
		mux.ServeHTTP(w, r)
	}), nil
}
