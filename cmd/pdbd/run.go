// Package main starts the pdb daemon.
package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/frudas24/pdb/internal/app"
	"github.com/frudas24/pdb/internal/config"
	"github.com/frudas24/pdb/internal/control"
	"github.com/frudas24/pdb/internal/monitor"
	"github.com/frudas24/pdb/internal/platform"
	"github.com/frudas24/pdb/internal/server"
	"github.com/frudas24/pdb/internal/webrtc"
)

const shutdownTimeout = 5 * time.Second

// flags are the command-line overrides.
type flags struct {
	debug bool
	addr  string
	http  string
}

// run wires the daemon and blocks until shutdown.
func run(f flags) error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	if f.addr != "" {
		cfg.ListenAddr = f.addr
	}
	if f.http != "" {
		cfg.HTTPAddr = f.http
	}
	debug := f.debug || config.EnvBool("PDB_DEBUG", false)
	server.SetDebugLogging(debug)
	webrtc.SetDebugLogging(debug)
	if debug {
		log.Printf("debug: enabled")
	}

	ctrl, desk, err := platform.Open(cfg)
	if err != nil {
		return err
	}
	defer desk.Close()
	logStartup(cfg, desk.Name())

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	tcp := server.New(server.NewDispatcher(ctrl), cfg.MaxConns)
	g.Go(func() error {
		return tcp.Serve(gctx, ln)
	})
	if cfg.HTTPAddr != "" {
		if err := startGateway(gctx, g, cfg, ctrl, desk.Name()); err != nil {
			stop()
			_ = g.Wait()
			return err
		}
	}

	err = g.Wait()
	log.Printf("shutdown: complete")
	return err
}

// startGateway serves the HTTP gateway until ctx ends, then closes websocket
// sessions and shuts the server down within shutdownTimeout.
func startGateway(ctx context.Context, g *errgroup.Group, cfg config.Server, ctrl *control.Controller, platformName string) error {
	peers, err := webrtc.NewPeerFactory(cfg.ICEServers...)
	if err != nil {
		return err
	}
	gateway := app.New(ctrl, app.Options{
		Platform:      platformName,
		MJPEGInterval: time.Duration(cfg.MJPEGIntervalMs) * time.Millisecond,
		MJPEGQuality:  cfg.MJPEGQuality,
		Monitors:      monitor.ListMonitors,
		Peers:         peers,
	})
	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		gateway.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return nil
}

// logFatal prints and exits for startup failures.
func logFatal(err error) {
	log.Printf("fatal: %v", err)
	os.Exit(1)
}

// logStartup prints startup checks and connection info.
func logStartup(cfg config.Server, platformName string) {
	log.Printf("pdbd starting")
	if cfg.EnvFileFound {
		log.Printf("env check: ok (%s)", cfg.EnvFile)
	} else {
		log.Printf("env check: missing (%s)", cfg.EnvFile)
	}
	log.Printf("platform: %s", platformName)
	log.Printf("capture timeout: %s", cfg.CaptureTimeout())
	log.Printf("listen addr: %s", cfg.ListenAddr)
	if cfg.MaxConns > 0 {
		log.Printf("max conns: %d", cfg.MaxConns)
	}
	if cfg.HTTPAddr == "" {
		log.Printf("http addr: disabled")
		return
	}
	log.Printf("http addr: %s", cfg.HTTPAddr)
	logLocalURL(cfg.HTTPAddr)
}

// logLocalURL prints a browser-friendly URL for the gateway.
func logLocalURL(addr string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	log.Printf("local url: http://%s/api/devices", net.JoinHostPort(host, port))
}
