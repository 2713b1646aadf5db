package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"formdesk/app/internal/app"
	"formdesk/app/internal/bridge"
	"formdesk/app/internal/catalog"
	"formdesk/app/internal/config"
	"formdesk/app/internal/identity"
	"formdesk/app/internal/remote"
	"formdesk/app/internal/viewer"
)

func main() {
	cfg := config.Load()

	flagSet := pflag.NewFlagSet("formdesk", pflag.ContinueOnError)
	addr := flagSet.String("addr", cfg.Addr, "gateway listen address")
	apiURL := flagSet.String("api-url", cfg.APIBaseURL, "catalog backend endpoint")
	userID := flagSet.String("user-id", cfg.DebugUserID, "debug identity override")
	chrome := flagSet.Bool("chrome", cfg.ChromeEnabled, "embed documents in headless Chrome")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		log.Fatalf("invalid flags: %v", err)
	}
	cfg.Addr = *addr
	cfg.APIBaseURL = *apiURL
	cfg.DebugUserID = *userID
	cfg.ChromeEnabled = *chrome

	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		log.Fatalf("catalog backend endpoint is required (--api-url or FORMDESK_API_URL)")
	}

	hostBridge := &bridge.LogBridge{}
	ids := identity.NewResolver(hostBridge, cfg.DebugUserID, cfg.AdminID)
	if ids.UserID() == "" {
		log.Printf("WARNING: no identity resolved; documents cannot be opened (set --user-id)")
	}

	client := remote.NewClient(cfg.APIBaseURL, ids.UserID(), remote.Options{
		Timeout:         cfg.RequestTimeout,
		ListMaxAttempts: cfg.ListMaxAttempts,
		RetryDelay:      cfg.RetryDelay,
	})
	cache := catalog.NewCache()

	var surface viewer.Surface = viewer.BlockedSurface{}
	var frames app.FrameProvider
	if cfg.ChromeEnabled {
		chromeSurface, err := viewer.NewChromeSurface()
		if err != nil {
			log.Printf("viewer: %v; documents will open externally via fallback", err)
		} else {
			surface = chromeSurface
			frames = chromeSurface
		}
	}

	docViewer := viewer.New(surface, hostBridge, viewer.Timings{
		LoadDelay:       cfg.ViewerLoadDelay,
		CloseDelay:      cfg.ViewerCloseDelay,
		FallbackTimeout: cfg.ViewerFallbackTimeout,
	})

	service := app.New(client, cache, docViewer, hostBridge, ids, cfg.ToastDuration)
	httpServer := app.NewHTTPServer(service, frames, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	hostBridge.Ready()
	hostBridge.ExpandViewport()
	hostBridge.DisableVerticalSwipes()
	hostBridge.OnThemeChanged(func(scheme string) {
		log.Printf("bridge: theme changed to %s", scheme)
	})
	go func() {
		if err := service.Refresh(context.Background()); err != nil {
			log.Printf("WARNING: initial catalog load failed: %v", err)
		}
	}()

	go func() {
		log.Printf("formdesk gateway listening on %s (admin=%v)", cfg.Addr, ids.IsAdmin())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	docViewer.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
