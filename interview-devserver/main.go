package main

import (
	"crypto/tls"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/AtDexters-Lab/nexus-interview/internal/config"
	"github.com/AtDexters-Lab/nexus-interview/internal/devserver"
	"golang.org/x/crypto/acme/autocert"
)

func main() {
	// --- 1. Configuration Loading ---
	configPath := flag.String("config", "devserver.yaml", "Path to the configuration file.")
	flag.Parse()

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		log.Fatalf("FATAL: Error loading configuration: %v", err)
	}

	log.Printf("INFO: Configuration loaded successfully from %s", *configPath)
	log.Printf("INFO: Listen Address: %s, %d questions per interview", cfg.ListenAddress, cfg.MaxQuestions)

	// --- 2. Server Initialization ---
	var tlsConfig *tls.Config
	var challengeServer *http.Server

	switch cfg.TLSMode() {
	case "acme":
		log.Println("INFO: TLS mode: Automatic (Let's Encrypt using HTTP-01)")

		cacheDir := cfg.AcmeCacheDir
		if cacheDir == "" {
			cacheDir = "acme_certs"
		}
		if err := os.MkdirAll(cacheDir, 0700); err != nil {
			log.Fatalf("FATAL: Could not create ACME cache directory %s: %v", cacheDir, err)
		}
		log.Printf("INFO: ACME certificate cache directory: %s", cacheDir)

		certManager := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(cfg.PublicHostname),
			Cache:      autocert.DirCache(cacheDir),
		}
		tlsConfig = certManager.TLSConfig()
		challengeServer = &http.Server{Addr: ":80", Handler: certManager.HTTPHandler(nil)}

	case "manual":
		log.Println("INFO: TLS mode: Manual (from file)")
		cert, err := tls.LoadX509KeyPair(cfg.TlsCertFile, cfg.TlsKeyFile)
		if err != nil {
			log.Fatalf("FATAL: Failed to load manual TLS certificates: %v", err)
		}
		tlsConfig = &tls.Config{Certificates: []tls.Certificate{cert}}

	default:
		log.Println("INFO: TLS mode: None (plain ws)")
	}

	server := devserver.New(cfg, tlsConfig)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Run(); err != nil {
			log.Fatalf("FATAL: Interview server failed: %v", err)
		}
	}()

	if challengeServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := challengeServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("ERROR: ACME challenge listener failed: %v", err)
			}
		}()
	}

	// --- 3. Graceful Shutdown ---
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	log.Println("INFO: Interview devserver is running. Press CTRL+C to exit.")

	<-shutdownChan
	log.Println("INFO: Shutdown signal received.")

	// --- 4. Cleanup ---
	server.Stop()
	if challengeServer != nil {
		_ = challengeServer.Close()
	}
	wg.Wait()

	log.Println("INFO: Shutdown complete. Goodbye.")
}
