package main

import (
	"log"
	"net/http"

	"github.com/paul-lee-attorney/sm4trace/internal/config"
	"github.com/paul-lee-attorney/sm4trace/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Main: unable to load config: %v\n", err)
	}

	srv := &http.Server{
		Addr:        cfg.Addr,
		Handler:     server.New(cfg),
		ReadTimeout: cfg.ReadTimeout,
	}

	log.Printf("Main: listening on %s\n", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Main: server stopped: %v\n", err)
	}
}
