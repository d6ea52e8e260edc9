package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tyrowin/roomchat/internal/server"
)

func main() {
	fmt.Println("Starting roomchat server...")

	// Load configuration from .env and the environment
	config, err := server.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	hub := server.NewHub(config)
	go hub.Run()

	listener, err := server.Listen(config.ListenAddr)
	if err != nil {
		log.Fatal(err)
	}

	serveErr := make(chan error, 2)
	go func() {
		serveErr <- hub.Serve(listener)
	}()

	var httpServer *http.Server
	if config.HTTPAddr != "" {
		httpServer = server.CreateServer(config.HTTPAddr, server.SetupRoutes(hub))
		go func() {
			serveErr <- server.StartServer(httpServer)
		}()
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-signals:
		log.Printf("Received %s, shutting down", sig)
	case err := <-serveErr:
		if err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}

	if httpServer != nil {
		if err := server.ShutdownServer(httpServer, config.ShutdownTimeout); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}
	}
	if err := hub.Shutdown(config.ShutdownTimeout); err != nil {
		log.Printf("Hub shutdown: %v", err)
		os.Exit(1)
	}
}
