package main

import (
	"log"
	"net/http"
	"os"

	"github.com/edulive/classmesh/internal/relay"
)

// Health Check endpoint
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signaling relay is healthy."))
}

func main() {
	hub := relay.NewHub()

	// The hub's select loop is the single owner of all room state.
	go hub.Run()

	http.HandleFunc("/health", healthCheckHandler)
	http.HandleFunc("/ws", relay.ServeWs(hub))

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	log.Printf("Starting signaling relay on http://localhost:%s", port)

	log.Fatal(http.ListenAndServe(":"+port, nil))
}
