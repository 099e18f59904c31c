package api

// Config is the HTTP server configuration.
type Config struct {
	// Address to listen on (e.g., "0.0.0.0:8000")
	ListenAddr string
}
