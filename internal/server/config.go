package server

import (
	"github.com/avelines/a11yscan/internal/app"
	"github.com/avelines/a11yscan/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address for the API server.
	ListenAddr string

	// AppConfig configures the orchestrator the server owns. Nil means
	// app.DefaultConfig().
	AppConfig *app.Config

	// Sessions resolves bearer tokens to user IDs. Nil means a static
	// single-user development store.
	Sessions SessionStore

	Logger logging.Logger
}

func DefaultConfig() Config {
	return Config{
		ListenAddr: ":8080",
		AppConfig:  app.DefaultConfig(),
	}
}
