// Package container wires application dependencies with dig.
package container

import (
	"chat-relay/internal/app"
	"chat-relay/internal/backend"
	"chat-relay/internal/config"
	"chat-relay/internal/eventlog"
	"chat-relay/internal/httpclient"
	"chat-relay/internal/proxy"
	"chat-relay/internal/router"
	"chat-relay/internal/types"

	"go.uber.org/dig"
)

// BuildContainer creates and configures the dependency injection container.
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []interface{}{
		func() (types.ConfigManager, error) {
			return config.NewManager()
		},
		httpclient.NewHTTPClientManager,
		backend.NewClient,
		eventlog.NewLogger,
		proxy.NewProxyServer,
		router.NewRouter,
		app.NewApp,
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}
