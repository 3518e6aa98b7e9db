package parser

import (
	"fmt"

	"docparse/internal/config"
	"docparse/internal/port"
)

// ProviderFactory is a function that creates a Gateway from a provider config.
type ProviderFactory func(cfg *config.GatewayConfig) (port.Gateway, error)

// registry of gateway provider factories, populated explicitly via RegisterProvider
// by the binaries that link the provider packages.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a gateway provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewGateway creates a Gateway from a provider config using the registered factory.
func NewGateway(cfg *config.GatewayConfig) (port.Gateway, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown gateway provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
