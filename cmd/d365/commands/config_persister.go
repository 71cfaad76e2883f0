package commands

import (
	"sync"

	"github.com/fivetwenty-io/d365-client/internal/auth"
)

// ConfigPersister implements the auth.ConfigPersister interface.
type ConfigPersister struct {
	mutex sync.Mutex
}

var _ auth.ConfigPersister = (*ConfigPersister)(nil)

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// SaveToken stores token as the cached token for hostname. Only the config
// file is read back, so credentials given through flags or the environment
// stay out of it. The configured organisation is kept unless none is set.
func (p *ConfigPersister) SaveToken(hostname string, token *auth.Token) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config, err := loadFileConfig()
	if err != nil {
		return err
	}

	if config.Hostname == "" {
		config.Hostname = hostname
	}

	config.setToken(hostname, token)

	return saveConfigStruct(config)
}
