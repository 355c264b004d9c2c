package cache

import (
	"crypto/tls"
	"sync"

	"tentspace/internal/config"
	"tentspace/internal/util/logger"

	"github.com/valkey-io/valkey-go"
)

var (
	once         sync.Once
	valkeyClient valkey.Client
)

// GetCache returns the shared Valkey client, or nil when VALKEY_HOST is not
// set. Callers fall back to process-local state in that case.
func GetCache() valkey.Client {
	once.Do(func() {
		env := config.GetEnv()
		if !env.IsCacheConfigured() {
			logger.GetLogger().Info("Valkey is not configured, using in-process state")
			return
		}

		options := valkey.ClientOption{
			InitAddress: []string{env.ValkeyHost + ":" + env.ValkeyPort},
			Password:    env.ValkeyPassword,
			Username:    env.ValkeyUsername,
		}

		if env.ValkeyIsSsl {
			options.TLSConfig = &tls.Config{
				ServerName: env.ValkeyHost,
			}
		}

		client, err := valkey.NewClient(options)
		if err != nil {
			panic(err)
		}

		valkeyClient = client
	})

	return valkeyClient
}
