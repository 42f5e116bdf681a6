package container

import (
	"context"
	"testing"

	"stays-be/internal/config"
	"stays-be/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full container construction needs live Postgres and Redis, so these tests
// cover the configuration guards only.
func TestNew_RequiredConfig(t *testing.T) {
	tests := []struct {
		name   string
		config *config.Config
	}{
		{
			name: "Missing database URL",
			config: &config.Config{
				Environment: "test",
				RedisURL:    "redis://localhost:6379/0",
			},
		},
		{
			name: "Missing Redis URL",
			config: &config.Config{
				Environment: "test",
				DatabaseURL: "postgres://localhost:5432/stays",
			},
		},
		{
			name:   "Missing both",
			config: &config.Config{Environment: "test"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testLogger, err := logger.New("info")
			require.NoError(t, err)

			c, err := New(context.Background(), tt.config, testLogger)
			assert.Error(t, err)
			assert.Nil(t, c)
		})
	}
}

func TestContainer_Close_Empty(t *testing.T) {
	c := &Container{}
	assert.NoError(t, c.Close())
}
