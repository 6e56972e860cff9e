package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, StoreMemory, cfg.SnapshotStore)
	assert.Equal(t, "chatbot-flow", cfg.SnapshotKey)
	assert.Equal(t, 3*time.Second, cfg.NotificationTTL)
	assert.True(t, cfg.SeedEntryNode)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.UsesAWS())
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("SNAPSHOT_STORE", "DynamoDB")
	t.Setenv("TABLE_NAME", "flows")
	t.Setenv("NOTIFICATION_TTL", "1500")
	t.Setenv("SEED_ENTRY_NODE", "false")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("SNAPSHOT_KEY", "demo")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreDynamoDB, cfg.SnapshotStore)
	assert.Equal(t, "flows", cfg.DynamoDBTable)
	assert.Equal(t, 1500*time.Millisecond, cfg.NotificationTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.True(t, cfg.UsesAWS())

	dc := cfg.DomainConfig()
	assert.Equal(t, "demo", dc.SnapshotKey)
	assert.Equal(t, 1500*time.Millisecond, dc.NotificationTTL)
	assert.False(t, dc.SeedEntryNode)
	assert.Equal(t, 100000, dc.MaxNodesPerFlow, "development preset")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "unknown store", env: map[string]string{"SNAPSHOT_STORE": "redis"}, wantErr: "SNAPSHOT_STORE"},
		{name: "production needs secret", env: map[string]string{"ENVIRONMENT": "production"}, wantErr: "JWT_SECRET"},
		{name: "auth needs secret", env: map[string]string{"REQUIRE_AUTH": "true"}, wantErr: "JWT_SECRET"},
		{name: "zero ttl", env: map[string]string{"NOTIFICATION_TTL": "0s"}, wantErr: "NOTIFICATION_TTL"},
		{name: "production ok", env: map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": "s3cret"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
