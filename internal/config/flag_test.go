package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	base := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		return c
	}

	tests := []struct {
		name        string
		args        []string
		expected    func() *Config
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-l", "zap", "-driver", "pgx", "-d", "db", "-a", "127.0.0.1:9090", "-s", "secret",
				"-camera", "1", "-cascade", "/tmp/c.xml", "-snapshots", "s3",
				"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
				"-lockout-threshold", "7", "-lockout-duration", "1m", "-confidence", "65.5",
			},
			expected: func() *Config {
				c := base()
				c.LogFormat = "zap"
				c.DatabaseDriver = "pgx"
				c.DatabaseDSN = "db"
				c.EndpointAddrGRPC = "127.0.0.1:9090"
				c.AdminSecretKey = "secret"
				c.CameraDevice = 1
				c.CascadePath = "/tmp/c.xml"
				c.SnapshotBackend = "s3"
				c.S3AccessKey = "user"
				c.S3SecretKey = "password"
				c.S3Bucket = "bucket"
				c.S3Region = "us-west-1"
				c.S3BaseEndpoint = "http://endpoint"
				c.LockoutThreshold = 7
				c.LockoutDuration = time.Minute
				c.ConfidenceThreshold = 65.5
				return c
			},
		},
		{
			name:     "foreign flags ignored",
			args:     []string{"cmd", "-c", "cfg.json", "-verbose", "-d", "other.db"},
			expected: func() *Config { c := base(); c.DatabaseDSN = "other.db"; return c },
		},
		{
			name:        "bad duration",
			args:        []string{"cmd", "-lockout-duration", "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := base()

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(tt.expected(), config))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
