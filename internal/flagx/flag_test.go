package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	daemon := []string{"-a", "-d", "-driver", "-lockout-duration"}

	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate values",
			args:    []string{"-a", ":50051", "-camera", "1", "-d", "faceguard.db"},
			allowed: daemon,
			want:    []string{"-a", ":50051", "-d", "faceguard.db"},
		},
		{
			name:    "equals form",
			args:    []string{"-lockout-duration=45s", "-confidence=70"},
			allowed: daemon,
			want:    []string{"-lockout-duration=45s"},
		},
		{
			name:    "positional subcommand dropped",
			args:    []string{"hash-password", "-driver", "pgx"},
			allowed: daemon,
			want:    []string{"-driver", "pgx"},
		},
		{
			name:    "missing value at end",
			args:    []string{"-d"},
			allowed: daemon,
			want:    []string{"-d"},
		},
		{
			name:    "next flag is not a value",
			args:    []string{"-d", "-driver=sqlite"},
			allowed: daemon,
			want:    []string{"-d", "-driver=sqlite"},
		},
		{
			name:    "value may start with dash in equals form",
			args:    []string{"-c=-odd.json"},
			allowed: []string{"-c"},
			want:    []string{"-c=-odd.json"},
		},
		{
			name:    "repeats keep order",
			args:    []string{"-c", "one.json", "-c", "two.json"},
			allowed: []string{"-c"},
			want:    []string{"-c", "one.json", "-c", "two.json"},
		},
		{
			name:    "nothing allowed",
			args:    []string{"-x", "1"},
			allowed: daemon,
			want:    []string{},
		},
		{
			name:    "empty",
			args:    nil,
			allowed: daemon,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"faceguardd", "-c", "/etc/faceguard/short.json"}
	assert.Equal(t, "/etc/faceguard/short.json", JsonConfigFlags())

	os.Args = []string{"faceguardd", "-config", "/etc/faceguard/long.json"}
	assert.Equal(t, "/etc/faceguard/long.json", JsonConfigFlags())

	os.Args = []string{"faceguardd", "-c", "1.json", "-config", "2.json"}
	assert.Equal(t, "2.json", JsonConfigFlags())

	os.Args = []string{"faceguardd", "-camera", "2"}
	assert.Empty(t, JsonConfigFlags())
}

func TestConfigPath_MixedWithDaemonFlags(t *testing.T) {
	args := []string{"-a", ":50051", "-driver", "sqlite", "-c", "faceguard.json", "-l", "zap"}
	assert.Equal(t, "faceguard.json", ConfigPath(args))
	assert.Empty(t, ConfigPath([]string{"-driver", "pgx"}))
}
