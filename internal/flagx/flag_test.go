package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "short flag with separate value",
			args:    []string{"-c", "conf.json", "-a", "http://localhost:4000/api"},
			allowed: []string{"-c"},
			want:    []string{"-c", "conf.json"},
		},
		{
			name:    "equals form",
			args:    []string{"-e=production", "-a", "x"},
			allowed: []string{"-e"},
			want:    []string{"-e=production"},
		},
		{
			name:    "unknown flags and positionals ignored",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "flag without value at end is kept",
			args:    []string{"-s"},
			allowed: []string{"-s"},
			want:    []string{"-s"},
		},
		{
			name:    "next dash token is not a value",
			args:    []string{"-c", "-config=alt.json"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-c", "-config=alt.json"},
		},
		{
			name:    "several allowed flags keep order",
			args:    []string{"-a", "http://api", "-o", "yaml", "-z", "x", "-c", "c.json"},
			allowed: []string{"-a", "-o", "-c"},
			want:    []string{"-a", "http://api", "-o", "yaml", "-c", "c.json"},
		},
		{
			name:    "empty args",
			args:    nil,
			allowed: []string{"-c"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/miarbol.json", ConfigPath([]string{"-c", "/etc/miarbol.json"}))
	assert.Equal(t, "/tmp/long.json", ConfigPath([]string{"-a", "x", "-config", "/tmp/long.json"}))
	assert.Equal(t, "/tmp/2.json", ConfigPath([]string{"-c", "/tmp/1.json", "-config", "/tmp/2.json"}))
	assert.Empty(t, ConfigPath([]string{"-x", "1"}))
}
