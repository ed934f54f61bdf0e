package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOwned_Filter(t *testing.T) {
	owned := Owned{Value: []string{"c", "config", "a"}, Bool: []string{"s"}}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "short flag with separate value",
			args: []string{"-c", "conf.json", "-x", "localhost"},
			want: []string{"-c", "conf.json"},
		},
		{
			name: "double dash with equals",
			args: []string{"--config=alt.json", "-x", "1"},
			want: []string{"--config=alt.json"},
		},
		{
			name: "double dash with separate value",
			args: []string{"--a", "http://127.0.0.1:8080"},
			want: []string{"--a", "http://127.0.0.1:8080"},
		},
		{
			name: "unknown flags and positionals ignored",
			args: []string{"-x", "1", "--y=2", "positional"},
			want: []string{},
		},
		{
			name: "flag without value at end is kept",
			args: []string{"-c"},
			want: []string{"-c"},
		},
		{
			name: "next dash token is not a value",
			args: []string{"-c", "--config=alt.json"},
			want: []string{"-c", "--config=alt.json"},
		},
		{
			name: "bool flag never swallows the next token",
			args: []string{"-s", "-a", "http://h", "-s=false"},
			want: []string{"-s", "-a", "http://h", "-s=false"},
		},
		{
			name: "repeated flag preserved in order",
			args: []string{"-c", "one.json", "-c", "two.json"},
			want: []string{"-c", "one.json", "-c", "two.json"},
		},
		{
			name: "empty args",
			args: []string{},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, owned.Filter(tt.args))
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Run("short -c", func(t *testing.T) {
		assert.Equal(t, "/path/short.json", ConfigPath([]string{"-c", "/path/short.json"}))
	})

	t.Run("long -config among other flags", func(t *testing.T) {
		assert.Equal(t, "/path/long.json", ConfigPath([]string{"-a", "x", "-config", "/path/long.json", "-s"}))
	})

	t.Run("absent", func(t *testing.T) {
		assert.Empty(t, ConfigPath([]string{"-x", "1"}))
	})

	t.Run("last wins", func(t *testing.T) {
		assert.Equal(t, "/2.json", ConfigPath([]string{"-c", "/1.json", "--config=/2.json"}))
	})
}
