package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "embedm", cmd.Use)
	assert.Equal(t, Version, cmd.Version)

	for _, name := range []string{"compile", "plan", "deps", "watch", "version"} {
		sub, _, err := cmd.Find([]string{name})
		assert.NoError(t, err, "subcommand %q should resolve", name)
		assert.Equal(t, name, sub.Name())
	}

	for _, flag := range []string{"config", "output-dir", "overwrite", "verbose",
		"allowed-paths", "max-file-size", "max-recursion", "max-memory", "max-embed-size"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}
