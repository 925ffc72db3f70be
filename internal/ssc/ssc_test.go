package ssc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/export-config/internal/config"
)

func TestFromConfig(t *testing.T) {
	t.Setenv(config.EnvSSCVersion, "")
	require.Equal(t, Unknown, FromConfig(nil).Version())

	t.Setenv(config.EnvSSCVersion, "295")
	require.Equal(t, "295", FromConfig(config.DefaultConfig()).Version())

	cfg := config.DefaultConfig()
	cfg.SSCVersion = " 290 "
	require.Equal(t, "290", FromConfig(cfg).Version())
}

func TestStaticBlankIsUnknown(t *testing.T) {
	require.Equal(t, Unknown, Static("  ").Version())
}
