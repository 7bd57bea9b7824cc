package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type pointerConfig struct {
	kind      string
	nullValue int
	lazy      bool
}

func withKind(kind string) Option[*pointerConfig] {
	return New(func(c *pointerConfig) error {
		if kind == "" {
			return errors.New("kind cannot be empty")
		}
		c.kind = kind

		return nil
	})
}

func withLazy() Option[*pointerConfig] {
	return NoError(func(c *pointerConfig) {
		c.lazy = true
	})
}

func TestApply(t *testing.T) {
	cfg := &pointerConfig{kind: "local"}

	err := Apply(cfg, withKind("global"), withLazy())
	require.NoError(t, err)
	require.Equal(t, "global", cfg.kind)
	require.True(t, cfg.lazy)
}

func TestApply_StopsAtFirstError(t *testing.T) {
	cfg := &pointerConfig{kind: "local"}
	nullValue := NoError(func(c *pointerConfig) { c.nullValue = 0xffff })

	err := Apply(cfg, withKind(""), nullValue)
	require.Error(t, err)
	require.Contains(t, err.Error(), "kind cannot be empty")
	require.Equal(t, "local", cfg.kind)
	require.Equal(t, 0, cfg.nullValue, "options after the failing one are not applied")
}

func TestApply_SkipsNil(t *testing.T) {
	cfg := &pointerConfig{}

	require.NoError(t, Apply(cfg, nil, withLazy()))
	require.True(t, cfg.lazy)
}

func TestApply_Empty(t *testing.T) {
	cfg := &pointerConfig{kind: "immediate"}

	require.NoError(t, Apply(cfg))
	require.Equal(t, "immediate", cfg.kind)
}
