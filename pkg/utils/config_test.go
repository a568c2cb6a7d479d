package utils

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Count   int           `mapstructure:"count"`
	Backoff time.Duration `mapstructure:"backoff"`
	Name    string        `mapstructure:"name"`
}

func TestUnmarshalConfigStringValues(t *testing.T) {
	v := viper.New()
	v.Set("enabled", "true")
	v.Set("count", "12")
	v.Set("backoff", "250ms")
	v.Set("name", "runlib")

	config := &sampleConfig{}
	require.NoError(t, UnmarshalConfig(v, config))

	assert.True(t, config.Enabled)
	assert.Equal(t, 12, config.Count)
	assert.Equal(t, 250*time.Millisecond, config.Backoff)
	assert.Equal(t, "runlib", config.Name)
}

func TestUnmarshalConfigNativeValues(t *testing.T) {
	v := viper.New()
	v.Set("enabled", true)
	v.Set("count", 3)

	config := &sampleConfig{}
	require.NoError(t, UnmarshalConfig(v, config))

	assert.True(t, config.Enabled)
	assert.Equal(t, 3, config.Count)
}

func TestUnmarshalConfigBadValues(t *testing.T) {
	v := viper.New()
	v.Set("count", "dozen")
	assert.Error(t, UnmarshalConfig(v, &sampleConfig{}))

	v = viper.New()
	v.Set("enabled", "maybe")
	assert.Error(t, UnmarshalConfig(v, &sampleConfig{}))
}
