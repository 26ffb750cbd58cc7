package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuacakota/weather-sampler/internal/region"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "wilayah.db", cfg.DBPath)
	assert.Equal(t, 4, cfg.TotalCities)
	assert.Equal(t, 2, cfg.WIBCities)
	assert.Equal(t, 1, cfg.WITACities)
	assert.Equal(t, 1, cfg.WITCities)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 6, cfg.TargetHour)
	assert.True(t, cfg.AutoReplace)
	assert.Equal(t, "04:00", cfg.BulletinSchedule)
	assert.Equal(t, 30, cfg.StoreMaxHistory)
	assert.Equal(t, 168*time.Hour, cfg.StoreMaxAge)
	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.UseAIEnhancement)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TOTAL_CITIES", "6")
	t.Setenv("WIB_CITIES", "3")
	t.Setenv("WITA_CITIES", "2")
	t.Setenv("WIT_CITIES", "1")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("AUTO_REPLACE_FAILED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.TotalCities)
	assert.Equal(t, 3, cfg.WIBCities)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.False(t, cfg.AutoReplace)
}

func TestLoadQuotaSumInvariant(t *testing.T) {
	t.Setenv("TOTAL_CITIES", "5")
	t.Setenv("WIB_CITIES", "2")
	t.Setenv("WITA_CITIES", "1")
	t.Setenv("WIT_CITIES", "1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOTAL_CITIES")
}

func TestLoadInvalidTimeout(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_TIMEOUT")
}

func TestLoadAIEnhancementNeedsKey(t *testing.T) {
	t.Setenv("USE_AI_ENHANCEMENT", "true")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.UseAIEnhancement, "enhancement is disabled without an API key")

	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.UseAIEnhancement)
}

func TestSelectionRequestFromConfig(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	req := cfg.SelectionRequest()
	assert.Equal(t, 4, req.Total)
	assert.Equal(t, 2, req.Quotas[region.WIB])
	assert.Equal(t, 1, req.Quotas[region.WITA])
	assert.Equal(t, 1, req.Quotas[region.WIT])
	assert.NoError(t, req.Validate())
}
