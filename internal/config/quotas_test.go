package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultQuotasConfig(t *testing.T) {
	cfg := DefaultQuotasConfig()

	require.Len(t, cfg.Defaults, 2)
	assert.Equal(t, QuotaDefault{Type: QuotaTypeConsumable, Limit: 0}, cfg.Defaults["messages"])
	assert.Equal(t, QuotaDefault{Type: QuotaTypeConsumable, Limit: 0}, cfg.Defaults["schedules"])
}

func TestStaticHolderServesConfig(t *testing.T) {
	cfg := QuotasConfig{
		Defaults: map[string]QuotaDefault{
			"messages": {Type: QuotaTypeConsumable, Limit: 100},
		},
	}

	holder, err := NewStaticQuotasConfigHolder(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg, holder.Current())
}

func TestStaticHolderRejectsInvalidConfig(t *testing.T) {
	cases := map[string]QuotasConfig{
		"empty name": {
			Defaults: map[string]QuotaDefault{"  ": {Type: QuotaTypeConsumable, Limit: 1}},
		},
		"unknown type": {
			Defaults: map[string]QuotaDefault{"messages": {Type: "metered", Limit: 1}},
		},
		"negative limit": {
			Defaults: map[string]QuotaDefault{"messages": {Type: QuotaTypeFixed, Limit: -1}},
		},
	}

	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewStaticQuotasConfigHolder(cfg)
			assert.Error(t, err)
		})
	}
}
