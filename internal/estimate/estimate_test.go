package estimate_test

import (
	"testing"
	"time"

	"feira/internal/estimate"

	"github.com/stretchr/testify/assert"
)

func TestAddressHeuristic_DefaultTiers(t *testing.T) {
	h := estimate.NewAddressHeuristic(nil, nil)

	cases := []struct {
		address string
		fee     float64
		window  string
	}{
		{"Rua Harmonia, 123 - VILA MADALENA, São Paulo", 5.99, "25-35 min"},
		{"Av. Ibirapuera 3000, Moema", 7.99, "35-45 min"},
		{"Rua Tuiuti, 10 - Tatuape", 9.99, "45-60 min"},
		{"Rua Butanta 5", 9.99, "45-60 min"},
		{"Rua   Itaim   Bibi, 1", 7.99, "35-45 min"},
		{"Campinas, SP", 12.99, "60-90 min"},
		{"", 12.99, "60-90 min"},
	}
	for _, tc := range cases {
		e := h.Estimate(tc.address)
		assert.Equal(t, tc.fee, e.Fee, tc.address)
		assert.Equal(t, tc.window, e.Window(), tc.address)
		assert.Equal(t, estimate.SourceHeuristic, e.Source)
	}
}

func TestAddressHeuristic_CustomTiers(t *testing.T) {
	fallback := estimate.Tier{Fee: 20, MinETA: 2 * time.Hour, MaxETA: 3 * time.Hour}
	h := estimate.NewAddressHeuristic([]estimate.Tier{
		{Neighborhoods: []string{"Centro"}, Fee: 3, MinETA: 10 * time.Minute, MaxETA: 20 * time.Minute},
	}, &fallback)

	assert.Equal(t, 3.0, h.Estimate("Praça da Sé, centro").Fee)
	assert.Equal(t, 20.0, h.Estimate("Vila Madalena").Fee)
}
