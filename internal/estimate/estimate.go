// Package estimate guesses delivery fee and time for an address when the
// backend did not provide them.
package estimate

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Source tags where an estimate came from.
const (
	SourceHeuristic = "address_heuristic"
	SourceServer    = "server"
)

// Estimate is an approximate delivery cost and time window.
type Estimate struct {
	Fee    float64
	MinETA time.Duration
	MaxETA time.Duration
	Source string
}

// Window renders the ETA range the way the app shows it, e.g. "30-45 min".
func (e Estimate) Window() string {
	return fmt.Sprintf("%d-%d min", int(e.MinETA.Minutes()), int(e.MaxETA.Minutes()))
}

// Strategy produces an estimate from a free-form shipping address.
type Strategy interface {
	Estimate(address string) Estimate
}

// Tier is a fee/ETA bucket selected by neighborhood names.
type Tier struct {
	Neighborhoods []string
	Fee           float64
	MinETA        time.Duration
	MaxETA        time.Duration
}

// AddressHeuristic matches neighborhood names as substrings of the address,
// ignoring case and accents. The first matching tier wins.
type AddressHeuristic struct {
	tiers    []Tier
	fallback Tier
}

// DefaultTiers covers the neighborhoods the app served at launch.
var DefaultTiers = []Tier{
	{Neighborhoods: []string{"vila madalena", "pinheiros", "perdizes"}, Fee: 5.99, MinETA: 25 * time.Minute, MaxETA: 35 * time.Minute},
	{Neighborhoods: []string{"moema", "itaim bibi", "vila mariana", "jardins"}, Fee: 7.99, MinETA: 35 * time.Minute, MaxETA: 45 * time.Minute},
	{Neighborhoods: []string{"tatuapé", "santana", "mooca", "butantã"}, Fee: 9.99, MinETA: 45 * time.Minute, MaxETA: 60 * time.Minute},
}

// DefaultFallback applies when no neighborhood matches.
var DefaultFallback = Tier{Fee: 12.99, MinETA: 60 * time.Minute, MaxETA: 90 * time.Minute}

// NewAddressHeuristic builds the heuristic. Nil tiers means DefaultTiers.
func NewAddressHeuristic(tiers []Tier, fallback *Tier) *AddressHeuristic {
	if tiers == nil {
		tiers = DefaultTiers
	}
	fb := DefaultFallback
	if fallback != nil {
		fb = *fallback
	}
	folded := make([]Tier, len(tiers))
	for i, t := range tiers {
		t.Neighborhoods = foldAll(t.Neighborhoods)
		folded[i] = t
	}
	return &AddressHeuristic{tiers: folded, fallback: fb}
}

func (h *AddressHeuristic) Estimate(address string) Estimate {
	addr := fold(address)
	for _, t := range h.tiers {
		for _, n := range t.Neighborhoods {
			if n != "" && strings.Contains(addr, n) {
				return fromTier(t)
			}
		}
	}
	return fromTier(h.fallback)
}

func fromTier(t Tier) Estimate {
	return Estimate{Fee: t.Fee, MinETA: t.MinETA, MaxETA: t.MaxETA, Source: SourceHeuristic}
}

func foldAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fold(s)
	}
	return out
}

// fold lowercases and strips diacritics: "Tatuapé" -> "tatuape".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.Join(strings.Fields(out), " "))
}
