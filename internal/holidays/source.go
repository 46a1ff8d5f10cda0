// Package holidays fetches national public holidays from a remote or
// built-in provider.
package holidays

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/models"
)

// Holiday is one public holiday as reported by a provider.
type Holiday struct {
	Date        string `json:"date"`
	LocalName   string `json:"localName"`
	Name        string `json:"name,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
}

// Source returns a country's public holidays for a year. Implementations
// report transport problems as apperr.ErrNetwork and bad payloads as
// apperr.ErrParse.
type Source interface {
	Fetch(ctx context.Context, year int) ([]Holiday, error)
}

// Providers.
const (
	ProviderNager   = "nager"
	ProviderBuiltin = "builtin"
)

// Encode serialises holidays into the payload stored by the holiday cache.
func Encode(hs []Holiday) ([]byte, error) {
	if hs == nil {
		hs = []Holiday{}
	}
	return json.Marshal(hs)
}

// Decode parses a cached or fetched payload and checks every date.
func Decode(data []byte) ([]Holiday, error) {
	var hs []Holiday
	if err := json.Unmarshal(data, &hs); err != nil {
		return nil, fmt.Errorf("holidays: decode: %w: %w", apperr.ErrParse, err)
	}
	for _, h := range hs {
		if _, err := time.Parse(models.DateLayout, h.Date); err != nil {
			return nil, fmt.Errorf("holidays: bad date %q: %w: %w", h.Date, apperr.ErrParse, err)
		}
	}
	return hs, nil
}

// DisplayName is the name shown to the user, preferring the local one.
func (h Holiday) DisplayName() string {
	if h.LocalName != "" {
		return h.LocalName
	}
	return h.Name
}
