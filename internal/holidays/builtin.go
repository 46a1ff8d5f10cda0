package holidays

import (
	"context"
	"fmt"
	"strings"

	cal "github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/models"
)

// builtinCalendars lists the countries that can be computed offline.
var builtinCalendars = map[string][]*cal.Holiday{
	"US": {
		us.NewYear,
		us.MlkDay,
		us.PresidentsDay,
		us.MemorialDay,
		us.Juneteenth,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
	},
}

// Builtin computes holidays locally instead of calling a remote API.
type Builtin struct {
	country string
}

// NewBuiltin returns an offline source for country.
func NewBuiltin(country string) *Builtin {
	return &Builtin{country: strings.ToUpper(country)}
}

// Supports reports whether country has an offline calendar.
func Supports(country string) bool {
	_, ok := builtinCalendars[strings.ToUpper(country)]
	return ok
}

// Fetch returns the holidays of year. Countries without an offline calendar
// fail with apperr.ErrNetwork, as if the remote were unreachable.
func (b *Builtin) Fetch(_ context.Context, year int) ([]Holiday, error) {
	defs, ok := builtinCalendars[b.country]
	if !ok {
		return nil, fmt.Errorf("holidays: no builtin calendar for %q: %w", b.country, apperr.ErrNetwork)
	}
	out := make([]Holiday, 0, len(defs))
	for _, h := range defs {
		actual, _ := h.Calc(year)
		if actual.IsZero() {
			continue
		}
		out = append(out, Holiday{
			Date:        actual.Format(models.DateLayout),
			LocalName:   h.Name,
			Name:        h.Name,
			CountryCode: b.country,
		})
	}
	return out, nil
}
