// Package naturaldate turns quick-add phrases such as "Dentist tomorrow 15:30"
// into event fields.
package naturaldate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/models"
)

// DefaultTime is used when the phrase names a day but no time.
const DefaultTime = "09:00"

// Result holds the fields extracted from a phrase.
type Result struct {
	Title string
	Date  string
	Time  string
}

// Fields converts r into event fields.
func (r Result) Fields() models.EventFields {
	return models.EventFields{Title: r.Title, Date: r.Date, Time: r.Time}
}

// Parser wraps a when.Parser loaded with English and common rules.
type Parser struct {
	w *when.Parser
}

// New creates a parser.
func New() *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Parser{w: w}
}

// clockRe matches the parts of a date phrase that set a time of day.
var clockRe = regexp.MustCompile(`(?i)\d{1,2}:\d{2}|\b\d{1,2}\s*(?:am|pm|a\.m\.|p\.m\.|o'clock)|\b(?:noon|midnight|morning|afternoon|evening|tonight)\b`)

// trailing words left dangling once the date phrase is cut out
var danglers = map[string]bool{"at": true, "on": true, "in": true, "by": true}

// Parse extracts the date phrase from text relative to base. The rest of the
// text becomes the title.
func (p *Parser) Parse(text string, base time.Time) (Result, error) {
	text = strings.TrimSpace(text)
	r, err := p.w.Parse(text, base)
	if err != nil {
		return Result{}, fmt.Errorf("naturaldate: %w", apperr.Validation(validation.Errors{"text": err}))
	}
	if r == nil {
		return Result{}, apperr.Validation(validation.Errors{"text": errors.New("no date found")})
	}

	rest := text[:r.Index] + " " + text[r.Index+len(r.Text):]
	words := strings.Fields(rest)
	for len(words) > 0 && danglers[strings.ToLower(words[len(words)-1])] {
		words = words[:len(words)-1]
	}
	title := strings.Join(words, " ")
	if title == "" {
		return Result{}, apperr.Validation(validation.Errors{"text": errors.New("no title left after the date")})
	}

	at := DefaultTime
	if clockRe.MatchString(r.Text) {
		at = r.Time.Format(models.TimeLayout)
	}
	return Result{
		Title: title,
		Date:  r.Time.Format(models.DateLayout),
		Time:  at,
	}, nil
}
