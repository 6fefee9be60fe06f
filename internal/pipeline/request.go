package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "northstar/internal/errors"
	"northstar/pkg/contracts/domain"
)

// Metric selects what the pipeline tallies per player.
type Metric string

const (
	// MetricDeaths counts deaths per player (the default).
	MetricDeaths Metric = "deaths"
	// MetricDamage sums damage taken per player.
	MetricDamage Metric = "damage"
)

// Request describes one pipeline invocation. Construct it, Normalize it,
// then hand it to Runner.Run; the runner validates before doing any
// network work.
type Request struct {
	GuildID    int              `validate:"required,gt=0"`
	Range      domain.DateRange `validate:"required"`
	Boss       domain.Boss      `validate:"required"`
	Ability    domain.Ability
	Difficulty int    `validate:"gte=0"` // encounter difficulty, 0 = any
	WipesOnly  bool
	Metric     Metric `validate:"required,oneof=deaths damage"`
}

// Normalize fills the default metric. Difficulty is left alone: zero
// means "any difficulty" all the way down to the fight filter, and the
// commands default their flag to Mythic themselves.
func (r *Request) Normalize() {
	if r.Metric == "" {
		r.Metric = MetricDeaths
	}
}

var validate = validator.New()

// Validate checks the request's structural invariants.
func (r *Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return apperrors.NewValidationError("invalid pipeline request", err)
	}
	if r.Range.End.Before(r.Range.Start) {
		return apperrors.NewValidationError(
			fmt.Sprintf("date range end %s precedes start %s",
				r.Range.End.Format("2006-01-02"), r.Range.Start.Format("2006-01-02")), nil)
	}
	return nil
}

// guildURLPattern matches the guild-by-ID browse URL, e.g.
// https://www.warcraftlogs.com/guild/id/260153
var guildURLPattern = regexp.MustCompile(`/guild/id/(\d+)`)

// ParseGuildID extracts the numeric guild identifier from a bare number
// or a guild URL.
func ParseGuildID(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, apperrors.NewValidationError("guild identifier is empty", nil)
	}

	if id, err := strconv.Atoi(s); err == nil {
		if id <= 0 {
			return 0, apperrors.NewValidationError(
				fmt.Sprintf("guild ID must be positive, got %d", id), nil)
		}
		return id, nil
	}

	if m := guildURLPattern.FindStringSubmatch(s); m != nil {
		id, err := strconv.Atoi(m[1])
		if err != nil || id <= 0 {
			return 0, apperrors.NewValidationError(
				fmt.Sprintf("guild URL carries an invalid ID: %q", s), err)
		}
		return id, nil
	}

	return 0, apperrors.NewValidationError(
		fmt.Sprintf("cannot parse guild identifier %q: expected a number or a guild URL", s), nil)
}
