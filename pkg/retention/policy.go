package retention

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"mercator-hq/curator/pkg/project"
	"mercator-hq/curator/pkg/settings"
)

// Action is what happens to a stale project.
type Action string

const (
	// ActionDeactivate sets active=false and keeps all data.
	ActionDeactivate Action = "deactivate"

	// ActionCascadeDelete removes the project, its children and every
	// component, analysis and comment that belongs to them.
	ActionCascadeDelete Action = "delete"
)

// String returns the action name used in logs and metric labels.
func (a Action) String() string {
	return string(a)
}

// Policy is the retention rule set, read once at the start of a run.
type Policy struct {
	Enabled        bool   `json:"enabled"`
	VersionPattern string `json:"version_pattern,omitempty"`
	MaxAgeDays     int    `json:"max_age_days"`
	Action         Action `json:"action,omitempty"`

	version *regexp.Regexp
}

// LoadPolicy reads the maintenance properties from g.
//
// A disabled policy is returned without reading the remaining properties.
// When enabled, a blank or invalid version pattern and a missing, unparsable
// or negative age all yield a *ConfigurationError. Errors from g itself are
// wrapped and returned as is.
func LoadPolicy(ctx context.Context, g settings.Getter) (*Policy, error) {
	enabled, err := lookupValue(ctx, g, settings.CleanupEnabled)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(enabled, "true") {
		return &Policy{Enabled: false}, nil
	}

	pattern, err := lookupValue(ctx, g, settings.CleanupVersionMatch)
	if err != nil {
		return nil, err
	}
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, NewConfigurationError(settings.CleanupVersionMatch.Name, "no version pattern configured", nil)
	}
	// The pattern must compile on its own. Wrapping first could rebalance a
	// stray ")" and let an alternation escape the anchors.
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, NewConfigurationError(settings.CleanupVersionMatch.Name, "invalid version pattern", err)
	}
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, NewConfigurationError(settings.CleanupVersionMatch.Name, "invalid version pattern", err)
	}

	rawAge, err := lookupValue(ctx, g, settings.CleanupOlderThanDays)
	if err != nil {
		return nil, err
	}
	rawAge = strings.TrimSpace(rawAge)
	if rawAge == "" {
		return nil, NewConfigurationError(settings.CleanupOlderThanDays.Name, "no retention age configured", nil)
	}
	days, err := strconv.Atoi(rawAge)
	if err != nil {
		return nil, NewConfigurationError(settings.CleanupOlderThanDays.Name, "no retention age configured", err)
	}
	if days < 0 {
		return nil, NewConfigurationError(settings.CleanupOlderThanDays.Name,
			fmt.Sprintf("retention age must not be negative, got %d", days), nil)
	}

	deleteOnMatch, err := lookupValue(ctx, g, settings.CleanupDeleteProject)
	if err != nil {
		return nil, err
	}
	action := ActionDeactivate
	if strings.EqualFold(strings.TrimSpace(deleteOnMatch), "true") {
		action = ActionCascadeDelete
	}

	return &Policy{
		Enabled:        true,
		VersionPattern: pattern,
		MaxAgeDays:     days,
		Action:         action,
		version:        re,
	}, nil
}

// lookupValue returns the raw property value, or "" when it is unset.
func lookupValue(ctx context.Context, g settings.Getter, def settings.Definition) (string, error) {
	p, ok, err := def.Lookup(ctx, g)
	if err != nil {
		return "", fmt.Errorf("failed to read property %s/%s: %w", def.Group, def.Name, err)
	}
	if !ok {
		return "", nil
	}
	return p.Value, nil
}

// Cutoff returns the instant before which a last import is stale.
func (p *Policy) Cutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -p.MaxAgeDays)
}

// MatchesVersion reports whether version matches the pattern as a whole.
func (p *Policy) MatchesVersion(version string) bool {
	return p.version != nil && p.version.MatchString(version)
}

// Selects reports whether c is a retention candidate for the given cutoff.
// Projects that were never imported are never selected.
func (p *Policy) Selects(c project.Candidate, cutoff time.Time) bool {
	if c.LastImportAt == nil || !c.LastImportAt.Before(cutoff) {
		return false
	}
	return p.MatchesVersion(c.Version)
}
