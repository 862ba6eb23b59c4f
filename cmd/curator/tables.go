package main

import (
	"strconv"
	"time"

	"mercator-hq/curator/pkg/project"
	"mercator-hq/curator/pkg/retention"
	"mercator-hq/curator/pkg/settings"
)

// Table adapters for cli formatters. Each embeds or aliases the value it
// renders so that JSON output is the value itself.

type runTable struct{ *retention.RunResult }

func (t runTable) Headers() []string { return []string{"FIELD", "VALUE"} }

func (t runTable) Rows() [][]string {
	r := t.RunResult
	rows := [][]string{
		{"run_id", r.RunID},
		{"trigger", r.Trigger},
		{"outcome", r.Outcome},
	}
	if r.Disabled {
		return append(rows, []string{"disabled", "true"})
	}
	if r.Action != "" {
		rows = append(rows,
			[]string{"action", r.Action.String()},
			[]string{"cutoff", formatTime(&r.Cutoff)},
		)
	}
	rows = append(rows,
		[]string{"evaluated", strconv.Itoa(r.Evaluated)},
		[]string{"candidates", strconv.Itoa(r.Candidates)},
		[]string{"actioned", strconv.Itoa(r.Actioned)},
		[]string{"failed", strconv.Itoa(r.Failed)},
		[]string{"duration", r.Duration().String()},
	)
	for _, f := range r.Failures {
		rows = append(rows, []string{"failure " + f.ProjectID, f.Error()})
	}
	if r.Error != "" {
		rows = append(rows, []string{"error", r.Error})
	}
	return rows
}

type planTable struct{ *retention.Plan }

func (t planTable) Headers() []string {
	return []string{"ID", "NAME", "VERSION", "LAST IMPORT", "ACTION"}
}

func (t planTable) Rows() [][]string {
	var action string
	if t.Policy != nil {
		action = t.Policy.Action.String()
	}
	rows := make([][]string, 0, len(t.Candidates))
	for _, c := range t.Candidates {
		rows = append(rows, []string{c.ID, c.Name, c.Version, formatTime(c.LastImportAt), action})
	}
	return rows
}

type projectTable []*project.Project

func (t projectTable) Headers() []string {
	return []string{"ID", "NAME", "VERSION", "ACTIVE", "PARENT", "LAST IMPORT"}
}

func (t projectTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, p := range t {
		rows = append(rows, []string{p.ID, p.Name, p.Version, strconv.FormatBool(p.Active), p.ParentID, formatTime(p.LastImportAt)})
	}
	return rows
}

type propertyTable []settings.Property

func (t propertyTable) Headers() []string {
	return []string{"GROUP", "NAME", "VALUE", "TYPE"}
}

func (t propertyTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, p := range t {
		rows = append(rows, []string{p.Group, p.Name, p.Value, string(p.Type)})
	}
	return rows
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
