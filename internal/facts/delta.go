package facts

import (
	"strconv"
	"strings"
)

// Delta captures added and removed fact rows between two snapshots.
type Delta struct {
	Added   Tables `json:"added"`
	Removed Tables `json:"removed"`
}

// ComputeDelta computes row-level additions and removals between two snapshots.
func ComputeDelta(prev, next Tables) Delta {
	return Delta{
		Added:   diffTables(prev, next),
		Removed: diffTables(next, prev),
	}
}

// Empty reports whether the delta holds no rows.
func (d Delta) Empty() bool {
	return d.Added.Len() == 0 && d.Removed.Len() == 0
}

func diffTables(from, to Tables) Tables {
	out := emptyTables()

	out.Configurations = diffRows(from.Configurations, to.Configurations, func(r ConfigurationRow) string {
		return r.Name
	})
	out.InputPages = diffRows(from.InputPages, to.InputPages, func(r InputPageRow) string {
		return r.Config + "|" + strconv.Itoa(r.Index) + "|" + r.Sidebar + "|" +
			listKey(r.CommonUIForms) + "|" + listKey(r.ExclusiveUIForms) + "|" + r.ExclusiveVar
	})
	out.Modules = diffRows(from.Modules, to.Modules, func(r ModuleRow) string {
		return r.Config + "|" + r.Module
	})
	out.Forms = diffRows(from.Forms, to.Forms, func(r FormRow) string {
		return r.Config + "|" + r.Form
	})
	out.EqnVariables = diffRows(from.EqnVariables, to.EqnVariables, func(r EqnVariableRow) string {
		return r.Config + "|" + r.Form + "|" + r.Variable
	})
	out.CallbackMods = diffRows(from.CallbackMods, to.CallbackMods, func(r CallbackModRow) string {
		return r.Config + "|" + r.Form + "|" + r.Module
	})

	return out
}

func emptyTables() Tables {
	return Tables{
		Configurations: []ConfigurationRow{},
		InputPages:     []InputPageRow{},
		Modules:        []ModuleRow{},
		Forms:          []FormRow{},
		EqnVariables:   []EqnVariableRow{},
		CallbackMods:   []CallbackModRow{},
	}
}

// Len returns the total number of rows.
func (t Tables) Len() int {
	return len(t.Configurations) + len(t.InputPages) + len(t.Modules) +
		len(t.Forms) + len(t.EqnVariables) + len(t.CallbackMods)
}

func diffRows[T any](from, to []T, key func(T) string) []T {
	fromSet := make(map[string]struct{}, len(from))
	for _, row := range from {
		fromSet[key(row)] = struct{}{}
	}
	var diff []T
	for _, row := range to {
		if _, ok := fromSet[key(row)]; !ok {
			diff = append(diff, row)
		}
	}
	if diff == nil {
		diff = []T{}
	}
	return diff
}

func listKey(items []string) string {
	return strings.Join(items, "\x1f")
}
