package facts

// FilterTablesByConfigs returns a new Tables object containing only rows that
// belong to a configuration in names.
func FilterTablesByConfigs(tables Tables, names map[string]bool) Tables {
	out := emptyTables()
	if len(names) == 0 {
		return out
	}

	for _, row := range tables.Configurations {
		if names[row.Name] {
			out.Configurations = append(out.Configurations, row)
		}
	}
	for _, row := range tables.InputPages {
		if names[row.Config] {
			out.InputPages = append(out.InputPages, row)
		}
	}
	for _, row := range tables.Modules {
		if names[row.Config] {
			out.Modules = append(out.Modules, row)
		}
	}
	for _, row := range tables.Forms {
		if names[row.Config] {
			out.Forms = append(out.Forms, row)
		}
	}
	for _, row := range tables.EqnVariables {
		if names[row.Config] {
			out.EqnVariables = append(out.EqnVariables, row)
		}
	}
	for _, row := range tables.CallbackMods {
		if names[row.Config] {
			out.CallbackMods = append(out.CallbackMods, row)
		}
	}

	return out
}

// FilterDeltaByConfigs filters both sides of a delta.
func FilterDeltaByConfigs(delta Delta, names map[string]bool) Delta {
	return Delta{
		Added:   FilterTablesByConfigs(delta.Added, names),
		Removed: FilterTablesByConfigs(delta.Removed, names),
	}
}
