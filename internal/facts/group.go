package facts

// Grouped is the nested, configuration-keyed view of Tables used for
// emission. Configs and Forms carry the key order.
type Grouped struct {
	Configs      []string
	InputPages   map[string][]InputPageRow
	Modules      map[string][]string
	Forms        map[string][]string
	EqnVariables map[string]map[string][]string
	CallbackMods map[string]map[string][]string
}

// Group nests the flat relations by configuration and form. Every
// configuration gets an entry in each map, and every analyzed form gets an
// entry in both script maps, even when the list is empty.
func Group(t Tables) Grouped {
	g := Grouped{
		InputPages:   make(map[string][]InputPageRow),
		Modules:      make(map[string][]string),
		Forms:        make(map[string][]string),
		EqnVariables: make(map[string]map[string][]string),
		CallbackMods: make(map[string]map[string][]string),
	}

	for _, row := range t.Configurations {
		if _, ok := g.Modules[row.Name]; ok {
			continue
		}
		g.Configs = append(g.Configs, row.Name)
		g.InputPages[row.Name] = []InputPageRow{}
		g.Modules[row.Name] = []string{}
		g.Forms[row.Name] = []string{}
		g.EqnVariables[row.Name] = make(map[string][]string)
		g.CallbackMods[row.Name] = make(map[string][]string)
	}

	for _, row := range t.InputPages {
		if _, ok := g.InputPages[row.Config]; ok {
			g.InputPages[row.Config] = append(g.InputPages[row.Config], row)
		}
	}
	for _, row := range t.Modules {
		if _, ok := g.Modules[row.Config]; ok {
			g.Modules[row.Config] = append(g.Modules[row.Config], row.Module)
		}
	}
	for _, row := range t.Forms {
		if _, ok := g.Forms[row.Config]; !ok {
			continue
		}
		if _, seen := g.EqnVariables[row.Config][row.Form]; seen {
			continue
		}
		g.Forms[row.Config] = append(g.Forms[row.Config], row.Form)
		g.EqnVariables[row.Config][row.Form] = []string{}
		g.CallbackMods[row.Config][row.Form] = []string{}
	}
	for _, row := range t.EqnVariables {
		if forms, ok := g.EqnVariables[row.Config]; ok {
			if _, known := forms[row.Form]; known {
				forms[row.Form] = append(forms[row.Form], row.Variable)
			}
		}
	}
	for _, row := range t.CallbackMods {
		if forms, ok := g.CallbackMods[row.Config]; ok {
			if _, known := forms[row.Form]; known {
				forms[row.Form] = append(forms[row.Form], row.Module)
			}
		}
	}

	return g
}
