package startup

import (
	"github.com/robert-at-pretension-io/export-config/internal/script"
)

type handlerFunc func(e *Extractor, st script.Statement, args []script.Value)

// handlers maps the recognized startup calls to their semantics.
var handlers = map[string]handlerFunc{
	"addconfig":  (*Extractor).addConfig,
	"setconfig":  (*Extractor).setConfig,
	"addpage":    (*Extractor).addPage,
	"setmodules": (*Extractor).setModules,
	"configopt":  func(*Extractor, script.Statement, []script.Value) {},
}

func (e *Extractor) handle(st script.Statement) {
	if isFunctionDefinition(st) {
		return
	}
	name, ok := st.Call()
	if !ok {
		e.errorf(st, "unrecognized statement")
		return
	}
	h, ok := handlers[name]
	if !ok {
		e.errorf(st, "unrecognized call %s", name)
		return
	}
	args, err := script.ParseArgs(st)
	if err != nil {
		e.errorf(st, "malformed %s: %v", name, err)
		return
	}
	h(e, st, args)
}

func isFunctionDefinition(st script.Statement) bool {
	toks := st.Tokens
	return len(toks) >= 2 && toks[0].Is("function") && toks[1].Kind == script.Ident && toks[len(toks)-1].Is("}")
}

// addconfig(tech [, [fin, ...]])
func (e *Extractor) addConfig(st script.Statement, args []script.Value) {
	if len(args) == 0 || args[0].Kind != script.StringValue || args[0].Text == "" {
		e.errorf(st, "addconfig expects a technology name")
		return
	}
	tech := args[0].Text
	var fins []string
	if len(args) > 1 {
		if args[1].Kind != script.ListValue && args[1].Kind != script.StringValue {
			e.errorf(st, "addconfig expects a list of financing names")
			return
		}
		fins = args[1].Strings()
	}
	if len(fins) == 0 {
		e.declare(tech, "")
		return
	}
	for _, fin := range fins {
		e.declare(tech, fin)
	}
}

// setconfig(tech [, fin])
func (e *Extractor) setConfig(st script.Statement, args []script.Value) {
	if len(args) == 0 || len(args) > 2 || args[0].Kind != script.StringValue || args[0].Text == "" {
		e.errorf(st, "setconfig expects a technology and optional financing name")
		return
	}
	tech := args[0].Text
	fin := ""
	if len(args) == 2 {
		if args[1].Kind != script.StringValue {
			e.errorf(st, "setconfig financing name must be a string")
			return
		}
		fin = args[1].Text
	}
	if _, ok := e.byName[ConfigName(tech, fin)]; !ok {
		e.errorf(st, "setconfig selects undeclared configuration %q", ConfigName(tech, fin))
	}
	e.current = e.declare(tech, fin)
}

// addpage(forms [, props])
func (e *Extractor) addPage(st script.Statement, args []script.Value) {
	if e.current == nil {
		e.errorf(st, "addpage outside of a configuration")
		return
	}
	if len(args) == 0 || len(args) > 2 {
		e.errorf(st, "addpage expects a form list and optional properties")
		return
	}
	if args[0].Kind != script.ListValue && args[0].Kind != script.StringValue {
		e.errorf(st, "addpage form list must be a string or list")
		return
	}
	page := Page{
		CommonForms:    appendUnique([]string{}, args[0].Strings()...),
		ExclusiveForms: []string{},
		Line:           st.Line(),
	}
	if len(args) == 2 {
		props := args[1]
		if props.Kind != script.TableValue {
			e.errorf(st, "addpage properties must be a table")
			return
		}
		if v, ok := props.Lookup("sidebar"); ok {
			page.Title = v.Text
		}
		if v, ok := props.Lookup("exclusive_uiforms"); ok {
			page.ExclusiveForms = appendUnique(page.ExclusiveForms, v.Strings()...)
		}
		if v, ok := props.Lookup("exclusive_var"); ok {
			page.ExclusiveVar = v.Text
		}
		if v, ok := props.Lookup("hidden"); ok {
			page.Hidden = v.Bool()
		}
	}
	if page.Title == "" {
		forms := page.Forms()
		if len(forms) == 0 {
			e.errorf(st, "addpage without forms or sidebar title")
			return
		}
		page.Title = forms[0]
	}
	e.current.Pages = append(e.current.Pages, page)
}

// setmodules([mod, ...])
func (e *Extractor) setModules(st script.Statement, args []script.Value) {
	if e.current == nil {
		e.errorf(st, "setmodules outside of a configuration")
		return
	}
	if len(args) != 1 || (args[0].Kind != script.ListValue && args[0].Kind != script.StringValue) {
		e.errorf(st, "setmodules expects a list of module names")
		return
	}
	e.current.Modules = appendUnique(e.current.Modules, args[0].Strings()...)
}
