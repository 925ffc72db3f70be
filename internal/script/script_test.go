package script

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func texts(toks []Token) []string {
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Text)
	}
	return out
}

func TestTokenizeSkipsCommentsAndTracksLines(t *testing.T) {
	src := "// header\nA = 1; /* block\ncomment */ B += 'x\\'y';\n"
	toks, errs := Tokenize(src)
	require.Empty(t, errs)
	require.Equal(t, []string{"A", "=", "1", ";", "B", "+=", "x'y", ";"}, texts(toks))
	require.Equal(t, 2, toks[0].Line)
	require.Equal(t, 3, toks[4].Line)
	require.Equal(t, String, toks[6].Kind)
}

func TestTokenizeReportsUnterminatedInput(t *testing.T) {
	_, errs := Tokenize("x = 'abc")
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Error(), "unterminated string")

	_, errs = Tokenize("x = 1; /* never closed")
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Error(), "unterminated block comment")
}

func TestTokenizeNumbersAndPunctuation(t *testing.T) {
	toks, errs := Tokenize("a=>1.5e3 == .25 && b")
	require.Empty(t, errs)
	require.Equal(t, []string{"a", "=>", "1.5e3", "==", ".25", "&&", "b"}, texts(toks))
	require.Equal(t, Number, toks[2].Kind)
	require.Equal(t, Number, toks[4].Kind)
}

func TestStatementsSplitOnTopLevelTerminators(t *testing.T) {
	toks, _ := Tokenize(`
f = define() { a = 1; b = 2; };
function g(x) { return x; }
if (c) { d = 1; } else { d = 2; }
tail = 3`)
	stmts := Statements(toks)
	require.Len(t, stmts, 4)
	require.Equal(t, "f", stmts[0].Tokens[0].Text)
	require.Equal(t, "function", stmts[1].Tokens[0].Text)
	require.Equal(t, "if", stmts[2].Tokens[0].Text)
	require.Equal(t, "tail", stmts[3].Tokens[0].Text)
	require.True(t, stmts[2].Terminated)
	require.False(t, stmts[3].Terminated)
	require.Equal(t, 2, stmts[0].Line())
}

func TestParseArgsListsAndTables(t *testing.T) {
	toks, errs := Tokenize(`addpage([['A', 'B'], ['C']], {'sidebar' = 'Main', 'hidden' => true, help: 'x', 'n' = -2,});`)
	require.Empty(t, errs)
	stmts := Statements(toks)
	require.Len(t, stmts, 1)

	name, ok := stmts[0].Call()
	require.True(t, ok)
	require.Equal(t, "addpage", name)

	args, err := ParseArgs(stmts[0])
	require.NoError(t, err)
	require.Len(t, args, 2)
	require.Equal(t, []string{"A", "B", "C"}, args[0].Strings())

	sidebar, ok := args[1].Lookup("sidebar")
	require.True(t, ok)
	require.Equal(t, "Main", sidebar.Text)

	hidden, ok := args[1].Lookup("hidden")
	require.True(t, ok)
	require.True(t, hidden.Bool())

	n, ok := args[1].Lookup("n")
	require.True(t, ok)
	require.Equal(t, "-2", n.Text)

	_, ok = args[1].Lookup("missing")
	require.False(t, ok)
}

func TestParseArgsRejectsMalformedCalls(t *testing.T) {
	for _, src := range []string{
		"setmodules(['a' 'b']);",
		"addpage({'sidebar' 'x'});",
		"setconfig('a') extra;",
		"setconfig('a', );",
	} {
		toks, _ := Tokenize(src)
		stmts := Statements(toks)
		require.Len(t, stmts, 1, src)
		_, err := ParseArgs(stmts[0])
		require.Error(t, err, src)
	}
}

func TestStatementsCloseBlocksWithoutTerminator(t *testing.T) {
	toks, _ := Tokenize("x = 1;\n{ y = 2; }\nz = 3;\nf = define() { return 1; }\ng = 4;\nh = { 'a' = 1 }.a;")
	stmts := Statements(toks)
	var firsts []string
	for _, st := range stmts {
		firsts = append(firsts, st.Tokens[0].Text)
	}
	require.Equal(t, []string{"x", "{", "z", "f", "g", "h"}, firsts)
	require.Equal(t, 4, stmts[3].Line())
}
