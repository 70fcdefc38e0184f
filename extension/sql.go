package extension

import (
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/pgext/pgext-go/abi"
	"github.com/pgext/pgext-go/pgext"
)

// FunctionDecl is a C-language CREATE FUNCTION found in an extension script.
type FunctionDecl struct {
	// SQLName is the function name as written, possibly schema-qualified.
	SQLName string
	// Symbol is the link symbol in the library: the second AS literal, or the
	// SQL name when there is none.
	Symbol    string
	Signature pgext.Signature
}

var createFunction = regexp.MustCompile(`(?is)^create\s+(?:or\s+replace\s+)?function\s+`)

// ParseFunctionDecls returns the C-language functions created by script, in
// script order. Types that have no Kind of their own are carried as
// abi.KindPointer, which passes the raw Datum through untouched.
func ParseFunctionDecls(script string) ([]FunctionDecl, error) {
	var decls []FunctionDecl
	for _, stmt := range splitStatements(script) {
		loc := createFunction.FindStringIndex(stmt)
		if loc == nil {
			continue
		}
		decl, isC, err := parseCreateFunction(stmt[loc[1]:])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid CREATE FUNCTION %q", abbreviate(stmt))
		}
		if isC {
			decls = append(decls, decl)
		}
	}
	return decls, nil
}

// LoadSQLFunctionSignatures parses every script of the extension and returns
// its C functions, one per link symbol, in the order they first appear.
func (f *Files) LoadSQLFunctionSignatures() ([]FunctionDecl, error) {
	var decls []FunctionDecl
	seen := make(map[string]bool)
	for _, path := range f.SQLPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading script of extension %q", f.Name)
		}
		found, err := ParseFunctionDecls(string(data))
		if err != nil {
			return nil, errors.Wrapf(err, "%s", path)
		}
		for _, decl := range found {
			if !seen[decl.Symbol] {
				seen[decl.Symbol] = true
				decls = append(decls, decl)
			}
		}
	}
	return decls, nil
}

// LoadSQLFunctionNames returns the sorted link symbols of every C function the
// extension's scripts declare.
func (f *Files) LoadSQLFunctionNames() ([]string, error) {
	decls, err := f.LoadSQLFunctionSignatures()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(decls))
	for i, decl := range decls {
		names[i] = decl.Symbol
	}
	slices.Sort(names)
	return names, nil
}

func parseCreateFunction(rest string) (FunctionDecl, bool, error) {
	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return FunctionDecl{}, false, errors.New("missing argument list")
	}
	closeIdx := matchingParen(rest, open)
	if closeIdx < 0 {
		return FunctionDecl{}, false, errors.New("unbalanced argument list")
	}
	decl := FunctionDecl{SQLName: strings.TrimSpace(rest[:open])}
	if decl.SQLName == "" {
		return FunctionDecl{}, false, errors.New("missing function name")
	}
	for _, arg := range splitTopLevel(rest[open+1:closeIdx], ',') {
		kind, isInput := argumentKind(arg)
		if isInput {
			decl.Signature.Args = append(decl.Signature.Args, kind)
		}
	}

	toks := tokenize(rest[closeIdx+1:])
	var language string
	var asLiterals []string
	for i := 0; i < len(toks); i++ {
		switch strings.ToLower(toks[i].text) {
		case "returns":
			if matchWords(toks[i+1:], "null", "on", "null", "input") {
				decl.Signature.Strict = true
				i += 4
				continue
			}
			i = parseReturns(toks, i+1, &decl.Signature) - 1
		case "language":
			if i+1 < len(toks) {
				language = strings.ToLower(toks[i+1].text)
				i++
			}
		case "as":
			for j := i + 1; j < len(toks) && toks[j].quoted; j += 2 {
				asLiterals = append(asLiterals, toks[j].text)
				i = j
				if j+1 >= len(toks) || toks[j+1].text != "," {
					break
				}
			}
		case "strict":
			decl.Signature.Strict = true
		case "called":
			if matchWords(toks[i+1:], "on", "null", "input") {
				decl.Signature.Strict = false
				i += 3
			}
		}
	}
	if language != "c" {
		return decl, false, nil
	}
	if len(asLiterals) >= 2 && asLiterals[1] != "" {
		decl.Symbol = asLiterals[1]
	} else {
		decl.Symbol = unqualified(decl.SQLName)
	}
	return decl, true, nil
}

// parseReturns reads the return type starting at toks[i] and returns the
// index of the first token after it.
func parseReturns(toks []token, i int, sig *pgext.Signature) int {
	if i < len(toks) && strings.EqualFold(toks[i].text, "setof") {
		sig.RetSet = true
		i++
	}
	if i < len(toks) && strings.EqualFold(toks[i].text, "table") {
		sig.RetSet = true
		sig.Result = abi.KindPointer
		i++
		if i < len(toks) && toks[i].text == "(" {
			depth := 0
			for ; i < len(toks); i++ {
				switch toks[i].text {
				case "(":
					depth++
				case ")":
					depth--
				}
				if depth == 0 {
					return i + 1
				}
			}
		}
		return i
	}
	var words []string
	for ; i < len(toks); i++ {
		t := toks[i]
		if t.quoted || (!t.punct && functionAttributes[strings.ToLower(t.text)]) {
			break
		}
		words = append(words, t.text)
	}
	sig.Result = kindOrPointer(strings.Join(words, " "))
	return i
}

var functionAttributes = map[string]bool{
	"language": true, "as": true, "strict": true, "called": true, "returns": true,
	"immutable": true, "stable": true, "volatile": true, "parallel": true, "cost": true,
	"rows": true, "security": true, "leakproof": true, "not": true, "window": true,
	"support": true, "set": true, "transform": true, "external": true, "with": true,
}

var argModes = map[string]bool{"in": true, "out": true, "inout": true, "variadic": true}

// argumentKind maps one argument declaration, such as "x double precision
// DEFAULT 0", to a Kind. OUT arguments are not passed in and report false.
func argumentKind(arg string) (abi.Kind, bool) {
	fields := strings.Fields(arg)
	for i, f := range fields {
		if strings.EqualFold(f, "default") || f == "=" {
			fields = fields[:i]
			break
		}
		if before, _, ok := strings.Cut(f, "="); ok && i > 0 {
			fields = append(fields[:i:i], before)
			break
		}
	}
	if len(fields) == 0 {
		return abi.KindPointer, false
	}
	if argModes[strings.ToLower(fields[0])] && len(fields) > 1 {
		if strings.EqualFold(fields[0], "out") {
			return 0, false
		}
		fields = fields[1:]
	}
	if k, ok := abi.ParseKind(strings.Join(fields, " ")); ok {
		return k, true
	}
	if len(fields) > 1 {
		if k, ok := abi.ParseKind(strings.Join(fields[1:], " ")); ok {
			return k, true
		}
	}
	return abi.KindPointer, true
}

func kindOrPointer(typeName string) abi.Kind {
	if k, ok := abi.ParseKind(typeName); ok {
		return k
	}
	return abi.KindPointer
}

func unqualified(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.Trim(name, `"`)
}

func abbreviate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 80 {
		return s[:77] + "..."
	}
	return s
}
