package dataapi

import (
	"database/sql/driver"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
)

type placeholderStyle int

const (
	styleNone placeholderStyle = iota
	// ?
	stylePositional
	// $1, $2, ...
	styleOrdinal
	// :name
	styleNamed
)

func (s placeholderStyle) String() string {
	switch s {
	case stylePositional:
		return "?"
	case styleOrdinal:
		return "$N"
	case styleNamed:
		return ":name"
	default:
		return "none"
	}
}

// statement is a query rewritten into the Data API's :name form.
type statement struct {
	sql   string
	style placeholderStyle
	// For stylePositional the number of ?, for styleOrdinal the highest $N.
	numInput int
	// Distinct ordinals seen, for styleOrdinal.
	ordinals map[int]struct{}
	// Distinct names in order of first appearance, for styleNamed.
	names []string
	// Contains a $$ or $tag$ quoted body.
	dollarQuoted bool
}

func ordinalName(ordinal int) string {
	return "parameter_" + strconv.Itoa(ordinal-1)
}

func isIdentStart(c byte) bool {
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

// parseStatement finds the placeholders in query. String literals, quoted
// identifiers, comments and :: casts are copied through untouched.
//
// $N placeholders or $$ quoting mean PostgreSQL, where backslashes are
// literal. Otherwise quoting follows MySQL, where a backslash escapes the next
// character.
func parseStatement(query string) (*statement, error) {
	if strings.TrimSpace(query) == "" {
		return nil, configErrorf("statement", "empty query")
	}
	st, err := scanStatement(query, false)
	if err == nil && (st.style == styleOrdinal || st.dollarQuoted) {
		return st, nil
	}
	return scanStatement(query, true)
}

func scanStatement(query string, backslashEscapes bool) (*statement, error) {
	st := &statement{}
	setStyle := func(s placeholderStyle) error {
		if st.style != styleNone && st.style != s {
			return configErrorf("statement", "mixes %s and %s placeholders", st.style, s)
		}
		st.style = s
		return nil
	}
	seenNames := make(map[string]struct{})
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); {
		c := query[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			end := skipQuoted(query, i, backslashEscapes)
			b.WriteString(query[i:end])
			i = end
		case c == '$' && !backslashEscapes && dollarTag(query, i) != "":
			tag := dollarTag(query, i)
			st.dollarQuoted = true
			end := strings.Index(query[i+len(tag):], tag)
			if end < 0 {
				end = len(query)
			} else {
				end += i + 2*len(tag)
			}
			b.WriteString(query[i:end])
			i = end
		case c == '-' && strings.HasPrefix(query[i:], "--"):
			end := strings.IndexByte(query[i:], '\n')
			if end < 0 {
				end = len(query)
			} else {
				end += i + 1
			}
			b.WriteString(query[i:end])
			i = end
		case c == '/' && strings.HasPrefix(query[i:], "/*"):
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				end = len(query)
			} else {
				end += i + 4
			}
			b.WriteString(query[i:end])
			i = end
		case c == '?':
			if err := setStyle(stylePositional); err != nil {
				return nil, err
			}
			st.numInput++
			b.WriteByte(':')
			b.WriteString(ordinalName(st.numInput))
			i++
		case c == '$' && i+1 < len(query) && isDigit(query[i+1]):
			if err := setStyle(styleOrdinal); err != nil {
				return nil, err
			}
			end := i + 1
			for end < len(query) && isDigit(query[end]) {
				end++
			}
			n, err := strconv.Atoi(query[i+1 : end])
			if err != nil || n < 1 {
				return nil, configErrorf("statement", "bad placeholder %q", query[i:end])
			}
			if st.ordinals == nil {
				st.ordinals = make(map[int]struct{})
			}
			st.ordinals[n] = struct{}{}
			if n > st.numInput {
				st.numInput = n
			}
			b.WriteByte(':')
			b.WriteString(ordinalName(n))
			i = end
		case c == ':' && i+1 < len(query) && query[i+1] == ':':
			b.WriteString("::")
			i += 2
		case c == ':' && i+1 < len(query) && isIdentStart(query[i+1]) && (i == 0 || !isIdentChar(query[i-1])):
			if err := setStyle(styleNamed); err != nil {
				return nil, err
			}
			end := i + 1
			for end < len(query) && isIdentChar(query[end]) {
				end++
			}
			name := query[i+1 : end]
			if _, ok := seenNames[name]; !ok {
				seenNames[name] = struct{}{}
				st.names = append(st.names, name)
			}
			b.WriteString(query[i:end])
			i = end
		default:
			b.WriteByte(c)
			i++
		}
	}
	st.sql = b.String()
	return st, nil
}

// skipQuoted returns the index just past the quoted section starting at
// start. Doubled quotes, and backslash escapes if enabled, stay inside the
// section.
func skipQuoted(query string, start int, backslashEscapes bool) int {
	quote := query[start]
	for i := start + 1; i < len(query); i++ {
		switch query[i] {
		case '\\':
			if backslashEscapes && quote != '`' {
				i++
			}
		case quote:
			if i+1 < len(query) && query[i+1] == quote {
				i++
				continue
			}
			return i + 1
		}
	}
	return len(query)
}

// dollarTag returns the opening $tag$ of a dollar-quoted string at start, or
// "".
func dollarTag(query string, start int) string {
	if start > 0 && isIdentChar(query[start-1]) {
		return ""
	}
	i := start + 1
	if i < len(query) && isIdentStart(query[i]) {
		for i < len(query) && isIdentChar(query[i]) {
			i++
		}
	}
	if i >= len(query) || query[i] != '$' {
		return ""
	}
	return query[start : i+1]
}

// bind checks args against the statement's placeholders and converts them
// to Data API parameters. Nothing is sent when this fails.
func (st *statement) bind(args []driver.NamedValue) (params []types.SqlParameter, err error) {
	switch st.style {
	case styleNone:
		if len(args) != 0 {
			err = configErrorf("bindings", "statement has no placeholders but %d arguments were given", len(args))
		}
		return
	case stylePositional, styleOrdinal:
		if st.style == styleOrdinal && len(st.ordinals) != st.numInput {
			err = configErrorf("statement", "placeholders $1 to $%d are not all used", st.numInput)
			return
		}
		if len(args) != st.numInput {
			err = configErrorf("bindings", "statement expects %d arguments, got %d", st.numInput, len(args))
			return
		}
		params = make([]types.SqlParameter, 0, len(args))
		for i, arg := range args {
			if arg.Name != "" {
				err = configErrorf("bindings", "named argument %q given for %s placeholders", arg.Name, st.style)
				return
			}
			var p types.SqlParameter
			p, err = sqlParameter(ordinalName(i+1), arg.Value)
			if err != nil {
				return
			}
			params = append(params, p)
		}
		return
	case styleNamed:
		byName := make(map[string]driver.Value, len(args))
		for _, arg := range args {
			if arg.Name == "" {
				err = configErrorf("bindings", "positional argument %d given for :name placeholders", arg.Ordinal)
				return
			}
			if _, ok := byName[arg.Name]; ok {
				err = configErrorf("bindings", "argument %q given twice", arg.Name)
				return
			}
			byName[arg.Name] = arg.Value
		}
		for _, name := range st.names {
			if _, ok := byName[name]; !ok {
				err = configErrorf("bindings", "no argument for :%s", name)
				return
			}
		}
		if len(byName) != len(st.names) {
			err = configErrorf("bindings", "statement expects %d arguments, got %d", len(st.names), len(byName))
			return
		}
		params = make([]types.SqlParameter, 0, len(st.names))
		for _, name := range st.names {
			var p types.SqlParameter
			p, err = sqlParameter(name, byName[name])
			if err != nil {
				params = nil
				return
			}
			params = append(params, p)
		}
		return
	}
	panic(st.style)
}

func sqlParameter(name string, v driver.Value) (p types.SqlParameter, err error) {
	p.Name = aws.String(name)
	p.Value, p.TypeHint, err = toField(v)
	if err != nil {
		err = configErrorf("bindings", "argument %q: %v", name, err)
	}
	return
}

// Named arguments given as a map, eg. the dict style `{"a": 1}`, in a stable
// order.
func mapNamedValues(m map[string]interface{}) (ret []driver.NamedValue, err error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		var v driver.Value
		v, err = convertValue(m[k])
		if err != nil {
			err = configErrorf("bindings", "argument %q: %v", k, err)
			return
		}
		ret = append(ret, driver.NamedValue{Name: k, Ordinal: i + 1, Value: v})
	}
	return
}
