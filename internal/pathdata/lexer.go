package pathdata

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// pathLexer tokenizes SVG path data. Commas count as whitespace, per the
// attribute grammar, so "100,0" and "100 0" lex identically.
var pathLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[\s,]+`},

	// Absolute commands only. The geometry engine never emits relative or
	// curve commands, so anything else is a parse error by construction.
	{Name: "MoveTo", Pattern: `M`},
	{Name: "LineTo", Pattern: `L`},
	{Name: "ArcTo", Pattern: `A`},
	{Name: "ClosePath", Pattern: `Z`},

	{Name: "Number", Pattern: `[-+]?(?:[0-9]*\.)?[0-9]+(?:[eE][-+]?[0-9]+)?`},
})
