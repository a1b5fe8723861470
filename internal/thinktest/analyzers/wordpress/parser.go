package wordpress

import (
	"fmt"
	"strings"

	"github.com/VKCOM/php-parser/pkg/ast"
	"github.com/VKCOM/php-parser/pkg/conf"
	"github.com/VKCOM/php-parser/pkg/errors"
	"github.com/VKCOM/php-parser/pkg/parser"
	"github.com/VKCOM/php-parser/pkg/version"
)

// DefaultPHPVersion is the grammar version used when none is configured
const DefaultPHPVersion = "8.0"

// ParseError reports PHP source the AST parser could not accept.
// Line is 0 when the parser gave no position.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("php syntax error on line %d: %s", e.Line, e.Msg)
	}
	return "php syntax error: " + e.Msg
}

// ParseVersion converts "major.minor" into a parser version and rejects
// versions the grammar does not support (5.0-5.6, 7.0-7.4, 8.0-8.1).
func ParseVersion(v string) (*version.Version, error) {
	ver, err := version.New(strings.TrimSpace(v))
	if err != nil {
		return nil, fmt.Errorf("invalid php version %q: %w", v, err)
	}
	if err := ver.Validate(); err != nil {
		return nil, fmt.Errorf("php version %q: %w", v, err)
	}
	return ver, nil
}

// Parse parses PHP source into an AST.
// Any syntax error reported by the parser turns into a *ParseError, even
// though the parser itself recovers and builds a partial tree.
func Parse(src []byte, phpVersion *version.Version) (root ast.Vertex, err error) {
	if phpVersion == nil {
		phpVersion = &version.Version{Major: 8, Minor: 0}
	}

	defer func() {
		if r := recover(); r != nil {
			root = nil
			err = &ParseError{Msg: fmt.Sprintf("parser panic: %v", r)}
		}
	}()

	var parserErrors []*errors.Error
	rootNode, err := parser.Parse(src, conf.Config{
		Version: phpVersion,
		ErrorHandlerFunc: func(e *errors.Error) {
			parserErrors = append(parserErrors, e)
		},
	})
	if err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}

	if len(parserErrors) > 0 {
		first := parserErrors[0]
		pe := &ParseError{Msg: first.Msg}
		if first.Pos != nil {
			pe.Line = first.Pos.StartLine
		}
		return nil, pe
	}

	if rootNode == nil {
		return nil, &ParseError{Msg: "empty syntax tree"}
	}

	return rootNode, nil
}
