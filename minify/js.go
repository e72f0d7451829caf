package minify

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

// JS removes comments and insignificant whitespace from a script. Tokens,
// string, template and regexp literals included, are copied byte for byte.
// A line break is kept where dropping it could change automatic semicolon
// insertion. Scripts that don't parse are returned as an error.
func JS(s string) (string, error) {
	res := api.Transform(s, api.TransformOptions{
		Loader:        api.LoaderJS,
		LegalComments: api.LegalCommentsNone,
	})
	if len(res.Errors) > 0 {
		return "", fmt.Errorf("jsmin: %w", messagesError(res.Errors))
	}

	out, err := stripJS(s)
	if err != nil {
		return "", fmt.Errorf("jsmin: %w", err)
	}
	return out, nil
}

func messagesError(msgs []api.Message) error {
	errs := make([]error, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Location != nil {
			errs = append(errs, fmt.Errorf("%d:%d: %s", msg.Location.Line, msg.Location.Column, msg.Text))
			continue
		}
		errs = append(errs, errors.New(msg.Text))
	}
	return errors.Join(errs...)
}

// keywords after which a slash starts a regexp rather than a division.
var regexpKeywords = map[string]bool{
	"return": true, "typeof": true, "case": true, "do": true, "else": true,
	"in": true, "instanceof": true, "new": true, "delete": true, "void": true,
	"throw": true, "yield": true, "await": true, "of": true,
}

type jsToken struct {
	tt   js.TokenType
	text []byte
}

func stripJS(s string) (string, error) {
	l := js.NewLexer(parse.NewInputString(s))
	var b strings.Builder
	b.Grow(len(s))

	var prev jsToken
	var space, newline bool
	for {
		tt, text := l.Next()
		switch tt {
		case js.ErrorToken:
			if err := l.Err(); err != io.EOF {
				return "", err
			}
			return b.String(), nil
		case js.WhitespaceToken:
			space = true
			continue
		case js.LineTerminatorToken, js.CommentLineTerminatorToken:
			newline = true
			continue
		case js.CommentToken:
			space = true
			continue
		case js.DivToken, js.DivEqToken:
			if slashStartsRegExp(prev) {
				tt, text = l.RegExp()
				if tt == js.ErrorToken {
					return "", l.Err()
				}
			}
		}

		cur := jsToken{tt: tt, text: text}
		if prev.text != nil {
			if newline && keepLineBreak(prev, cur) {
				b.WriteByte('\n')
			} else if (space || newline) && needsSpace(prev, cur) {
				b.WriteByte(' ')
			}
		}
		b.Write(text)
		prev = jsToken{tt: tt, text: append([]byte(nil), text...)}
		space, newline = false, false
	}
}

func slashStartsRegExp(prev jsToken) bool {
	switch {
	case prev.text == nil:
		return true
	case prev.tt == js.CloseParenToken, prev.tt == js.CloseBracketToken, prev.tt == js.CloseBraceToken:
		return false
	case prev.tt == js.IncrToken, prev.tt == js.DecrToken:
		return false
	case js.IsPunctuator(prev.tt):
		return true
	case js.IsIdentifierName(prev.tt):
		return regexpKeywords[string(prev.text)]
	}
	return false
}

// keepLineBreak reports whether a line break between prev and next may be
// significant.
func keepLineBreak(prev, next jsToken) bool {
	switch prev.tt {
	case js.OpenBraceToken, js.OpenParenToken, js.OpenBracketToken, js.CommaToken,
		js.SemicolonToken, js.ColonToken, js.QuestionToken, js.DotToken, js.ArrowToken:
		return false
	case js.IncrToken, js.DecrToken:
	default:
		if js.IsOperator(prev.tt) {
			return false
		}
	}

	switch next.tt {
	case js.CloseBraceToken, js.CloseParenToken, js.CloseBracketToken, js.CommaToken,
		js.SemicolonToken, js.ColonToken, js.QuestionToken, js.DotToken, js.OptChainToken:
		return false
	case js.IncrToken, js.DecrToken, js.NotToken, js.BitNotToken, js.DivToken, js.DivEqToken, js.ArrowToken:
		return true
	}
	return !js.IsOperator(next.tt)
}

// needsSpace reports whether prev and next would lex differently when
// written next to each other.
func needsSpace(prev, next jsToken) bool {
	a, c := prev.text[len(prev.text)-1], next.text[0]
	switch {
	case isWordByte(a) && isWordByte(c):
		return true
	case (a == '+' || a == '-') && c == a:
		return true
	case a == '/' && (c == '/' || c == '*'):
		return true
	case a == '<' && c == '!', a == '-' && c == '>':
		return true
	case js.IsNumeric(prev.tt) && c == '.' && !bytes.ContainsAny(prev.text, ".eExXbBoO"):
		return true
	}
	return false
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c == '\\' || c == '#' || c >= 0x80 ||
		'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}
