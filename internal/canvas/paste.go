package canvas

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PlainText reduces a clipboard fragment to plain text lines. HTML fragments
// lose their markup; block elements become line breaks and list entries
// become "- " bullets so they can turn a text box into a list. Anything that
// does not look like HTML is returned with normalised line endings.
func PlainText(fragment string) string {
	fragment = strings.ReplaceAll(fragment, "\r\n", "\n")
	if !strings.Contains(fragment, "<") {
		return fragment
	}

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	newline := func() {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
	}
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; keep what was read so far.
			return strings.TrimSpace(sb.String())
		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := collapseSpace(string(z.Text()))
			if out := sb.String(); out == "" || strings.HasSuffix(out, "\n") || strings.HasSuffix(out, " ") {
				text = strings.TrimLeft(text, " ")
			}
			sb.WriteString(text)
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style, atom.Head:
				skip++
			case atom.Br:
				sb.WriteByte('\n')
			case atom.Li:
				newline()
				sb.WriteString("- ")
			case atom.P, atom.Div, atom.Tr, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				newline()
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style, atom.Head:
				if skip > 0 {
					skip--
				}
			case atom.P, atom.Div, atom.Li, atom.Tr:
				newline()
			}
		}
	}
}

// collapseSpace folds whitespace runs into single spaces, keeping one space
// at either end when the input had any there.
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			return " "
		}
		return ""
	}
	out := strings.Join(fields, " ")
	if strings.TrimLeftFunc(s, unicode.IsSpace) != s {
		out = " " + out
	}
	if strings.TrimRightFunc(s, unicode.IsSpace) != s {
		out += " "
	}
	return out
}
