package mdhtml

import "strings"

// PlainText renders inline tokens with all markup removed. Emphasis and link
// text are flattened, line breaks vanish and entities stay as written. Image
// alt text and heading anchors are both built from it.
func PlainText(tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(plainText(tok))
	}
	return b.String()
}

// plainText renders one inline token without markup.
func plainText(tok Token) string {
	switch t := tok.(type) {
	case *Br:
		return ""
	case *Checkbox:
		return t.Raw
	case *Text:
		if t.Tokens != nil {
			return PlainText(t.Tokens)
		}
	case *Strong:
		return nestedText(t.Tokens, t.Text)
	case *Em:
		return nestedText(t.Tokens, t.Text)
	case *Del:
		return nestedText(t.Tokens, t.Text)
	case *Link:
		return nestedText(t.Tokens, t.Text)
	case *Custom:
		return nestedText(t.Tokens, t.Text)
	}
	return tokenText(tok)
}

func nestedText(tokens []Token, text string) string {
	if tokens == nil {
		return text
	}
	return PlainText(tokens)
}
