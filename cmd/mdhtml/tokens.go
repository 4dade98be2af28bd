package main

import (
	jsoniter "github.com/json-iterator/go"

	"pkt.systems/mdhtml"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// tokenTree converts tokens into JSON values carrying their type tag.
func tokenTree(tokens []mdhtml.Token) ([]any, error) {
	out := make([]any, 0, len(tokens))
	for _, tok := range tokens {
		node, err := tokenNode(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}

func tokenNode(tok mdhtml.Token) (map[string]any, error) {
	raw, err := json.Marshal(tok)
	if err != nil {
		return nil, err
	}
	node := map[string]any{}
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, err
	}
	node["type"] = string(tok.Type())

	set := func(key string, tokens []mdhtml.Token) error {
		if tokens == nil {
			return nil
		}
		tree, err := tokenTree(tokens)
		if err != nil {
			return err
		}
		node[key] = tree
		return nil
	}
	switch t := tok.(type) {
	case *mdhtml.List:
		items := make([]mdhtml.Token, len(t.Items))
		for i, item := range t.Items {
			items[i] = item
		}
		return node, set("items", items)
	case *mdhtml.Table:
		if err := set("header", cellTokens(t.Header)); err != nil {
			return nil, err
		}
		rows := make([]any, len(t.Rows))
		for i, row := range t.Rows {
			if rows[i], err = tokenTree(cellTokens(row)); err != nil {
				return nil, err
			}
		}
		node["rows"] = rows
		return node, nil
	case *mdhtml.Custom:
		for name, children := range t.Children {
			tree, err := tokenTree(children)
			if err != nil {
				return nil, err
			}
			node["children"].(map[string]any)[name] = tree
		}
	}
	return node, set("tokens", children(tok))
}

func cellTokens(cells []*mdhtml.TableCell) []mdhtml.Token {
	out := make([]mdhtml.Token, len(cells))
	for i, cell := range cells {
		out[i] = cell
	}
	return out
}

func children(tok mdhtml.Token) []mdhtml.Token {
	switch t := tok.(type) {
	case *mdhtml.Heading:
		return t.Tokens
	case *mdhtml.Blockquote:
		return t.Tokens
	case *mdhtml.ListItem:
		return t.Tokens
	case *mdhtml.TableCell:
		return t.Tokens
	case *mdhtml.Paragraph:
		return t.Tokens
	case *mdhtml.Text:
		return t.Tokens
	case *mdhtml.Link:
		return t.Tokens
	case *mdhtml.Image:
		return t.Tokens
	case *mdhtml.Strong:
		return t.Tokens
	case *mdhtml.Em:
		return t.Tokens
	case *mdhtml.Del:
		return t.Tokens
	case *mdhtml.Custom:
		return t.Tokens
	}
	return nil
}
