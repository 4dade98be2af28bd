package mdhtml

import "context"

// walk calls fn on each token before descending into it.
func (c *config) walk(ctx context.Context, tokens []Token, fn WalkFunc) error {
	for _, tok := range tokens {
		if err := fn(ctx, tok); err != nil {
			return err
		}
		if err := c.descend(ctx, tok, fn); err != nil {
			return err
		}
	}
	return nil
}

func (c *config) descend(ctx context.Context, tok Token, fn WalkFunc) error {
	switch t := tok.(type) {
	case *Table:
		for _, cell := range t.Header {
			if err := c.walk(ctx, cell.Tokens, fn); err != nil {
				return err
			}
		}
		for _, row := range t.Rows {
			for _, cell := range row {
				if err := c.walk(ctx, cell.Tokens, fn); err != nil {
					return err
				}
			}
		}
		return nil
	case *List:
		for _, item := range t.Items {
			if err := c.walk(ctx, []Token{item}, fn); err != nil {
				return err
			}
		}
		return nil
	}
	if names, ok := c.reg.childTokens[string(tok.Type())]; ok {
		for _, name := range names {
			if err := c.walk(ctx, namedChildren(tok, name), fn); err != nil {
				return err
			}
		}
		return nil
	}
	if children, ok := childTokens(tok); ok {
		return c.walk(ctx, children, fn)
	}
	return nil
}

// namedChildren resolves a child list name registered by an extension rule.
func namedChildren(tok Token, name string) []Token {
	if c, ok := tok.(*Custom); ok {
		if name == "tokens" {
			return c.Tokens
		}
		return c.Children[name]
	}
	if name == "tokens" {
		children, _ := childTokens(tok)
		return children
	}
	return nil
}

// visit runs every registered walker on tok, newest first.
func (c *config) visit(ctx context.Context, tok Token) error {
	for _, fn := range c.reg.walkers {
		if err := fn(ctx, tok); err != nil {
			return err
		}
	}
	return nil
}

// walkAsync visits tokens in the same order as walk, one at a time, and
// stops early once ctx is done.
func (c *config) walkAsync(ctx context.Context, tokens []Token) error {
	return c.walk(ctx, tokens, func(ctx context.Context, tok Token) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return c.visit(ctx, tok)
	})
}
