// Package mdhtml compiles Markdown to HTML.
//
// Compilation runs in two phases. The lexer turns source text into a token
// tree (block tokens first, then the queued inline content of every block),
// and the parser renders the tree to HTML. Between and around the phases an
// Engine runs the hooks and token walkers registered with Use, which is how
// custom syntax, renderer overrides and post-processing are plugged in.
//
// Core properties:
//   - GitHub flavored Markdown by default, with breaks and pedantic modes
//   - Extensions add block or inline rules, override built-in tokenizers and
//     renderers, and hook every pipeline stage
//   - Engines are safe for concurrent use; configuration is copy-on-write
//   - Silent mode renders failures as an HTML error fragment and logs them
//
// Example:
//
//	html, err := mdhtml.Parse(ctx, "# Hello\n\nMarkdown in, *HTML* out.\n")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Print(html)
//
// Streams are rendered with Render, remote documents with HTTPRender.
package mdhtml
