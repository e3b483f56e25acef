// Package markdown converts page bodies to HTML.
package markdown

import (
	"bytes"
	"log/slog"

	"git.home.luguber.info/inful/lava/internal/logfields"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Converter turns Markdown text into HTML. Implementations must be pure and
// must not fail; conversion problems degrade to partial output.
type Converter interface {
	ToHTML(text string) string
}

// Options controls the goldmark pipeline.
type Options struct {
	GFM       bool // tables, strikethrough, autolinks, task lists
	HardWraps bool // render soft line breaks as <br>
	Unsafe    bool // pass raw HTML in the body through unchanged
}

// Goldmark is the goldmark-backed Converter.
type Goldmark struct {
	md goldmark.Markdown
}

// New builds a Goldmark converter for opts.
func New(opts Options) *Goldmark {
	var exts []goldmark.Extender
	if opts.GFM {
		exts = append(exts, extension.GFM)
	}
	var rendererOpts []goldmark.Option
	var htmlOpts []renderer.Option
	if opts.HardWraps {
		htmlOpts = append(htmlOpts, gmhtml.WithHardWraps())
	}
	if opts.Unsafe {
		htmlOpts = append(htmlOpts, gmhtml.WithUnsafe())
	}
	if len(htmlOpts) > 0 {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(htmlOpts...))
	}

	md := goldmark.New(append([]goldmark.Option{
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}, rendererOpts...)...)
	return &Goldmark{md: md}
}

// ToHTML renders text. Goldmark only fails on writer errors, which a
// bytes.Buffer never produces; any error is logged and the partial output kept.
func (g *Goldmark) ToHTML(text string) string {
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(text), &buf); err != nil {
		slog.Warn("Markdown conversion incomplete", logfields.Error(err))
	}
	return buf.String()
}

// ConverterFunc adapts a plain function to Converter.
type ConverterFunc func(text string) string

// ToHTML calls f(text).
func (f ConverterFunc) ToHTML(text string) string { return f(text) }
