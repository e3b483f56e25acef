// Package page loads content pages: front matter, Markdown body and the
// template they render into.
package page

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/lava/internal/frontmatter"
	"git.home.luguber.info/inful/lava/internal/markdown"
	serrors "git.home.luguber.info/inful/lava/internal/site/errors"
	"github.com/inful/mdfp"
)

const (
	// KeyContent holds the rendered Markdown body. It is always present and
	// always overrides a front-matter key of the same name.
	KeyContent = "content"
	// KeyTemplate names the template a page renders into.
	KeyTemplate = "template"
)

// Page is a parsed content page.
type Page struct {
	SourcePath   string
	TemplateName string
	Metadata     map[string]string
	Fingerprint  string
}

// Load reads and parses the page at path.
func Load(path string, conv markdown.Converter) (*Page, error) {
	// #nosec G304 -- pages are discovered by walking the configured pages directory
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, serrors.NewIOFailure("read page", path, err)
	}
	return Parse(path, content, conv)
}

// Parse builds a Page from raw file content.
func Parse(path string, content []byte, conv markdown.Converter) (*Page, error) {
	block, body, err := frontmatter.Split(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	metadata := frontmatter.ParseFields(block)
	// The rendered body wins over an explicit `content` key.
	metadata[KeyContent] = conv.ToHTML(string(body))

	tmpl, ok := metadata[KeyTemplate]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, serrors.ErrMissingTemplateKey)
	}

	return &Page{
		SourcePath:   path,
		TemplateName: tmpl,
		Metadata:     metadata,
		Fingerprint:  mdfp.CalculateFingerprintFromParts(string(block), string(body)),
	}, nil
}
