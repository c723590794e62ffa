package fetcher

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
)

// Content formats accepted by NewNormalizer
const (
	FormatHTML     = "html"
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Normalizer turns rendered page HTML into the text submitted for comparison
type Normalizer interface {
	Normalize(html string) (string, error)
}

// NewNormalizer returns the normalizer for format. An empty format means html.
func NewNormalizer(format string) (Normalizer, error) {
	switch strings.ToLower(format) {
	case "", FormatHTML:
		return HTMLNormalizer{}, nil
	case FormatText:
		return TextNormalizer{}, nil
	case FormatMarkdown:
		return NewMarkdownNormalizer(), nil
	default:
		return nil, fmt.Errorf("unknown content format %q", format)
	}
}

// HTMLNormalizer passes rendered HTML through unchanged
type HTMLNormalizer struct{}

func (HTMLNormalizer) Normalize(html string) (string, error) {
	return html, nil
}

// TextNormalizer extracts the visible body text with whitespace collapsed
type TextNormalizer struct{}

func (TextNormalizer) Normalize(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	doc.Find("script, style, noscript, template").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	return strings.Join(strings.Fields(root.Text()), " "), nil
}

// MarkdownNormalizer converts the page to CommonMark, keeping headings, lists
// and tables that describe course structure.
type MarkdownNormalizer struct {
	conv *converter.Converter
}

func NewMarkdownNormalizer() *MarkdownNormalizer {
	return &MarkdownNormalizer{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (m *MarkdownNormalizer) Normalize(html string) (string, error) {
	markdown, err := m.conv.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert page to markdown: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}
