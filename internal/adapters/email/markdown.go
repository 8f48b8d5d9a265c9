package email

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// mdRenderer renders message bodies. Raw HTML in the source is dropped.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// RenderMarkdown converts a Markdown body to HTML.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// NewMarkdownRequest builds a SendRequest whose HTML is rendered from body.
// PRE: to is a deliverable address
// POST: HTML holds the rendered body; ErrNoRecipients when to is empty
func NewMarkdownRequest(to, subject, body string) (SendRequest, error) {
	if to == "" {
		return SendRequest{}, ErrNoRecipients
	}
	html, err := RenderMarkdown(body)
	if err != nil {
		return SendRequest{}, err
	}
	return SendRequest{To: []string{to}, Subject: subject, HTML: html}, nil
}
