// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	texttemplate "text/template"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

// RenderedEmail holds both HTML and text versions of a rendered email
type RenderedEmail struct {
	HTML string
	Text string
}

// TemplateSet pairs the HTML and plain text variants of one email.
type TemplateSet struct {
	HTML *template.Template
	Text *texttemplate.Template
}

type executor interface {
	Execute(w io.Writer, data any) error
}

// Templates holds every email the service sends.
type Templates struct {
	Invitation TemplateSet
}

type templateConfig struct {
	name string
	path string
}

// NewTemplates loads the embedded email templates.
func NewTemplates() (Templates, error) {
	html, err := loadTemplate(templateConfig{"meeting_invitation.html", "templates/meeting_invitation.html"})
	if err != nil {
		return Templates{}, err
	}
	text, err := loadTextTemplate(templateConfig{"meeting_invitation.txt", "templates/meeting_invitation.txt"})
	if err != nil {
		return Templates{}, err
	}
	return Templates{Invitation: TemplateSet{HTML: html, Text: text}}, nil
}

// RenderInvitation renders an invitation email with both HTML and text versions
func (t Templates) RenderInvitation(data domain.EmailInvitation) (*RenderedEmail, error) {
	if t.Invitation.HTML == nil || t.Invitation.Text == nil {
		return nil, fmt.Errorf("invitation templates not loaded")
	}

	html, err := renderTemplate(t.Invitation.HTML, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render invitation HTML: %w", err)
	}

	text, err := renderTemplate(t.Invitation.Text, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render invitation text: %w", err)
	}

	return &RenderedEmail{HTML: html, Text: text}, nil
}

func loadTemplate(config templateConfig) (*template.Template, error) {
	content, err := templateFS.ReadFile(config.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", config.path, err)
	}

	tmpl, err := template.New(config.name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", config.path, err)
	}

	return tmpl, nil
}

// loadTextTemplate parses plain text bodies without HTML escaping so links survive intact.
func loadTextTemplate(config templateConfig) (*texttemplate.Template, error) {
	content, err := templateFS.ReadFile(config.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", config.path, err)
	}

	tmpl, err := texttemplate.New(config.name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", config.path, err)
	}

	return tmpl, nil
}

func renderTemplate(tmpl executor, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
