package mailer

import (
	"fmt"

	"github.com/osteele/liquid"
)

// Templates renders the verification email from externally supplied
// Liquid template strings. Available variables: link, name, from_name,
// from_email.
type Templates struct {
	subject *liquid.Template
	text    *liquid.Template
	html    *liquid.Template
}

// NewTemplates parses the subject, plain-text and HTML templates. Parse
// errors surface at startup, not per send.
func NewTemplates(subject, text, html string) (*Templates, error) {
	engine := liquid.NewEngine()

	subjectTpl, err := engine.ParseString(subject)
	if err != nil {
		return nil, fmt.Errorf("parsing subject template: %w", err)
	}
	textTpl, err := engine.ParseString(text)
	if err != nil {
		return nil, fmt.Errorf("parsing text template: %w", err)
	}
	htmlTpl, err := engine.ParseString(html)
	if err != nil {
		return nil, fmt.Errorf("parsing html template: %w", err)
	}
	return &Templates{subject: subjectTpl, text: textTpl, html: htmlTpl}, nil
}

// Render substitutes the verification link and identities into all three
// templates.
func (t *Templates) Render(link, recipientName, fromName, fromEmail string) (subject, text, html string, err error) {
	bindings := liquid.Bindings{
		"link":       link,
		"name":       recipientName,
		"from_name":  fromName,
		"from_email": fromEmail,
	}

	if subject, err = t.subject.RenderString(bindings); err != nil {
		return "", "", "", fmt.Errorf("rendering subject: %w", err)
	}
	if text, err = t.text.RenderString(bindings); err != nil {
		return "", "", "", fmt.Errorf("rendering text body: %w", err)
	}
	if html, err = t.html.RenderString(bindings); err != nil {
		return "", "", "", fmt.Errorf("rendering html body: %w", err)
	}
	return subject, text, html, nil
}
