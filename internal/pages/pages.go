// Package pages renders the HTML shown to people following a short link.
package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type data struct {
	Title   string
	Action  string
	Message string
}

// Renderer holds the parsed page templates. It is safe for concurrent use.
type Renderer struct {
	notFound *template.Template
	password *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	notFound, err := template.ParseFS(templateFS, "templates/layout.html", "templates/notfound.html")
	if err != nil {
		return nil, fmt.Errorf("parse not found page: %w", err)
	}
	password, err := template.ParseFS(templateFS, "templates/layout.html", "templates/password.html")
	if err != nil {
		return nil, fmt.Errorf("parse password page: %w", err)
	}
	return &Renderer{notFound: notFound, password: password}, nil
}

// NotFound renders the page for missing and expired links.
func (r *Renderer) NotFound() ([]byte, error) {
	return render(r.notFound, data{Title: "Link not found"})
}

// PasswordPrompt renders the form posting a password to action. A non-empty
// message is shown above the form, e.g. after a wrong password.
func (r *Renderer) PasswordPrompt(action, message string) ([]byte, error) {
	return render(r.password, data{
		Title:   "Password required",
		Action:  action,
		Message: message,
	})
}

func render(t *template.Template, d data) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
