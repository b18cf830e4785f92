// Package mailing renders the emails this service sends. Templates are
// written in Liquid and embedded in the binary; rendering is strict so a
// template that references data the caller did not supply fails loudly
// instead of mailing a half-empty message to every visitor.
package mailing

import (
	"embed"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/osteele/liquid"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

// Template names.
const (
	TemplateNewsletter     = "newsletter.html"
	TemplateAnnouncement   = "announcement.html"
	TemplateWelcome        = "welcome.txt"
	TemplateNewSubscriber  = "new_subscriber.txt"
	TemplateContactMessage = "contact_message.txt"
	TemplateVisit          = "visit.txt"
)

// Data is the binding set passed to a template.
type Data = map[string]any

// MissingVariableError reports template variables absent from the bindings.
type MissingVariableError struct {
	Template  string
	Variables []string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("template %s: undefined variables %s", e.Template, strings.Join(e.Variables, ", "))
}

func (e *MissingVariableError) Is(target error) bool { return target == domain.ErrConfiguration }

// Engine renders named templates with caching.
type Engine struct {
	engine    *liquid.Engine
	cache     sync.Map // name -> *liquid.Template
	overrides map[string]string
}

// NewEngine creates a template engine serving the embedded templates.
func NewEngine() *Engine {
	e := &Engine{engine: liquid.NewEngine(), overrides: map[string]string{}}
	e.registerFilters()
	return e
}

// Override replaces a named template's source. Used by tests and by
// deployments that ship their own branding.
func (e *Engine) Override(name, source string) {
	e.overrides[name] = source
	e.cache.Delete(name)
}

func (e *Engine) registerFilters() {
	// {{ name | default: "there" }}
	e.engine.RegisterFilter("default", func(value any, fallback string) any {
		if value == nil {
			return fallback
		}
		if s := fmt.Sprintf("%v", value); s == "" || s == "<nil>" {
			return fallback
		}
		return value
	})

	e.engine.RegisterFilter("escape", func(s string) string {
		return html.EscapeString(s)
	})

	// {{ body | paragraphs }} turns blank-line separated text into <p> blocks
	// and single newlines into <br>.
	e.engine.RegisterFilter("paragraphs", func(s string) string {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		var b strings.Builder
		for _, para := range strings.Split(s, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			b.WriteString("<p>")
			b.WriteString(strings.ReplaceAll(para, "\n", "<br>"))
			b.WriteString("</p>\n")
		}
		return b.String()
	})
}

func (e *Engine) source(name string) (string, error) {
	if src, ok := e.overrides[name]; ok {
		return src, nil
	}
	raw, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("%w: unknown template %q", domain.ErrConfiguration, name)
	}
	return string(raw), nil
}

func (e *Engine) template(name string) (*liquid.Template, string, error) {
	src, err := e.source(name)
	if err != nil {
		return nil, "", err
	}
	if cached, ok := e.cache.Load(name); ok {
		return cached.(*liquid.Template), src, nil
	}
	tpl, perr := e.engine.ParseString(src)
	if perr != nil {
		return nil, "", fmt.Errorf("%w: parse %s: %v", domain.ErrConfiguration, name, perr)
	}
	e.cache.Store(name, tpl)
	return tpl, src, nil
}

// Render renders the named template. Every {{ variable }} the template
// outputs must be present in data; otherwise a *MissingVariableError is
// returned and nothing is rendered.
func (e *Engine) Render(name string, data Data) (string, error) {
	tpl, src, err := e.template(name)
	if err != nil {
		return "", err
	}
	if missing := MissingVariables(src, data); len(missing) > 0 {
		return "", &MissingVariableError{Template: name, Variables: missing}
	}
	out, rerr := tpl.RenderString(data)
	if rerr != nil {
		return "", fmt.Errorf("%w: render %s: %v", domain.ErrConfiguration, name, rerr)
	}
	return out, nil
}

var varPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_.]*?)(?:\s*\||\s*\}\})`)

// MissingVariables lists the output variables of src that data does not
// define, in order of first appearance.
func MissingVariables(src string, data Data) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, m := range varPattern.FindAllStringSubmatch(src, -1) {
		name := strings.TrimSpace(m[1])
		if seen[name] || isLiquidKeyword(name) {
			continue
		}
		seen[name] = true
		if !variableExists(name, data) {
			missing = append(missing, name)
		}
	}
	return missing
}

func variableExists(path string, data Data) bool {
	var current any = data
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return false
		}
		if current, ok = m[part]; !ok {
			return false
		}
	}
	return true
}

func isLiquidKeyword(name string) bool {
	switch name {
	case "forloop", "true", "false", "nil", "empty", "blank":
		return true
	}
	return strings.HasPrefix(name, "forloop.")
}
