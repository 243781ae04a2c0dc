package templates

import (
	"embed"
	"html/template"
	"sync"
)

//go:embed *.html
var templateFiles embed.FS

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// TemplateManager parses embedded templates on first use and caches them
type TemplateManager struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

// NewTemplateManager creates a new template manager
func NewTemplateManager() *TemplateManager {
	return &TemplateManager{
		templates: make(map[string]*template.Template),
	}
}

// GetTemplate returns the template <name>.html, parsing it once
func (tm *TemplateManager) GetTemplate(name string) (*template.Template, error) {
	tm.mutex.RLock()
	tmpl, exists := tm.templates[name]
	tm.mutex.RUnlock()
	if exists {
		return tmpl, nil
	}

	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if tmpl, exists := tm.templates[name]; exists {
		return tmpl, nil
	}

	content, err := templateFiles.ReadFile(name + ".html")
	if err != nil {
		return nil, err
	}
	tmpl, err = template.New(name).Funcs(funcs).Parse(string(content))
	if err != nil {
		return nil, err
	}

	tm.templates[name] = tmpl
	return tmpl, nil
}

var globalTemplateManager = NewTemplateManager()

// GetTemplate gets a template from the global manager
func GetTemplate(name string) (*template.Template, error) {
	return globalTemplateManager.GetTemplate(name)
}
