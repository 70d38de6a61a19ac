// Package sparql rendert benannte SPARQL-Templates aus eingebetteten Textressourcen.
// Jedes Template hat ein festes Bindungsschema, das vor dem Rendern geprüft wird.
package sparql

import (
	"bytes"
	"embed"
	"fmt"
	"slices"
	"sort"
	"strings"
	"text/template"

	"lit-explorer/errs"
	"lit-explorer/models"
)

//go:embed templates/*.sparql
var templateFS embed.FS

// Kind beschreibt den erwarteten Typ einer Bindung.
type Kind int

const (
	KindQID Kind = iota
	KindQIDList
	KindInt
	KindBool
	KindEnum
)

// Param ist ein Eintrag im Bindungsschema eines Templates.
type Param struct {
	Name     string
	Kind     Kind
	Required bool
	Enum     []string
}

// Bindings sind die Variablen, die in ein Template eingesetzt werden.
type Bindings map[string]any

var layerNames = []string{
	string(models.LayerBirthplaces), string(models.LayerDeathplaces),
	string(models.LayerPublications), string(models.LayerSettings),
}

var schemas = map[string][]Param{
	"search_books": {
		{Name: "country", Kind: KindQID},
		{Name: "genre", Kind: KindQID},
		{Name: "location", Kind: KindQID},
		{Name: "year_start", Kind: KindInt},
		{Name: "year_end", Kind: KindInt},
		{Name: "limit", Kind: KindInt, Required: true},
		{Name: "offset", Kind: KindInt, Required: true},
	},
	"book_details":   {{Name: "qid", Kind: KindQID, Required: true}},
	"author_details": {{Name: "qid", Kind: KindQID, Required: true}},
	"author_books": {
		{Name: "qid", Kind: KindQID, Required: true},
		{Name: "limit", Kind: KindInt, Required: true},
	},
	"author_graph": {
		{Name: "author_qids", Kind: KindQIDList, Required: true},
		{Name: "include_coauthorship", Kind: KindBool},
		{Name: "include_movements", Kind: KindBool},
		{Name: "limit", Kind: KindInt, Required: true},
	},
	"geo_locations": {
		{Name: "layer", Kind: KindEnum, Required: true, Enum: layerNames},
		{Name: "author_qids", Kind: KindQIDList},
		{Name: "book_qids", Kind: KindQIDList},
		{Name: "limit", Kind: KindInt, Required: true},
	},
	"author_features": {{Name: "author_qids", Kind: KindQIDList, Required: true}},
	"candidates_by_movement": {
		{Name: "movement_qids", Kind: KindQIDList, Required: true},
		{Name: "exclude", Kind: KindQID, Required: true},
		{Name: "limit", Kind: KindInt, Required: true},
	},
	"candidates_by_genre": {
		{Name: "genre_qids", Kind: KindQIDList, Required: true},
		{Name: "exclude", Kind: KindQID, Required: true},
		{Name: "limit", Kind: KindInt, Required: true},
	},
}

// Engine hält die geparsten Templates. Sie ist nach NewEngine unveränderlich
// und kann nebenläufig verwendet werden.
type Engine struct {
	templates map[string]*template.Template
}

var funcs = template.FuncMap{
	"wd": func(qid string) string { return "wd:" + qid },
	// set unterscheidet eine fehlende Bindung von ihrem Nullwert, etwa dem Jahr 0.
	"set": func(v any) bool { return v != nil },
	"values": func(qids []string) string {
		out := make([]string, len(qids))
		for i, q := range qids {
			out[i] = "wd:" + q
		}
		return strings.Join(out, " ")
	},
}

// NewEngine parst alle eingebetteten Templates. Jedes Schema braucht eine Datei und umgekehrt.
func NewEngine() (*Engine, error) {
	e := &Engine{templates: make(map[string]*template.Template, len(schemas))}
	for name := range schemas {
		raw, err := templateFS.ReadFile("templates/" + name + ".sparql")
		if err != nil {
			return nil, fmt.Errorf("load template %s: %w", name, err)
		}
		t, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(raw))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		e.templates[name] = t
	}
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".sparql")
		if _, ok := schemas[name]; !ok {
			return nil, fmt.Errorf("template %s has no binding schema", name)
		}
	}
	return e, nil
}

// Names listet die bekannten Templates sortiert auf.
func (e *Engine) Names() []string {
	names := make([]string, 0, len(e.templates))
	for n := range e.templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Render erzeugt den Query-Text. Unbekannte Namen liefern ErrTemplateNotFound,
// fehlende oder falsch typisierte Bindungen ErrTemplateRender.
func (e *Engine) Render(name string, b Bindings) (string, error) {
	t, ok := e.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", errs.ErrTemplateNotFound, name)
	}
	data, err := bind(name, schemas[name], b)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %s: %v", errs.ErrTemplateRender, name, err)
	}
	return buf.String(), nil
}

func bind(name string, schema []Param, b Bindings) (map[string]any, error) {
	renderErr := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", errs.ErrTemplateRender, name, fmt.Sprintf(format, args...))
	}

	for key := range b {
		if !slices.ContainsFunc(schema, func(p Param) bool { return p.Name == key }) {
			return nil, renderErr("unknown binding %q", key)
		}
	}

	data := make(map[string]any, len(schema))
	for _, p := range schema {
		v, present := b[p.Name]
		if !present || v == nil {
			if p.Required {
				return nil, renderErr("missing binding %q", p.Name)
			}
			data[p.Name] = nil
			continue
		}
		switch p.Kind {
		case KindQID:
			s, ok := v.(string)
			if !ok || !models.ValidQID(s) {
				return nil, renderErr("binding %q: invalid identifier %v", p.Name, v)
			}
			data[p.Name] = s
		case KindQIDList:
			list, ok := v.([]string)
			if !ok {
				return nil, renderErr("binding %q: expected identifier list, got %T", p.Name, v)
			}
			for _, q := range list {
				if !models.ValidQID(q) {
					return nil, renderErr("binding %q: invalid identifier %q", p.Name, q)
				}
			}
			if len(list) == 0 {
				if p.Required {
					return nil, renderErr("binding %q: empty identifier list", p.Name)
				}
				data[p.Name] = nil
				continue
			}
			data[p.Name] = list
		case KindInt:
			switch n := v.(type) {
			case int:
				data[p.Name] = n
			case *int:
				if n == nil {
					if p.Required {
						return nil, renderErr("missing binding %q", p.Name)
					}
					data[p.Name] = nil
				} else {
					data[p.Name] = *n
				}
			default:
				return nil, renderErr("binding %q: expected int, got %T", p.Name, v)
			}
		case KindBool:
			bv, ok := v.(bool)
			if !ok {
				return nil, renderErr("binding %q: expected bool, got %T", p.Name, v)
			}
			data[p.Name] = bv
		case KindEnum:
			s, ok := v.(string)
			if !ok || !slices.Contains(p.Enum, s) {
				return nil, renderErr("binding %q: %v not in %v", p.Name, v, p.Enum)
			}
			data[p.Name] = s
		}
	}
	return data, nil
}
