package assets

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/419921017/ph-fe-template/internal/buildconfig"
)

const defaultTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>{{ .Title }}</title>
{{- range .Icons }}
<link rel="{{ .Rel }}" href="{{ .Href }}">
{{- end }}
{{- range .Styles }}
<link rel="stylesheet" href="{{ . }}">
{{- end }}
{{- range .Links }}
<link rel="{{ .Rel }}" href="{{ .Href }}" as="script">
{{- end }}
</head>
<body>
<div id="app"></div>
{{- range .Inline }}
<script>{{ . }}</script>
{{- end }}
{{- range .Scripts }}
<script type="module" src="{{ . }}"></script>
{{- end }}
</body>
</html>
`

// Link is a resource hint or icon emitted into the page head.
type Link struct {
	Rel  string
	Href string
}

// Page is the data the HTML template renders.
type Page struct {
	Title   string
	Scripts []string
	Styles  []string
	Links   []Link
	Icons   []Link
	Inline  []template.JS
}

var iconRels = map[string]string{
	"favicon32":      "icon",
	"favicon16":      "icon",
	"appleTouchIcon": "apple-touch-icon",
	"maskIcon":       "mask-icon",
}

// emitHTML writes the page of every registered html plugin.
func (p *Pipeline) emitHTML() error {
	for name, plugin := range p.cfg.Plugins.All() {
		spec, ok := plugin.Spec.(*buildconfig.HTMLPlugin)
		if !ok {
			continue
		}

		page, err := p.page(spec.Title)
		if err != nil {
			return fmt.Errorf("plugin %s: %w", name, err)
		}

		tmpl, err := loadTemplate(spec.Template)
		if err != nil {
			return fmt.Errorf("plugin %s: %w", name, err)
		}

		target := filepath.Join(p.outputDir(), spec.Filename)
		f, err := os.Create(target)
		if err != nil {
			return fmt.Errorf("plugin %s: %w", name, err)
		}
		if err := tmpl.Execute(f, page); err != nil {
			_ = f.Close()
			return fmt.Errorf("plugin %s: failed to render template: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return err
		}

		log.Info().Str("file", target).Int("scripts", len(page.Scripts)).Int("links", len(page.Links)).Msg("Wrote page")
	}
	return nil
}

func loadTemplate(file string) (*template.Template, error) {
	data, err := os.ReadFile(file)
	switch {
	case errors.Is(err, fs.ErrNotExist) || file == "":
		return template.New("index").Funcs(templateFuncs()).Parse(defaultTemplate)
	case err != nil:
		return nil, err
	}
	return template.New(filepath.Base(file)).Funcs(templateFuncs()).Parse(string(data))
}

// page collects the scripts and hints of every entrypoint.
func (p *Pipeline) page(title string) (Page, error) {
	page := Page{Title: title, Icons: p.icons()}

	inline, err := p.inlinePattern()
	if err != nil {
		return Page{}, err
	}
	byURL := map[string]string{}
	for _, outputPath := range p.outputPaths() {
		byURL[p.publicURL(outputPath)] = outputPath
	}

	var initial, async []string
	for _, entry := range p.cfg.Entry.All() {
		scripts, main, err := p.loadScripts(entry)
		if err != nil {
			return Page{}, fmt.Errorf("entry %s: %w", entry, err)
		}

		for _, script := range scripts {
			outputPath := byURL[script]
			if inline != nil && inline.MatchString(path.Base(script)) {
				code, err := os.ReadFile(p.absPath(outputPath))
				if err != nil {
					return Page{}, fmt.Errorf("inline %s: %w", script, err)
				}
				page.Inline = append(page.Inline, template.JS(code)) //nolint:gosec
				continue
			}
			initial = append(initial, script)
			if css := p.metadata.Outputs[outputPath].CSSBundle; css != "" {
				page.Styles = append(page.Styles, p.publicURL(css))
			}
		}
		if !slices.Contains(initial, main) {
			continue
		}
		page.Scripts = append(page.Scripts, main)
		async = append(async, p.asyncScripts(entry)...)
	}

	links, err := p.hints(initial, async)
	if err != nil {
		return Page{}, err
	}
	page.Links = links
	return page, nil
}

// hints applies the preload plugins in registration order.
func (p *Pipeline) hints(initial, async []string) ([]Link, error) {
	var links []Link
	for name, plugin := range p.cfg.Plugins.All() {
		spec, ok := plugin.Spec.(*buildconfig.PreloadPlugin)
		if !ok {
			continue
		}

		var blacklist []*regexp.Regexp
		for _, pattern := range spec.FileBlacklist {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("plugin %s: %w", name, err)
			}
			blacklist = append(blacklist, re)
		}

		files := initial
		if spec.Include == "asyncChunks" {
			files = async
		}
		for _, file := range files {
			if slices.ContainsFunc(blacklist, func(re *regexp.Regexp) bool { return re.MatchString(file) }) {
				continue
			}
			links = append(links, Link{Rel: spec.Rel, Href: file})
		}
	}
	return links, nil
}

func (p *Pipeline) inlinePattern() (*regexp.Regexp, error) {
	for name, plugin := range p.cfg.Plugins.All() {
		spec, ok := plugin.Spec.(*buildconfig.InlineRuntimePlugin)
		if !ok {
			continue
		}
		re, err := regexp.Compile(spec.Inline)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", name, err)
		}
		return re, nil
	}
	return nil, nil
}

func (p *Pipeline) icons() []Link {
	var icons []Link
	for _, key := range slices.Sorted(maps.Keys(p.cfg.PWA.IconPaths)) {
		rel, ok := iconRels[key]
		if !ok {
			continue
		}
		icons = append(icons, Link{Rel: rel, Href: p.publicURL(p.cfg.Output.Dir + "/" + p.cfg.PWA.IconPaths[key])})
	}
	return icons
}
