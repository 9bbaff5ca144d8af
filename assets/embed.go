// assets/embed.go
//
// Embedded resources shipped inside the binary:
//   - copy.yaml: fixed Italian copy, home cards, drawing palette, alphabet.
//   - web/:      the single page that renders the shell state.
//
// The catalogue is parsed once (sync.Once) and shared read-only.

package assets

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed copy.yaml web/*
var FS embed.FS

// Card is one entry of the home page grid.
type Card struct {
	Screen   string `yaml:"screen" json:"screen"`
	Title    string `yaml:"title" json:"title"`
	Color    string `yaml:"color" json:"color"`
	Disabled bool   `yaml:"disabled" json:"disabled"`
}

// Catalog holds every user-visible string of the app.
type Catalog struct {
	Locale   string `yaml:"locale"`
	Alphabet string `yaml:"alphabet"`
	Home     struct {
		Title    string `yaml:"title"`
		Subtitle string `yaml:"subtitle"`
		Soon     string `yaml:"soon"`
		Cards    []Card `yaml:"cards"`
	} `yaml:"home"`
	Word struct {
		Title     string `yaml:"title"`
		Prompt    string `yaml:"prompt"`
		Loading   string `yaml:"loading"`
		Correct   string `yaml:"correct"`
		Incorrect string `yaml:"incorrect"`
		Next      string `yaml:"next"`
	} `yaml:"word"`
	Math struct {
		Title           string `yaml:"title"`
		Prompt          string `yaml:"prompt"`
		Loading         string `yaml:"loading"`
		Correct         string `yaml:"correct"`
		Incorrect       string `yaml:"incorrect"`
		CorrectBanner   string `yaml:"correctBanner"`
		IncorrectBanner string `yaml:"incorrectBanner"`
		Next            string `yaml:"next"`
	} `yaml:"math"`
	Drawing struct {
		Title   string   `yaml:"title"`
		Clear   string   `yaml:"clear"`
		Palette []string `yaml:"palette"`
	} `yaml:"drawing"`
	Common struct {
		Back       string `yaml:"back"`
		LoadFailed string `yaml:"loadFailed"`
	} `yaml:"common"`
}

var (
	catalogOnce sync.Once
	catalog     *Catalog
	catalogErr  error
)

// Load parses copy.yaml exactly once.
func Load() (*Catalog, error) {
	catalogOnce.Do(func() {
		raw, err := FS.ReadFile("copy.yaml")
		if err != nil {
			catalogErr = fmt.Errorf("read copy.yaml: %w", err)
			return
		}
		var c Catalog
		if err := yaml.Unmarshal(raw, &c); err != nil {
			catalogErr = fmt.Errorf("parse copy.yaml: %w", err)
			return
		}
		if err := c.validate(); err != nil {
			catalogErr = err
			return
		}
		c.Alphabet = strings.ToLower(c.Alphabet)
		catalog = &c
	})
	return catalog, catalogErr
}

// MustLoad is Load for package-level defaults; the catalogue is embedded, so a
// failure here is a build defect.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) validate() error {
	switch {
	case c.Alphabet == "":
		return errors.New("copy.yaml: alphabet is empty")
	case len(c.Home.Cards) == 0:
		return errors.New("copy.yaml: no home cards")
	case len(c.Drawing.Palette) == 0:
		return errors.New("copy.yaml: drawing palette is empty")
	}
	return nil
}

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.ParseFS(FS, "web/*.tmpl"))
}

// StaticFS serves the embedded web directory.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(FS, "web")
	if err != nil {
		return http.FS(embed.FS{})
	}
	return http.FS(sub)
}
