package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deusflow/haulnews/internal/news"
)

// SourcesConfig is the YAML layout:
//
//	sources:
//	  - name: NHVR
//	    url: https://www.nhvr.gov.au/news-events
//	    priority: 10
//	    category: regulatory
type SourcesConfig struct {
	Sources []sourceEntry `yaml:"sources"`
}

type sourceEntry struct {
	news.Source `yaml:",inline"`
	Enabled     *bool `yaml:"enabled"`
}

// LoadSources reads the source list and returns the enabled entries in file order.
func LoadSources(path string) ([]news.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg SourcesConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	sources := make([]news.Source, 0, len(cfg.Sources))
	for i, e := range cfg.Sources {
		src := e.Source
		src.Enabled = e.Enabled == nil || *e.Enabled
		if !src.Enabled {
			continue
		}
		if strings.TrimSpace(src.Name) == "" || strings.TrimSpace(src.URL) == "" {
			return nil, fmt.Errorf("source #%d: name and url are required", i+1)
		}
		if src.Kind == "" {
			src.Kind = "html"
		}
		sources = append(sources, src)
	}
	return sources, nil
}
