package config

import (
	"fmt"
	"strings"

	"github.com/vcnkl/libpack/models"
)

type LibraryConfig struct {
	Name          string            `koanf:"name"`
	Entry         string            `koanf:"entry"`
	GlobalName    string            `koanf:"global_name"`
	Formats       []string          `koanf:"formats"`
	FileName      string            `koanf:"file_name"`
	OutDir        string            `koanf:"out_dir"`
	In            []string          `koanf:"in"`
	Externals     interface{}       `koanf:"externals"`
	PeerExternals bool              `koanf:"peer_externals"`
	Options       OptionsConfig     `koanf:"options"`
	Env           map[string]string `koanf:"env"`
	Hooks         HooksConfig       `koanf:"hooks"`
}

type OptionsConfig struct {
	Minify    *bool  `koanf:"minify"`
	Sourcemap *bool  `koanf:"sourcemap"`
	Platform  string `koanf:"platform"`
}

type HooksConfig struct {
	Pre  interface{} `koanf:"pre"`
	Post interface{} `koanf:"post"`
}

var platforms = map[string]bool{
	"browser": true,
	"node":    true,
	"neutral": true,
}

func (l *LibraryConfig) SetDefaults(outDir string) {
	if len(l.Formats) == 0 {
		l.Formats = []string{string(models.FormatESM), string(models.FormatUMD)}
	}
	if l.OutDir == "" {
		l.OutDir = outDir
	}
	if l.In == nil {
		l.In = []string{"**"}
	}
	if l.Env == nil {
		l.Env = make(map[string]string)
	}
	if l.Options.Minify == nil {
		minify := false
		l.Options.Minify = &minify
	}
	if l.Options.Sourcemap == nil {
		sourcemap := false
		l.Options.Sourcemap = &sourcemap
	}
	if l.Options.Platform == "" {
		l.Options.Platform = "browser"
	}
}

func (l *LibraryConfig) Validate() error {
	if !platforms[l.Options.Platform] {
		return fmt.Errorf("unknown platform %q (expected browser, node or neutral)", l.Options.Platform)
	}
	return nil
}

func (l *LibraryConfig) FormatIDs() []models.FormatID {
	ids := make([]models.FormatID, len(l.Formats))
	for i, f := range l.Formats {
		ids[i] = models.FormatID(strings.TrimSpace(f))
	}
	return ids
}

// GetExternals accepts either a map of package -> global or a list whose items
// are package names or {name, global} objects.
func (l *LibraryConfig) GetExternals() ([]models.External, error) {
	switch v := l.Externals.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		result := make([]models.External, 0, len(v))
		for pkg, raw := range v {
			global, err := globalValue(pkg, raw)
			if err != nil {
				return nil, err
			}
			result = append(result, models.External{Package: pkg, Global: global})
		}
		return result, nil
	case []interface{}:
		result := make([]models.External, 0, len(v))
		for _, item := range v {
			switch e := item.(type) {
			case string:
				result = append(result, models.External{Package: e})
			case map[string]interface{}:
				name, _ := e["name"].(string)
				global, err := globalValue(name, e["global"])
				if err != nil {
					return nil, err
				}
				result = append(result, models.External{Package: name, Global: global})
			default:
				return nil, fmt.Errorf("invalid externals entry %v", item)
			}
		}
		return result, nil
	case []string:
		result := make([]models.External, 0, len(v))
		for _, pkg := range v {
			result = append(result, models.External{Package: pkg})
		}
		return result, nil
	}
	return nil, fmt.Errorf("externals must be a map or a list, got %T", l.Externals)
}

func globalValue(pkg string, raw interface{}) (string, error) {
	switch g := raw.(type) {
	case nil:
		return "", nil
	case string:
		return g, nil
	}
	return "", fmt.Errorf("external %s: global must be a string, got %T", pkg, raw)
}

func commandList(v interface{}) []string {
	switch c := v.(type) {
	case string:
		if strings.TrimSpace(c) == "" {
			return nil
		}
		return []string{c}
	case []interface{}:
		var cmds []string
		for _, item := range c {
			if s, ok := item.(string); ok {
				cmds = append(cmds, s)
			}
		}
		return cmds
	case []string:
		return c
	}
	return nil
}
