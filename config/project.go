package config

import (
	"github.com/vcnkl/libpack/formats"
	"github.com/vcnkl/libpack/models"
)

type ProjectConfig struct {
	Shell   string            `koanf:"shell"`
	Env     map[string]string `koanf:"env"`
	OutDir  string            `koanf:"out_dir"`
	Deps    []Dependency      `koanf:"deps"`
	Ignore  []string          `koanf:"ignore"`
	Formats []FormatConfig    `koanf:"formats"`
}

type Dependency struct {
	Label      string `koanf:"label"`
	CheckCmd   string `koanf:"check_cmd"`
	InstallCmd string `koanf:"install_cmd"`
}

// FormatConfig registers an extra format id that reuses one of the builtin
// wrapping strategies, e.g. {id: es, wrapping: esm}.
type FormatConfig struct {
	ID          string `koanf:"id"`
	Wrapping    string `koanf:"wrapping"`
	Description string `koanf:"description"`
}

func (p *ProjectConfig) SetDefaults() {
	if p.Shell == "" {
		p.Shell = "/bin/sh"
	}
	if p.Env == nil {
		p.Env = make(map[string]string)
	}
	if p.OutDir == "" {
		p.OutDir = "dist"
	}
	if p.Ignore == nil {
		p.Ignore = make([]string, 0)
	}
}

func (p *ProjectConfig) Registry() (*formats.Registry, error) {
	extra := make([]formats.Rule, 0, len(p.Formats))
	for _, fc := range p.Formats {
		rule, err := formats.RuleFor(models.FormatID(fc.ID), models.Wrapping(fc.Wrapping), fc.Description)
		if err != nil {
			return nil, err
		}
		extra = append(extra, rule)
	}
	return formats.WithBuiltins(extra...)
}
