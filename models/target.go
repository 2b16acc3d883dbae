package models

// BuildTarget is one concrete artifact to emit. Values are produced by the
// target set builder and must not be mutated afterwards.
type BuildTarget struct {
	Library    string            `json:"library" yaml:"library"`
	Format     FormatID          `json:"format" yaml:"format"`
	Wrapping   Wrapping          `json:"wrapping" yaml:"wrapping"`
	FileName   string            `json:"file" yaml:"file"`
	GlobalName string            `json:"global_name,omitempty" yaml:"global_name,omitempty"`
	Globals    map[string]string `json:"globals" yaml:"globals"`
	Externals  []string          `json:"externals" yaml:"externals"`
}

func (t BuildTarget) ID() string {
	return t.Library + ":" + string(t.Format)
}
