package output

import (
	"sort"
	"strings"

	"github.com/vcnkl/libpack/formats"
	"github.com/vcnkl/libpack/stores/manifests"
	"github.com/vcnkl/libpack/targets"
)

func TargetsTable(manifest *manifests.Manifest) TableData {
	data := TableData{Headers: []string{"Library", "Format", "File", "Global", "Globals"}}
	for _, lib := range manifest.Libraries {
		for _, t := range lib.Targets {
			data.Rows = append(data.Rows, []string{
				lib.Name,
				string(t.Format),
				t.FileName,
				dash(t.GlobalName),
				dash(globalsString(t.Globals)),
			})
		}
	}
	return data
}

func ProblemsTable(problems []targets.Problem) TableData {
	data := TableData{Headers: []string{"Library", "Kind", "Format", "Message"}}
	for _, p := range problems {
		data.Rows = append(data.Rows, []string{p.Library, string(p.Kind), dash(string(p.Format)), p.Message})
	}
	return data
}

type FormatInfo struct {
	ID              string `json:"id" yaml:"id"`
	Wrapping        string `json:"wrapping" yaml:"wrapping"`
	RequiresGlobals bool   `json:"requires_globals" yaml:"requires_globals"`
	GlobalName      string `json:"global_name" yaml:"global_name"`
	Description     string `json:"description" yaml:"description"`
}

func FormatList(registry *formats.Registry) []FormatInfo {
	rules := registry.Rules()
	list := make([]FormatInfo, 0, len(rules))
	for _, rule := range rules {
		list = append(list, FormatInfo{
			ID:              string(rule.ID),
			Wrapping:        string(rule.Wrapping),
			RequiresGlobals: rule.RequiresGlobals,
			GlobalName:      string(rule.GlobalName),
			Description:     rule.Description,
		})
	}
	return list
}

func FormatsTable(list []FormatInfo) TableData {
	data := TableData{Headers: []string{"Format", "Wrapping", "Globals", "Global Name", "Description"}}
	for _, f := range list {
		data.Rows = append(data.Rows, []string{f.ID, f.Wrapping, yesNo(f.RequiresGlobals), f.GlobalName, f.Description})
	}
	return data
}

func globalsString(globals map[string]string) string {
	pairs := make([]string, 0, len(globals))
	for pkg, global := range globals {
		pairs = append(pairs, pkg+"="+global)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
