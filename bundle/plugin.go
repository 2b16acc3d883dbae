package bundle

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

const globalsNamespace = "libpack-global"

// GlobalsPlugin binds imports of external packages to their runtime globals.
// With Shim set, imports are replaced by reads of the global, for formats
// esbuild cannot mark external. Without it, imports stay external.
//
// A subpath import of an external, such as "vue/dist/x", only resolves when
// it is declared as an external of its own; otherwise the build fails
// instead of bundling or requiring a module the global cannot provide.
type GlobalsPlugin struct {
	Globals map[string]string
	Shim    bool
}

func (p *GlobalsPlugin) packages() []string {
	names := make([]string, 0, len(p.Globals))
	for pkg := range p.Globals {
		names = append(names, pkg)
	}
	// Longest first, so an owner lookup finds the closest declared package.
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}

func (p *GlobalsPlugin) filter() string {
	names := p.packages()
	for i, pkg := range names {
		names[i] = regexp.QuoteMeta(pkg)
	}
	return "^(" + strings.Join(names, "|") + ")(/.*)?$"
}

// owner returns the declared package that path is a subpath of.
func (p *GlobalsPlugin) owner(path string) string {
	for _, pkg := range p.packages() {
		if strings.HasPrefix(path, pkg+"/") {
			return pkg
		}
	}
	return ""
}

func (p *GlobalsPlugin) resolve(path string) (api.OnResolveResult, error) {
	if _, ok := p.Globals[path]; ok {
		if p.Shim {
			return api.OnResolveResult{Path: path, Namespace: globalsNamespace}, nil
		}
		return api.OnResolveResult{Path: path, External: true}, nil
	}
	return api.OnResolveResult{}, fmt.Errorf(
		"%s is a subpath of external %s and has no global binding; declare it as an external with its own global",
		path, p.owner(path))
}

func (p *GlobalsPlugin) New() api.Plugin {
	return api.Plugin{
		Name: "libpack-globals",
		Setup: func(build api.PluginBuild) {
			if len(p.Globals) == 0 {
				return
			}

			build.OnResolve(api.OnResolveOptions{Filter: p.filter()}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				return p.resolve(args.Path)
			})

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: globalsNamespace}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				contents := globalShim(p.Globals[args.Path])
				return api.OnLoadResult{
					Contents: &contents,
					Loader:   api.LoaderJS,
				}, nil
			})
		},
	}
}
