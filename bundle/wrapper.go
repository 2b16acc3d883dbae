package bundle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// globalAccessor reads a global binding off root. Dotted bindings such as
// "Vue.Router" walk nested properties.
func globalAccessor(root string, global string) string {
	var sb strings.Builder
	sb.WriteString(root)
	for _, part := range strings.Split(global, ".") {
		sb.WriteString("[")
		sb.WriteString(jsString(part))
		sb.WriteString("]")
	}
	return sb.String()
}

// umdBanner opens a UMD wrapper around CommonJS output. The factory receives
// each external in order and rebinds module, exports and require so the
// CommonJS body runs unchanged under AMD, CommonJS and browser globals.
func umdBanner(name string, externals []string, globals map[string]string) string {
	quoted := make([]string, len(externals))
	requires := make([]string, len(externals))
	roots := make([]string, len(externals))
	params := make([]string, len(externals))
	for i, pkg := range externals {
		quoted[i] = jsString(pkg)
		requires[i] = fmt.Sprintf("require(%s)", jsString(pkg))
		roots[i] = globalAccessor("root", globals[pkg])
		params[i] = fmt.Sprintf("__libpack_ext%d", i)
	}

	var sb strings.Builder
	sb.WriteString("(function (root, factory) {\n")
	sb.WriteString("  if (typeof define === \"function\" && define.amd) {\n")
	fmt.Fprintf(&sb, "    define([%s], factory);\n", strings.Join(quoted, ", "))
	sb.WriteString("  } else if (typeof module === \"object\" && module.exports) {\n")
	fmt.Fprintf(&sb, "    module.exports = factory(%s);\n", strings.Join(requires, ", "))
	sb.WriteString("  } else {\n")
	fmt.Fprintf(&sb, "    %s = factory(%s);\n", globalAccessor("root", name), strings.Join(roots, ", "))
	sb.WriteString("  }\n")
	fmt.Fprintf(&sb, "})(typeof globalThis !== \"undefined\" ? globalThis : typeof self !== \"undefined\" ? self : this, function (%s) {\n", strings.Join(params, ", "))
	sb.WriteString("var module = { exports: {} };\n")
	sb.WriteString("var exports = module.exports;\n")
	sb.WriteString("var require = function (id) {\n")
	sb.WriteString("  switch (id) {\n")
	for i, pkg := range externals {
		fmt.Fprintf(&sb, "    case %s: return %s;\n", jsString(pkg), params[i])
	}
	sb.WriteString("  }\n")
	sb.WriteString("  throw new Error(\"Cannot find module \" + JSON.stringify(id));\n")
	sb.WriteString("};")

	return sb.String()
}

// unwrapDefault collapses a module whose only export is its default export
// to that export, so globals hold the value rather than its namespace.
const unwrapDefault = `(function (m) { return m && m.__esModule && Object.keys(m).length === 1 && Object.prototype.hasOwnProperty.call(m, "default") ? m["default"] : m; })`

func umdFooter() string {
	return "return " + unwrapDefault + "(module.exports);\n});"
}

// iifeFooter reassigns the IIFE global once the bundle has run. globalName
// is a validated identifier path, so it is usable as an expression.
func iifeFooter(globalName string) string {
	return globalName + " = " + unwrapDefault + "(" + globalName + ");"
}

// globalShim is the module body an IIFE build sees in place of an external.
func globalShim(global string) string {
	return "module.exports = " + globalAccessor("globalThis", global) + ";"
}
