// Package output renders command results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text", "table", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("invalid output format: %s (valid: text, json, yaml)", s)
}

type Formatter struct {
	Format Format
	Writer io.Writer
}

func NewFormatter(format Format, w io.Writer) *Formatter {
	return &Formatter{
		Format: format,
		Writer: w,
	}
}

// Print encodes data as JSON or YAML. Text output falls back to JSON.
func (f *Formatter) Print(data interface{}) error {
	if f.Format == FormatYAML {
		encoder := yaml.NewEncoder(f.Writer)
		encoder.SetIndent(2)
		defer func() { _ = encoder.Close() }()
		return encoder.Encode(data)
	}

	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

type TableData struct {
	Headers []string
	Rows    [][]string
}

func (f *Formatter) PrintTable(data TableData) {
	table := tablewriter.NewWriter(f.Writer)
	if len(data.Headers) > 0 {
		table.SetHeader(data.Headers)
	}

	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	table.AppendBulk(data.Rows)
	table.Render()
}

func (f *Formatter) Println(args ...interface{}) {
	_, _ = fmt.Fprintln(f.Writer, args...)
}
