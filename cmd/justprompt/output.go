package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/jdgilhuly/just_prompt/pkg/registry"
)

// writeStructured writes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}

func renderProviders(w io.Writer, format string, descs []registry.Descriptor) error {
	if format != "table" {
		return writeStructured(w, format, descs)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, color.CyanString("NAME")+"\t"+color.CyanString("FULL")+"\t"+color.CyanString("SHORT"))
	for _, d := range descs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, d.FullName, d.ShortName)
	}
	return tw.Flush()
}

func renderModels(w io.Writer, format, token string, models []string) error {
	if format != "table" {
		return writeStructured(w, format, map[string]any{"provider": token, "models": models})
	}
	for _, m := range models {
		fmt.Fprintln(w, m)
	}
	return nil
}

// renderResponses prints each model's completion under a colored header.
func renderResponses(w io.Writer, refs []string, responses []string) {
	for i, r := range responses {
		if len(responses) > 1 {
			fmt.Fprintln(w, color.GreenString("== %s ==", refs[i]))
		}
		fmt.Fprintln(w, r)
		if len(responses) > 1 && i < len(responses)-1 {
			fmt.Fprintln(w)
		}
	}
}
