// Package output renders CLI results as a table, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/frudas24/pdb/internal/window"
	"gopkg.in/yaml.v3"
)

// Format selects the rendering.
type Format string

const (
	// FormatTable is an aligned human-readable table.
	FormatTable Format = "table"
	// FormatJSON is one JSON document.
	FormatJSON Format = "json"
	// FormatYAML is one YAML document.
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use table, json or yaml)", s)
	}
}

// Device is the serialized form of a window.
type Device struct {
	Handle    string `json:"handle" yaml:"handle"`
	Title     string `json:"title" yaml:"title"`
	Class     string `json:"class,omitempty" yaml:"class,omitempty"`
	Minimized bool   `json:"minimized" yaml:"minimized"`
	X         int    `json:"x" yaml:"x"`
	Y         int    `json:"y" yaml:"y"`
	Width     int    `json:"width" yaml:"width"`
	Height    int    `json:"height" yaml:"height"`
}

// Devices converts window snapshots for serialization.
func Devices(list []window.Info) []Device {
	out := make([]Device, 0, len(list))
	for _, w := range list {
		out = append(out, Device{
			Handle:    w.Handle.String(),
			Title:     w.Title,
			Class:     w.Class,
			Minimized: w.Minimized,
			X:         w.Client.X,
			Y:         w.Client.Y,
			Width:     w.Client.W,
			Height:    w.Client.H,
		})
	}
	return out
}

// Result reports a completed command.
type Result struct {
	OK      bool   `json:"ok" yaml:"ok"`
	Action  string `json:"action" yaml:"action"`
	Handle  string `json:"handle,omitempty" yaml:"handle,omitempty"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Width   int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height  int    `json:"height,omitempty" yaml:"height,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Printer writes results in one format.
type Printer struct {
	W      io.Writer
	Format Format
}

// PrintDevices renders a device list.
func (p Printer) PrintDevices(list []window.Info) error {
	devices := Devices(list)
	switch p.Format {
	case FormatJSON:
		return printJSON(p.W, devices)
	case FormatYAML:
		return printYAML(p.W, devices)
	default:
		tw := tabwriter.NewWriter(p.W, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "HANDLE\tMIN\tTITLE\tCLASS")
		for _, d := range devices {
			minimized := "-"
			if d.Minimized {
				minimized = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Handle, minimized, d.Title, d.Class)
		}
		return tw.Flush()
	}
}

// PrintResult renders a command result. The table form prints the message
// or OK, matching the wire status line.
func (p Printer) PrintResult(r Result) error {
	switch p.Format {
	case FormatJSON:
		return printJSON(p.W, r)
	case FormatYAML:
		return printYAML(p.W, r)
	default:
		msg := r.Message
		if msg == "" {
			msg = "OK"
		}
		_, err := fmt.Fprintln(p.W, msg)
		return err
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}
