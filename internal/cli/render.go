package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/richinsley/cmfy/client"
)

var (
	indexColor = color.New(color.FgHiBlue)
	urlColor   = color.New(color.FgCyan, color.Underline)
	titleColor = color.New(color.FgYellow)
)

// indexLabel renders "[index]" padded to 15 visible columns.
func indexLabel(index uint64) string {
	plain := strconv.FormatUint(index, 10)
	label := "[" + indexColor.Sprint(plain) + "]"
	if pad := 15 - len(plain) - 2; pad > 0 {
		label += strings.Repeat(" ", pad)
	}
	return label
}

// renderList prints one line per prompt. With imageURL set, completed
// prompts are followed by the url of their first image.
func renderList(w io.Writer, batch client.PromptBatch, imageURL func(client.Image) string) {
	for _, e := range batch {
		fmt.Fprintf(w, "%s%s (%s)", indexLabel(e.Prompt.Index), e.Prompt.UUID, e.Status.Colored())
		if imageURL != nil {
			if outputs, ok := e.Status.Outputs(); ok {
				if img, ok := outputs.FirstImage(); ok {
					fmt.Fprintf(w, " -> %s", urlColor.Sprint(imageURL(img)))
				}
			}
		}
		fmt.Fprintln(w)
	}
}

type clientInfo struct {
	Name     string
	Version  string
	ClientID string
	URL      string
}

func renderStats(w io.Writer, info clientInfo, stats *client.SystemStats) {
	titleColor.Fprintln(w, "client")
	fmt.Fprintf(w, "    name        : %s\n", info.Name)
	fmt.Fprintf(w, "    version     : %s\n", info.Version)
	fmt.Fprintf(w, "    client_id   : %s\n", info.ClientID)

	sys := stats.System
	titleColor.Fprintln(w, "server")
	fmt.Fprintf(w, "    url         : %s\n", info.URL)
	fmt.Fprintf(w, "    os          : %s\n", sys.OS)
	if sys.RAMTotal > 0 {
		fmt.Fprintf(w, "    memory      : %s/%s\n", humanize.IBytes(sys.RAMFree), humanize.IBytes(sys.RAMTotal))
	}
	fmt.Fprintln(w, "    versions")

	python := sys.PythonVersion
	if fields := strings.Fields(python); len(fields) > 0 {
		python = fields[0]
	}
	if sys.EmbeddedPython {
		python += " (embedded)"
	}
	fmt.Fprintf(w, "        python  : %s\n", python)
	fmt.Fprintf(w, "        comfyui : %s\n", orUnknown(sys.ComfyUIVersion))
	fmt.Fprintf(w, "        pytorch : %s\n", orUnknown(sys.PytorchVersion))

	fmt.Fprintln(w, "    devices")
	for i, d := range stats.Devices {
		fmt.Fprintf(w, "        %-8s: %s (%s/%s)\n",
			fmt.Sprintf("[%d]", i), d.Name, humanize.IBytes(d.VRAMFree), humanize.IBytes(d.VRAMTotal))
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
