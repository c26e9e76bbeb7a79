package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeffd/weave/text"
	"github.com/jeffd/weave/weave"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Pretty-print a serialized weave's atoms, yarns and text",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	w := weave.New[rune](0)
	if err := w.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	fmt.Println(printTable(w))
	fmt.Println(printYarns(w))
	fmt.Printf("text: %q\n", text.String(w))
	return nil
}

// printTable renders a weave's atoms in weave order, grouping consecutive
// siblings under one cause the way the teacher's PrintTable collapses a
// repeated cause column.
func printTable(w *weave.Weave[rune]) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  cause |     id |  type | value\n")
	fmt.Fprintf(&sb, " -------|--------|-------|------\n")
	lastCause := weave.NullAtomId
	for _, atom := range w.Atoms() {
		if atom.Cause != lastCause {
			fmt.Fprintf(&sb, " %6s | %6s | %5s | %q\n", atom.Cause, atom.ID, atom.Type, atom.Value)
		} else {
			fmt.Fprintf(&sb, "        | %6s | %5s | %q\n", atom.ID, atom.Type, atom.Value)
		}
		lastCause = atom.Cause
	}
	return sb.String()
}

// printYarns renders each site's yarn (its atoms in creation order, which
// may differ from weave order) on its own line.
func printYarns(w *weave.Weave[rune]) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "yarns:\n")
	weft := w.CompleteWeft()
	sites := make([]weave.SiteId, 0, len(weft))
	for site := range weft {
		sites = append(sites, site)
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i] < sites[j] })
	for _, site := range sites {
		yarn := w.Yarn(site)
		if len(yarn) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "  site %d:", site)
		for _, atom := range yarn {
			fmt.Fprintf(&sb, " %s", atom.ID)
		}
		fmt.Fprintln(&sb)
	}
	return sb.String()
}
