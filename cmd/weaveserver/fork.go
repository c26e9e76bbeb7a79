package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeffd/weave/weave"
)

var forkFrom string

var forkCmd = &cobra.Command{
	Use:   "fork",
	Short: "Print a new, independently-evolvable replica of a serialized weave",
	Long: `Mints a fresh site identity and prints a serialized weave owned by it.
With --from, the new replica starts from an existing document's content,
mirroring CausalTree.Fork/RList.Fork; without it, it starts empty.`,
	RunE: runFork,
}

func init() {
	forkCmd.Flags().StringVar(&forkFrom, "from", "", "path to a serialized weave to fork from")
}

func runFork(cmd *cobra.Command, args []string) error {
	newSite := weave.SiteId(1)

	if forkFrom == "" {
		return json.NewEncoder(os.Stdout).Encode(weave.New[rune](newSite))
	}

	data, err := os.ReadFile(forkFrom)
	if err != nil {
		return fmt.Errorf("reading %s: %w", forkFrom, err)
	}
	source := weave.New[rune](0)
	if err := source.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("parsing %s: %w", forkFrom, err)
	}

	// A running server assigns newSite from its site.Registry; standing
	// alone here, one past the highest site already present is enough to
	// guarantee the forked replica can't collide with an existing yarn.
	forked := weave.FromSerialized[rune](nextSiteID(source), append([]weave.Atom[rune]{}, source.Atoms()...))
	return json.NewEncoder(os.Stdout).Encode(forked)
}

// nextSiteID picks a SiteId one above the highest one already present in
// w, so the forked replica can never collide with an existing yarn.
func nextSiteID(w *weave.Weave[rune]) weave.SiteId {
	max := weave.ControlSite
	for _, atom := range w.Atoms() {
		if atom.ID.Site > max {
			max = atom.ID.Site
		}
	}
	return max + 1
}
