// ABOUTME: Entry point for the audioengine command
// ABOUTME: Registers the play, inspect, serve and status subcommands
package main

import (
	"github.com/GiGurra/boa/pkg/boa"
	"github.com/Resonate-Protocol/audioengine-go/internal/cli"
	"github.com/Resonate-Protocol/audioengine-go/internal/version"
	"github.com/spf13/cobra"
)

func main() {
	boa.CmdT[boa.NoParams]{
		Use:     "audioengine",
		Short:   "Session-based audio playback engine",
		Version: version.Version,
		SubCmds: []*cobra.Command{
			cli.PlayCmd(),
			cli.InspectCmd(),
			cli.ServeCmd(),
			cli.StatusCmd(),
		},
	}.Run()
}
