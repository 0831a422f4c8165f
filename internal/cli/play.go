// ABOUTME: play command
// ABOUTME: Preloads assets, plays them on an output device and waits for them to finish
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/Resonate-Protocol/audioengine-go/pkg/audio/output"
	"github.com/Resonate-Protocol/audioengine-go/pkg/engine"
	"github.com/spf13/cobra"
)

type PlayParams struct {
	Files   []string `pos:"true" required:"true" help:"Asset paths, relative to --root or inside --archive."`
	Root    string   `optional:"true" help:"Directory assets are read from." default:"."`
	Archive string   `short:"a" optional:"true" help:"Read assets from a zip or tar archive instead of --root."`
	Output  string   `short:"o" optional:"true" help:"Output backend: oto, beep or null." default:"oto"`
	Volume  float64  `short:"v" optional:"true" help:"Playback volume from 0 to 1." default:"1"`
	Loop    bool     `short:"l" optional:"true" help:"Loop until interrupted."`
	LogFile string   `optional:"true" help:"Also write logs to this file."`
	Debug   bool     `optional:"true" help:"Enable debug logging."`
}

func PlayCmd() *cobra.Command {
	return boa.CmdT[PlayParams]{
		Use:         "play",
		Short:       "Play audio assets",
		Long:        "Decode every asset, start them together and wait until all of them have finished.",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *PlayParams, cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			os.Exit(RunPlay(ctx, params, os.Stdout, os.Stderr))
		},
	}.ToCobra()
}

// RunPlay plays params.Files and returns the process exit code
func RunPlay(ctx context.Context, params *PlayParams, stdout, stderr io.Writer) int {
	closeLog, err := setupLogging(params.LogFile, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "play: %v\n", err)
		return 1
	}
	defer closeLog()

	store, err := openStorage(ctx, params.Root, params.Archive)
	if err != nil {
		fmt.Fprintf(stderr, "play: %v\n", err)
		return 1
	}

	out, err := output.Open(params.Output)
	if err != nil {
		fmt.Fprintf(stderr, "play: %v\n", err)
		return 1
	}

	decoded := make(chan bool, len(params.Files))
	finished := make(chan engine.SessionID, len(params.Files))

	eng, err := engine.New(engine.Config{
		Storage: store,
		Output:  out,
		Debug:   params.Debug,
		OnDecodeComplete: func(path string, success bool) {
			if !success {
				log.Printf("Could not load %s", path)
			}
			decoded <- success
		},
		OnPlaybackFinished: func(id engine.SessionID, path string) {
			fmt.Fprintf(stdout, "finished %s\n", path)
			finished <- id
		},
	})
	if err != nil {
		fmt.Fprintf(stderr, "play: %v\n", err)
		return 1
	}
	defer eng.Close()

	for _, f := range params.Files {
		eng.Preload(f)
	}
	for range params.Files {
		select {
		case <-decoded:
		case <-ctx.Done():
			return 130
		}
	}

	var ids []engine.SessionID
	for _, f := range params.Files {
		id := eng.Play(f, params.Loop, params.Volume)
		if id == engine.InvalidSessionID {
			continue
		}
		fmt.Fprintf(stdout, "playing %s (%.2fs)\n", f, eng.Duration(id))
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		fmt.Fprintf(stderr, "play: nothing to play\n")
		return 1
	}

	if params.Loop {
		<-ctx.Done()
		eng.StopAll()
		return 0
	}

	for range ids {
		select {
		case <-finished:
		case <-ctx.Done():
			eng.StopAll()
			return 130
		}
	}
	return 0
}
