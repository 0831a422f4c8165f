// ABOUTME: inspect command
// ABOUTME: Decodes assets in parallel and prints their formats as a table
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/Resonate-Protocol/audioengine-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/audioengine-go/pkg/engine"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type InspectParams struct {
	Files   []string `pos:"true" required:"true" help:"Asset paths, relative to --root or inside --archive."`
	Root    string   `optional:"true" help:"Directory assets are read from." default:"."`
	Archive string   `short:"a" optional:"true" help:"Read assets from a zip or tar archive instead of --root."`
	Jobs    int      `short:"j" optional:"true" help:"Assets decoded at once, 0 for one per CPU." default:"0"`
}

// inspectRow is one decoded asset, or the error decoding it
type inspectRow struct {
	Path       string
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
	Duration   time.Duration
	Err        error
}

func InspectCmd() *cobra.Command {
	return boa.CmdT[InspectParams]{
		Use:         "inspect",
		Short:       "Show the decoded format of audio assets",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *InspectParams, cmd *cobra.Command, args []string) {
			os.Exit(RunInspect(context.Background(), params, os.Stdout, os.Stderr))
		},
	}.ToCobra()
}

// RunInspect decodes params.Files and renders the results to stdout
func RunInspect(ctx context.Context, params *InspectParams, stdout, stderr io.Writer) int {
	store, err := openStorage(ctx, params.Root, params.Archive)
	if err != nil {
		fmt.Fprintf(stderr, "inspect: %v\n", err)
		return 1
	}

	jobs := params.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	registry := decode.NewDefaultRegistry()
	rows := make([]inspectRow, len(params.Files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range params.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows[i] = inspectAsset(store, registry, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(stderr, "inspect: %v\n", err)
		return 1
	}

	renderInspect(stdout, rows)

	for _, row := range rows {
		if row.Err != nil {
			return 1
		}
	}
	return 0
}

func inspectAsset(store engine.Storage, registry *decode.Registry, path string) inspectRow {
	row := inspectRow{Path: path}

	data, err := store.ReadAsset(path)
	if err != nil {
		row.Err = err
		return row
	}

	buf, err := registry.DecodeAsset(path, data)
	if err != nil {
		row.Err = err
		return row
	}

	row.Codec = buf.Format.Codec
	row.SampleRate = buf.Format.SampleRate
	row.Channels = buf.Format.Channels
	row.BitDepth = buf.Format.BitDepth
	row.Frames = buf.Frames()
	row.Duration = buf.Duration()
	return row
}

func renderInspect(w io.Writer, rows []inspectRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Path", "Codec", "Rate", "Ch", "Bits", "Frames", "Duration"})

	for _, row := range rows {
		if row.Err != nil {
			t.AppendRow(table.Row{row.Path, text.FgHiRed.Sprint(row.Err.Error()), "", "", "", "", ""})
			continue
		}
		t.AppendRow(table.Row{
			row.Path,
			row.Codec,
			row.SampleRate,
			row.Channels,
			row.BitDepth,
			row.Frames,
			fmt.Sprintf("%.3fs", row.Duration.Seconds()),
		})
	}

	t.Render()
}
