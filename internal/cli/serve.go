// ABOUTME: serve command
// ABOUTME: Runs the WebSocket bridge with optional mDNS and hot reload of changed assets
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
	"github.com/Resonate-Protocol/audioengine-go/pkg/bridge"
	"github.com/Resonate-Protocol/audioengine-go/pkg/engine"
	"github.com/Resonate-Protocol/audioengine-go/pkg/storage"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type ServeParams struct {
	Port        int    `short:"p" optional:"true" help:"Port to listen on." default:"8928"`
	Name        string `short:"n" optional:"true" help:"Bridge name (default: hostname-audioengine)."`
	Root        string `optional:"true" help:"Directory assets are read from." default:"."`
	Archive     string `short:"a" optional:"true" help:"Read assets from a zip or tar archive instead of --root."`
	Output      string `short:"o" optional:"true" help:"Output backend: oto, beep or null." default:"oto"`
	Watch       bool   `short:"w" optional:"true" help:"Uncache assets when they change under --root."`
	NoMDNS      bool   `optional:"true" help:"Do not advertise the bridge via mDNS."`
	StrictCodec bool   `optional:"true" help:"Disable decoding after the first unsupported format."`
	LogFile     string `optional:"true" help:"Also write logs to this file." default:"audioengine.log"`
	Debug       bool   `optional:"true" help:"Enable debug logging."`
}

func ServeCmd() *cobra.Command {
	return boa.CmdT[ServeParams]{
		Use:         "serve",
		Short:       "Serve the audio engine over WebSocket",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *ServeParams, cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			os.Exit(RunServe(ctx, params, os.Stderr))
		},
	}.ToCobra()
}

// RunServe runs the bridge until ctx is cancelled
func RunServe(ctx context.Context, params *ServeParams, stderr io.Writer) int {
	closeLog, err := setupLogging(params.LogFile, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "serve: %v\n", err)
		return 1
	}
	defer closeLog()

	if params.Watch && params.Archive != "" {
		fmt.Fprintf(stderr, "serve: --watch needs --root, archives are loaded once\n")
		return 1
	}

	name := params.Name
	if name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		name = fmt.Sprintf("%s-audioengine", hostname)
	}

	store, err := openStorage(ctx, params.Root, params.Archive)
	if err != nil {
		fmt.Fprintf(stderr, "serve: %v\n", err)
		return 1
	}

	out, err := output.Open(params.Output)
	if err != nil {
		fmt.Fprintf(stderr, "serve: %v\n", err)
		return 1
	}

	srv, err := bridge.NewServer(bridge.ServerConfig{
		Port:       params.Port,
		Name:       name,
		EnableMDNS: !params.NoMDNS,
		Debug:      params.Debug,
		Engine: engine.Config{
			Storage:     store,
			Output:      out,
			StrictCodec: params.StrictCodec,
			Debug:       params.Debug,
			OnError: func(err error) {
				log.Printf("Engine: %v", err)
			},
		},
	})
	if err != nil {
		fmt.Fprintf(stderr, "serve: %v\n", err)
		return 1
	}

	var watcher *storage.Watcher
	if params.Watch {
		watcher, err = storage.NewWatcher(params.Root, func(assetPath string) {
			log.Printf("Asset changed: %s", assetPath)
			srv.Engine().Uncache(assetPath)
		})
		if err != nil {
			_ = srv.Close()
			fmt.Fprintf(stderr, "serve: %v\n", err)
			return 1
		}
		defer watcher.Close()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-gctx.Done()
		srv.Stop()
		return nil
	})

	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Fprintf(stderr, "serve: %v\n", err)
		return 1
	}
	return 0
}
