// ABOUTME: status command
// ABOUTME: Connects to a running bridge and prints its cache and sessions
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/Resonate-Protocol/audioengine-go/internal/discovery"
	"github.com/Resonate-Protocol/audioengine-go/internal/version"
	"github.com/Resonate-Protocol/audioengine-go/pkg/protocol"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type StatusParams struct {
	Server  string  `short:"s" optional:"true" help:"Bridge address host:port (default: discover via mDNS)."`
	Timeout float64 `short:"t" optional:"true" help:"Seconds to wait for discovery and the reply." default:"5"`
}

func StatusCmd() *cobra.Command {
	return boa.CmdT[StatusParams]{
		Use:         "status",
		Short:       "Show the cache and sessions of a running bridge",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *StatusParams, cmd *cobra.Command, args []string) {
			os.Exit(RunStatus(context.Background(), params, os.Stdout, os.Stderr))
		},
	}.ToCobra()
}

// RunStatus prints a bridge snapshot
func RunStatus(ctx context.Context, params *StatusParams, stdout, stderr io.Writer) int {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(params.Timeout*float64(time.Second)))
	defer cancel()

	addr := params.Server
	if addr == "" {
		found, err := discoverBridge(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "status: %v\n", err)
			return 1
		}
		addr = found
	}

	hostname, _ := os.Hostname()
	client := protocol.NewClient(protocol.Config{
		ServerAddr: addr,
		Name:       fmt.Sprintf("%s-status", hostname),
		DeviceInfo: protocol.DeviceInfo{
			ProductName:     version.Product,
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
		},
	})
	if err := client.Connect(); err != nil {
		fmt.Fprintf(stderr, "status: %v\n", err)
		return 1
	}
	defer client.Close()

	snap, err := client.Snapshot(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "status: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "%s (%s)\n", client.Server.Name, addr)
	renderSnapshot(stdout, snap)
	_ = client.SendGoodbye("user_request")
	return 0
}

// discoverBridge returns the address of the first bridge found on the network
func discoverBridge(ctx context.Context) (string, error) {
	mgr := discovery.NewManager(discovery.Config{})
	defer mgr.Stop()

	if err := mgr.Browse(); err != nil {
		return "", err
	}

	select {
	case server := <-mgr.Servers():
		return server.Addr(), nil
	case <-ctx.Done():
		return "", fmt.Errorf("no bridge found: %w", ctx.Err())
	}
}

func renderSnapshot(w io.Writer, snap *protocol.Snapshot) {
	status := "available"
	if !snap.Available {
		status = "unavailable"
	}
	fmt.Fprintf(w, "decoder %s, %d cached, %d decoding\n", status, len(snap.Preloaded), snap.PendingDecodes)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Path", "State", "Loop", "Volume", "Time", "Duration"})
	for _, s := range snap.Sessions {
		t.AppendRow(table.Row{
			s.SessionID,
			s.Path,
			s.State,
			s.Loop,
			fmt.Sprintf("%.2f", s.Volume),
			fmt.Sprintf("%.2fs", s.CurrentTime),
			fmt.Sprintf("%.2fs", s.Duration),
		})
	}
	t.Render()

	if len(snap.Preloaded) > 0 {
		cached := table.NewWriter()
		cached.SetOutputMirror(w)
		cached.SetStyle(table.StyleLight)
		cached.AppendHeader(table.Row{"Cached"})
		for _, p := range snap.Preloaded {
			cached.AppendRow(table.Row{p})
		}
		cached.Render()
	}
}
