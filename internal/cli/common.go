// ABOUTME: Helpers shared by the CLI commands
// ABOUTME: Parameter enrichment, log file mirroring and storage selection
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/Resonate-Protocol/audioengine-go/pkg/engine"
	"github.com/Resonate-Protocol/audioengine-go/pkg/storage"
)

// defaultParamEnricher derives flag names, shorthands and bool defaults from struct fields
func defaultParamEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}

// setupLogging mirrors log output into logFile when one is given
func setupLogging(logFile string, stderr io.Writer) (func(), error) {
	log.SetOutput(stderr)
	if logFile == "" {
		return func() {}, nil
	}

	f, err := os.OpenFile(logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}

	log.SetOutput(io.MultiWriter(stderr, f))
	return func() { _ = f.Close() }, nil
}

// openStorage reads assets from an archive when one is given, otherwise from root
func openStorage(ctx context.Context, root, archive string) (engine.Storage, error) {
	if archive != "" {
		mem, err := storage.LoadArchive(ctx, archive)
		if err != nil {
			return nil, err
		}
		return mem, nil
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("asset root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset root %s is not a directory", root)
	}
	return storage.NewDir(root), nil
}
