package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/traderouter/internal/client/api"
	"github.com/iudanet/traderouter/internal/client/iocli"
	pkgapi "github.com/iudanet/traderouter/pkg/api"
)

// Searcher запросы CLI к серверу
type Searcher interface {
	Search(ctx context.Context, systemName string) ([]api.HubResult, error)
	Health(ctx context.Context) (*pkgapi.HealthResponse, error)
}

type Cli struct {
	client Searcher
	io     iocli.IO
	// asJSON принудительно выводит JSON даже в терминал
	asJSON bool
}

func New(client Searcher, io iocli.IO, asJSON bool) *Cli {
	return &Cli{client: client, io: io, asJSON: asJSON}
}

// PrintUsage выводит справку
func PrintUsage(io iocli.IO) {
	io.Println("Usage: traderouter-client [flags] <command> [args]")
	io.Println("")
	io.Println("Commands:")
	io.Println("  search <system>   jumps from a solar system to each trade hub")
	io.Println("  health            server status")
	io.Println("")
	io.Println("Flags:")
	io.Println("  -server URL       server URL including mount prefix")
	io.Println("  -json             print JSON even when stdout is a terminal")
	io.Println("  -version          show version information")
}

// Run выполняет команду из args
func (c *Cli) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		PrintUsage(c.io)
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "search":
		return c.RunSearch(ctx, args[1:])
	case "health":
		return c.RunHealth(ctx)
	default:
		PrintUsage(c.io)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}
