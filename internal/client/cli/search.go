package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/iancoleman/orderedmap"

	"github.com/iudanet/traderouter/internal/validation"
)

// RunSearch печатает расстояния от системы до хабов.
// Имя из нескольких слов можно передать без кавычек.
func (c *Cli) RunSearch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing system name. Usage: traderouter-client search <system>")
	}

	systemName := strings.Join(args, " ")
	if err := validation.ValidateSystemName(systemName); err != nil {
		return fmt.Errorf("invalid system name: %w", err)
	}

	results, err := c.client.Search(ctx, systemName)
	if err != nil {
		return err
	}

	if c.asJSON || !c.io.IsTerminal() {
		om := orderedmap.New()
		for _, r := range results {
			om.Set(r.Hub, r.HubDistance)
		}
		return c.writeJSON(om)
	}

	c.io.Printf("Jumps from %s:\n\n", systemName)
	tw := tabwriter.NewWriter(c.io, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "HUB\tJUMPS\tSYSTEM ID\tSTATION ID")
	for _, r := range results {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", r.Hub, r.Distance, r.SystemID, r.StationID)
	}
	return tw.Flush()
}

// RunHealth печатает состояние сервера
func (c *Cli) RunHealth(ctx context.Context) error {
	resp, err := c.client.Health(ctx)
	if err != nil {
		return err
	}

	if c.asJSON || !c.io.IsTerminal() {
		return c.writeJSON(resp)
	}

	c.io.Printf("Status:  %s\n", resp.Status)
	if resp.Version != "" {
		c.io.Printf("Version: %s\n", resp.Version)
	}
	c.io.Printf("Pilots:  %d\n", resp.Pilots)
	return nil
}

func (c *Cli) writeJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	c.io.Println(string(data))
	return nil
}
