package commands

import (
	"context"
	"fmt"

	"CyMarker/internal/cli/api"
	"CyMarker/internal/config"
)

type watchCmd struct{}

func (watchCmd) Name() string { return "watch" }
func (watchCmd) Description() string {
	return "Stream live changes; marker ids add their comment threads"
}
func (watchCmd) Usage() string { return "watch [<marker-id>...]" }

func (watchCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	client, err := authedClient(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(Out, "Watching for changes, Ctrl+C to stop")
	return client.Watch(ctx, args, func(ev api.Event) {
		fmt.Fprintf(Out, "%s %s\n", ev.Event, ev.Data)
	})
}

func init() { RegisterCmd(watchCmd{}) }
