package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"CyMarker/internal/config"
)

type markersCmd struct{}

func (markersCmd) Name() string        { return "markers" }
func (markersCmd) Description() string { return "List markers" }
func (markersCmd) Usage() string       { return "markers" }

func (markersCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	client, err := authedClient(cfg)
	if err != nil {
		return err
	}
	list, err := client.Markers(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(Out, "No markers")
		return nil
	}
	tw := tabwriter.NewWriter(Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tX\tY\tIMAGE")
	for _, m := range list {
		image := "-"
		if m.ImageID != nil {
			image = *m.ImageID
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", m.ID, m.X, m.Y, image)
	}
	return tw.Flush()
}

type markerAddCmd struct{}

func (markerAddCmd) Name() string        { return "marker-add" }
func (markerAddCmd) Description() string { return "Create a marker with its first comment" }
func (markerAddCmd) Usage() string       { return "marker-add <x> <y> <text> [--image <image-id>]" }

func (markerAddCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	var imageID string
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if args[i] == "--image" {
			if i+1 >= len(args) {
				return ErrUsage
			}
			imageID = args[i+1]
			i++
			continue
		}
		rest = append(rest, args[i])
	}
	if len(rest) < 3 {
		return ErrUsage
	}
	x, y, err := parseXY(rest[:2], 0)
	if err != nil {
		return err
	}
	text := strings.Join(rest[2:], " ")

	client, err := authedClient(cfg)
	if err != nil {
		return err
	}
	m, c, err := client.CreateMarker(ctx, imageID, x, y, text)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Marker created: %s (comment %s)\n", m.ID, c.ID)
	return nil
}

type markerMoveCmd struct{}

func (markerMoveCmd) Name() string        { return "marker-move" }
func (markerMoveCmd) Description() string { return "Move a marker" }
func (markerMoveCmd) Usage() string       { return "marker-move <marker-id> <x> <y>" }

func (markerMoveCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 3 {
		return ErrUsage
	}
	x, y, err := parseXY(args, 1)
	if err != nil {
		return err
	}
	client, err := authedClient(cfg)
	if err != nil {
		return err
	}
	m, err := client.MoveMarker(ctx, args[0], x, y)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Marker %s at %d,%d\n", m.ID, m.X, m.Y)
	return nil
}

type markerRmCmd struct{}

func (markerRmCmd) Name() string        { return "marker-rm" }
func (markerRmCmd) Description() string { return "Delete a marker and all its comments" }
func (markerRmCmd) Usage() string       { return "marker-rm <marker-id>" }

func (markerRmCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	client, err := authedClient(cfg)
	if err != nil {
		return err
	}
	if err := client.DeleteMarker(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Marker deleted")
	return nil
}

type commentsCmd struct{}

func (commentsCmd) Name() string        { return "comments" }
func (commentsCmd) Description() string { return "Show the comment thread of a marker" }
func (commentsCmd) Usage() string       { return "comments <marker-id>" }

func (commentsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	client, err := authedClient(cfg)
	if err != nil {
		return err
	}
	list, err := client.Comments(ctx, args[0])
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(Out, "No comments")
		return nil
	}
	for _, c := range list {
		fmt.Fprintf(Out, "[%s] %s %s: %s\n", c.CreatedAt.Local().Format("2006-01-02 15:04"), c.ID, c.UserID, c.Text)
	}
	return nil
}

type commentAddCmd struct{}

func (commentAddCmd) Name() string        { return "comment-add" }
func (commentAddCmd) Description() string { return "Reply in a marker thread" }
func (commentAddCmd) Usage() string       { return "comment-add <marker-id> <text>" }

func (commentAddCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	client, err := authedClient(cfg)
	if err != nil {
		return err
	}
	c, err := client.AddComment(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Comment added: %s\n", c.ID)
	return nil
}

type commentRmCmd struct{}

func (commentRmCmd) Name() string { return "comment-rm" }
func (commentRmCmd) Description() string {
	return "Delete a comment (the last one removes the marker)"
}
func (commentRmCmd) Usage() string { return "comment-rm <marker-id> <comment-id>" }

func (commentRmCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	client, err := authedClient(cfg)
	if err != nil {
		return err
	}
	if err := client.DeleteComment(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Comment deleted")
	return nil
}

func init() {
	RegisterCmd(markersCmd{})
	RegisterCmd(markerAddCmd{})
	RegisterCmd(markerMoveCmd{})
	RegisterCmd(markerRmCmd{})
	RegisterCmd(commentsCmd{})
	RegisterCmd(commentAddCmd{})
	RegisterCmd(commentRmCmd{})
}
