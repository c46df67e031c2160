package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"CyMarker/internal/config"
)

// parseXY разбирает пару координат из args[i], args[i+1]; без них — 0, 0.
func parseXY(args []string, i int) (x, y int, err error) {
	if len(args) <= i {
		return 0, 0, nil
	}
	if len(args) != i+2 {
		return 0, 0, ErrUsage
	}
	if x, err = strconv.Atoi(args[i]); err != nil {
		return 0, 0, ErrUsage
	}
	if y, err = strconv.Atoi(args[i+1]); err != nil {
		return 0, 0, ErrUsage
	}
	return x, y, nil
}

type imagesCmd struct{}

func (imagesCmd) Name() string        { return "images" }
func (imagesCmd) Description() string { return "List images" }
func (imagesCmd) Usage() string       { return "images" }

func (imagesCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	client, err := authedClient(cfg)
	if err != nil {
		return err
	}
	list, err := client.Images(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(Out, "No images")
		return nil
	}
	tw := tabwriter.NewWriter(Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEXT\tX\tY\tOWNER")
	for _, img := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", img.ID, img.Extension, img.X, img.Y, img.UserID)
	}
	return tw.Flush()
}

type imageAddCmd struct{}

func (imageAddCmd) Name() string        { return "image-add" }
func (imageAddCmd) Description() string { return "Create an image record, optionally uploading the file" }
func (imageAddCmd) Usage() string       { return "image-add <jpg|jpeg|png|gif> [<file>] [<x> <y>]" }

func (imageAddCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return ErrUsage
	}
	ext, rest := args[0], args[1:]
	var file string
	if len(rest)%2 == 1 {
		file, rest = rest[0], rest[1:]
	}
	x, y, err := parseXY(rest, 0)
	if err != nil {
		return err
	}

	client, err := authedClient(cfg)
	if err != nil {
		return err
	}
	img, err := client.CreateImage(ctx, ext, x, y)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Image created: %s\n", img.ID)
	if file == "" {
		return nil
	}
	return uploadFile(ctx, cfg, img.ID, file)
}

type imageUploadCmd struct{}

func (imageUploadCmd) Name() string        { return "image-upload" }
func (imageUploadCmd) Description() string { return "Upload the file of an owned image" }
func (imageUploadCmd) Usage() string       { return "image-upload <image-id> <file>" }

func (imageUploadCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	return uploadFile(ctx, cfg, args[0], args[1])
}

func uploadFile(ctx context.Context, cfg *config.Config, id, path string) error {
	client, err := authedClient(cfg)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	loc, err := client.UploadImage(ctx, id, f, info.Size())
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Uploaded: %s%s\n", cfg.ServerURL, loc)
	return nil
}

type imageMoveCmd struct{}

func (imageMoveCmd) Name() string        { return "image-move" }
func (imageMoveCmd) Description() string { return "Move an image on the canvas" }
func (imageMoveCmd) Usage() string       { return "image-move <image-id> <x> <y>" }

func (imageMoveCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
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
	img, err := client.MoveImage(ctx, args[0], x, y)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Image %s at %d,%d\n", img.ID, img.X, img.Y)
	return nil
}

type imageRmCmd struct{}

func (imageRmCmd) Name() string        { return "image-rm" }
func (imageRmCmd) Description() string { return "Delete an owned image" }
func (imageRmCmd) Usage() string       { return "image-rm <image-id>" }

func (imageRmCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	client, err := authedClient(cfg)
	if err != nil {
		return err
	}
	if err := client.DeleteImage(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Image deleted")
	return nil
}

func init() {
	RegisterCmd(imagesCmd{})
	RegisterCmd(imageAddCmd{})
	RegisterCmd(imageUploadCmd{})
	RegisterCmd(imageMoveCmd{})
	RegisterCmd(imageRmCmd{})
}
