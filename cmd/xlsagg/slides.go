package main

import (
	"context"
	"errors"
	"fmt"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/TsubasaBE/go-xls/aggregate"
	"github.com/TsubasaBE/go-xls/internal/cfb"
	"github.com/TsubasaBE/go-xls/slidetext"
)

var instanceNames = map[uint16]string{
	slidetext.InstanceSlides:  "slides",
	slidetext.InstanceMasters: "masters",
	slidetext.InstanceNotes:   "notes",
}

func runSlides(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	if cmd.Args().Len() != 1 {
		return errors.New("slides expects exactly one SOURCE")
	}
	src := cmd.Args().Get(0)

	_, stream, err := cfb.ReadFileStream(src, cfb.PowerPointStream)
	if err != nil {
		return fmt.Errorf("unable to read presentation '%s': %w", src, err)
	}
	containers, err := slidetext.Find(stream)
	if err != nil {
		// Lists found before the damage are still listed.
		env.Log.Warn("PowerPoint stream is damaged", zap.String("file", src), zap.Error(err))
	}

	out := cmd.Root().Writer
	var errs error
	for i, c := range containers {
		diags := aggregate.NewDiagnostics(env.Log)
		l, err := slidetext.Parse(c, diags)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("list %d: %w", i, err))
			continue
		}
		fmt.Fprintf(out, "List %d (%s): %d sets\n", i, instanceNames[slidetext.Instance(c)], l.Len())
		for _, s := range l.Sets() {
			fmt.Fprintf(out, "  slide %d ref %d\n", s.SlideID(), s.RefID())
			for _, t := range s.Texts() {
				fmt.Fprintf(out, "    %q\n", t)
			}
		}
		for _, d := range diags.Items() {
			fmt.Fprintf(out, "  ! %s\n", d)
		}
	}
	return errs
}
