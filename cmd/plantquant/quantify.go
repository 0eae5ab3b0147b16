package main

import (
	"context"
	"log"

	"github.com/ironsheep/plantquant/internal/config"
	"github.com/ironsheep/plantquant/internal/export"
	"github.com/ironsheep/plantquant/internal/imaging"
	"github.com/ironsheep/plantquant/internal/plant"
)

// runQuantify processes every plant found in args with cfg and writes the
// configured outputs. A plant that fails is logged and skipped; the number
// of failed plants is returned. The error is reserved for problems that
// stop the whole batch.
func runQuantify(ctx context.Context, cfg config.Config, args []string) (int, error) {
	cat, err := plant.Collect(args)
	if err != nil {
		return 0, err
	}
	opts, err := cfg.SessionOptions()
	if err != nil {
		return 0, err
	}
	for _, r := range cat.Rejected {
		log.Printf("skipping %s: %s", r.Path, r.Reason)
	}
	if len(cat.Groups) == 0 {
		log.Printf("no plants found")
		return 0, nil
	}

	failed := 0
	for _, g := range cat.Groups {
		if err := ctx.Err(); err != nil {
			return failed, err
		}
		// Each plant gets its own cache so channels are released between plants.
		ps := plant.NewSession(g, imaging.NewSourceCache(), opts)
		if err := quantifyPlant(ctx, ps, cfg); err != nil {
			log.Printf("%s: %v", g.Plant, err)
			failed++
		}
	}
	return failed, nil
}

func quantifyPlant(ctx context.Context, ps *plant.Session, cfg config.Config) error {
	res, err := ps.Quantify(ctx)
	if err != nil {
		return err
	}
	ref, err := ps.Load(res.Reference.Path)
	if err != nil {
		return err
	}
	out, err := export.WriteResult(ctx, cfg.Output.Dir, res, ref.Intensity, cfg.ExportOptions())
	if err != nil {
		return err
	}
	log.Printf("%s: %d regions x %d elements (threshold %d)", res.Plant, res.Table.Regions(), len(res.Table.Elements), res.Threshold.Value)
	if out.CSV != "" {
		log.Printf("%s: wrote %s", res.Plant, out.CSV)
	}
	return nil
}
