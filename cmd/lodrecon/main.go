package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	"github.com/urfave/cli/v2"

	"github.com/sixy6e/lod-recon/config"
	"github.com/sixy6e/lod-recon/crop"
	"github.com/sixy6e/lod-recon/elevation"
	"github.com/sixy6e/lod-recon/iodefs"
	"github.com/sixy6e/lod-recon/schedule"
	"github.com/sixy6e/lod-recon/search"
	"github.com/sixy6e/lod-recon/source"
	"github.com/sixy6e/lod-recon/tiledbio"
	"github.com/sixy6e/lod-recon/vectorio"
)

// exit codes, spec.md §6.
const (
	exitSuccess       = 0
	exitConfigError   = 2
	exitInputIOError  = 3
	exitPartialFail   = 4
	exitCancelled     = 5
)

func buildTileDBContext(configURI string) (*tiledb.Context, error) {
	var (
		cfg *tiledb.Config
		err error
	)
	if configURI == "" {
		cfg, err = tiledb.NewConfig()
	} else {
		cfg, err = tiledb.LoadConfig(configURI)
	}
	if err != nil {
		return nil, err
	}
	defer cfg.Free()

	return tiledb.NewContext(cfg)
}

// buildElevationFactory implements spec.md §4.5: an Interpolated surface
// when at least 3 ground points fell inside the footprint, else a Constant
// fallback at the crop's already-resolved GroundElevation.
func buildElevationFactory() schedule.ElevationFactory {
	return func(c *crop.Crop) elevation.Provider {
		if in, ok := elevation.NewInterpolated(c.GroundPoints); ok {
			return in
		}
		return elevation.NewConstant(c.GroundElevation)
	}
}

func loadSourcesAndFootprints(ctx context.Context, sourcePaths, footprintPaths []string, footprintReader iodefs.FootprintReader) ([]source.PointCloudSource, []source.Footprint, error) {
	sources, err := source.LoadSources(sourcePaths)
	if err != nil {
		return nil, nil, err
	}

	var footprints []source.Footprint
	for _, fp := range footprintPaths {
		err := footprintReader.ReadAll(ctx, fp, func(rec iodefs.FootprintRecord) error {
			footprints = append(footprints, source.Footprint{
				ID:                  rec.ID,
				Ring:                rec.Ring,
				HasConstructionYear: rec.HasConstructionYear,
				ConstructionYear:    rec.ConstructionYear,
				ForceLowLoD:         rec.ForceLowLoD,
			})
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
	}
	return sources, footprints, nil
}

// runBatch wires the whole pipeline together and runs it: load config,
// sources, footprints; build the cropper, elevation factory, mesh writer and
// scheduler; submit one job per footprint; report the exit code spec.md §6
// dictates from the outcomes.
func runBatch(ctx context.Context, cfg *config.Config, sourcePaths, footprintPaths []string, footprintReader iodefs.FootprintReader, reader iodefs.PointCloudReader, meshWriter iodefs.MeshWriter) int {
	sources, footprints, err := loadSourcesAndFootprints(ctx, sourcePaths, footprintPaths, footprintReader)
	if err != nil {
		log.Println("input error:", err)
		return exitInputIOError
	}
	if len(sources) == 0 {
		log.Println("no point cloud sources configured")
		return exitConfigError
	}

	cropper := crop.NewCropper(&cfg.Crop, reader, sources, nil)
	scheduler := schedule.New(cfg, cropper, buildElevationFactory(), meshWriter)

	jobs := make([]schedule.BuildingJob, len(footprints))
	for i, fp := range footprints {
		jobs[i] = schedule.BuildingJob{Footprint: fp}
	}

	outcomes := scheduler.Run(ctx, jobs)

	var failed, cancelled int
	for _, o := range outcomes {
		switch o.Kind {
		case schedule.KindInputIOError, schedule.KindTimeout, schedule.KindValidationFailed:
			failed++
		case schedule.KindCancelled:
			cancelled++
		}
	}
	log.Printf("processed %d buildings: %d failed, %d cancelled", len(outcomes), failed, cancelled)

	if ctx.Err() != nil {
		return exitCancelled
	}
	if cfg.FatalAtAnyBuilding && (failed > 0 || cancelled > 0) {
		return exitPartialFail
	}
	if failed > 0 {
		return exitPartialFail
	}
	return exitSuccess
}

func reconstructAction(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(cCtx.String("config"))
	if err != nil {
		return cli.Exit(err, exitConfigError)
	}

	tdbCtx, err := buildTileDBContext(cCtx.String("tiledb-config"))
	if err != nil {
		return cli.Exit(err, exitConfigError)
	}
	defer tdbCtx.Free()

	reader := tiledbio.NewTileDBPointCloudReader(tdbCtx)

	var meshWriter iodefs.MeshWriter
	if out := cCtx.String("outdir-uri"); out != "" {
		w, err := tiledbio.NewTileDBMeshWriter(tdbCtx, out)
		if err != nil {
			return cli.Exit(err, exitConfigError)
		}
		meshWriter = w
	}

	footprintReader := vectorio.NewGeoPackageFootprintReader(cCtx.String("layer"))

	code := runBatch(ctx, cfg,
		cCtx.StringSlice("source"),
		[]string{cCtx.String("footprints-uri")},
		footprintReader, reader, meshWriter,
	)
	if code != exitSuccess {
		return cli.Exit(fmt.Sprintf("exit code %d", code), code)
	}
	return nil
}

func reconstructTrawlAction(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(cCtx.String("config"))
	if err != nil {
		return cli.Exit(err, exitConfigError)
	}

	sourceURI := cCtx.String("source-uri")
	footprintURI := cCtx.String("footprints-uri")
	tileDBConfigURI := cCtx.String("tiledb-config")

	sourcePaths, err := search.FindSourceConfigs(sourceURI, tileDBConfigURI)
	if err != nil {
		return cli.Exit(err, exitInputIOError)
	}
	footprintPaths, err := search.FindFootprintSets(footprintURI, tileDBConfigURI)
	if err != nil {
		return cli.Exit(err, exitInputIOError)
	}
	if len(footprintPaths) == 0 {
		return cli.Exit(errors.New("no footprint sets found under "+footprintURI), exitInputIOError)
	}

	tdbCtx, err := buildTileDBContext(tileDBConfigURI)
	if err != nil {
		return cli.Exit(err, exitConfigError)
	}
	defer tdbCtx.Free()

	reader := tiledbio.NewTileDBPointCloudReader(tdbCtx)

	var meshWriter iodefs.MeshWriter
	if out := cCtx.String("outdir-uri"); out != "" {
		w, err := tiledbio.NewTileDBMeshWriter(tdbCtx, out)
		if err != nil {
			return cli.Exit(err, exitConfigError)
		}
		meshWriter = w
	}

	footprintReader := vectorio.NewGeoPackageFootprintReader(cCtx.String("layer"))

	code := runBatch(ctx, cfg, sourcePaths, footprintPaths, footprintReader, reader, meshWriter)
	if code != exitSuccess {
		return cli.Exit(fmt.Sprintf("exit code %d", code), code)
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:  "lodrecon",
		Usage: "per-building LoD roof reconstruction from airborne point clouds",
		Commands: []*cli.Command{
			{
				Name:  "reconstruct",
				Usage: "reconstruct buildings from one footprint set against named point-cloud sources",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Usage: "path to a YAML configuration file"},
					&cli.StringFlag{Name: "tiledb-config", Usage: "path to a TileDB config file"},
					&cli.StringSliceFlag{Name: "source", Usage: "path to a point-cloud source YAML descriptor (repeatable)"},
					&cli.StringFlag{Name: "footprints-uri", Usage: "URI or pathname to a footprint vector file"},
					&cli.StringFlag{Name: "layer", Usage: "vector layer name holding footprints"},
					&cli.StringFlag{Name: "outdir-uri", Usage: "URI or pathname to an output directory for reconstructed meshes"},
				},
				Action: reconstructAction,
			},
			{
				Name:  "reconstruct-batch",
				Usage: "trawl a directory/object-store tree for source configs and footprint sets, then reconstruct every building found",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Usage: "path to a YAML configuration file"},
					&cli.StringFlag{Name: "tiledb-config", Usage: "path to a TileDB config file"},
					&cli.StringFlag{Name: "source-uri", Usage: "URI or pathname to trawl for point-cloud source descriptors"},
					&cli.StringFlag{Name: "footprints-uri", Usage: "URI or pathname to trawl for footprint vector files"},
					&cli.StringFlag{Name: "layer", Usage: "vector layer name holding footprints"},
					&cli.StringFlag{Name: "outdir-uri", Usage: "URI or pathname to an output directory for reconstructed meshes"},
				},
				Action: reconstructTrawlAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
