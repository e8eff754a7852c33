package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/chaos-io/logokit/config"
	"github.com/chaos-io/logokit/logo"
	"github.com/chaos-io/logokit/logo/rembg"
	"github.com/chaos-io/logokit/server"
	"github.com/chaos-io/logokit/store"
	"github.com/chaos-io/logokit/util"
	nhttp "github.com/chaos-io/logokit/util/http"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("logokit", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a YAML config file")
	serve := fs.Bool("serve", false, "Start the HTTP API instead of processing files")
	outputDir := fs.String("out", "./output", "Directory for the generated PNGs")
	workers := fs.Int("workers", 0, "Images processed at once (0 = config / CPU count)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: logokit [-config file] [-out dir] [-workers n] <file|url>...\n       logokit [-config file] -serve\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		return 1
	}
	if *workers > 0 {
		cfg.Processing.Workers = *workers
	}

	logger, err := util.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "build logger:", err)
		return 1
	}
	log.Logger = logger

	processor, err := newProcessor(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("build processor")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serve {
		return runServer(ctx, cfg, processor, logger)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	return runFiles(ctx, processor, logger, fs.Args(), *outputDir)
}

func newProcessor(cfg config.Config, logger zerolog.Logger) (*logo.Processor, error) {
	tints, err := logo.ParseTints(cfg.Processing.Tints)
	if err != nil {
		return nil, err
	}

	pipelineOpts := []rembg.Option{
		rembg.WithLogger(logger),
		rembg.WithAntiAlias(cfg.Processing.AntiAliasPasses),
		rembg.WithSoften(cfg.Processing.Soften),
	}
	opts := []logo.Option{
		logo.WithLogger(logger),
		logo.WithValidator(logo.NewValidator(cfg.Processing.MaxFileSize)),
		logo.WithMaxDimension(cfg.Processing.MaxDimension),
		logo.WithTints(tints...),
	}
	if cfg.Processing.Workers > 0 {
		opts = append(opts, logo.WithWorkers(cfg.Processing.Workers))
	}
	opts = append(opts, logo.WithPipeline(rembg.NewPipeline(pipelineOpts...)))
	return logo.NewProcessor(opts...), nil
}

func runServer(ctx context.Context, cfg config.Config, p *logo.Processor, logger zerolog.Logger) int {
	if cfg.Server.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	st := store.New(cfg.Store.TTL, store.WithLogger(logger))
	if err := st.Start(cfg.Store.SweepSpec); err != nil {
		logger.Error().Err(err).Msg("start store")
		return 1
	}
	defer st.Stop()

	if err := server.New(p, st, server.WithLogger(logger)).Run(ctx, cfg.Server.Addr); err != nil {
		logger.Error().Err(err).Msg("server stopped")
		return 1
	}
	return 0
}

// runFiles 逐个读取输入，单个失败不影响其它，有失败时返回非零
func runFiles(ctx context.Context, p *logo.Processor, logger zerolog.Logger, sources []string, outputDir string) int {
	defer util.Trace("process logos")()

	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		logger.Error().Err(err).Str("dir", outputDir).Msg("create output dir")
		return 1
	}

	cli := nhttp.NewHTTPClient()
	var inputs []logo.Input
	failed := 0
	for _, src := range sources {
		data, err := util.ReadSource(ctx, cli, src)
		if err != nil {
			logger.Error().Err(err).Str("source", src).Msg("read input")
			failed++
			continue
		}
		inputs = append(inputs, logo.Input{Name: filepath.Base(src), Data: data})
	}

	for _, r := range p.ProcessBatch(ctx, inputs) {
		if r.Err != nil {
			logger.Error().Err(r.Err).Str("name", r.Name).Msg("process logo")
			failed++
			continue
		}
		if err := writeOutput(outputDir, r.Output, p.Variants()); err != nil {
			logger.Error().Err(err).Str("name", r.Name).Msg("write output")
			failed++
		}
	}

	if failed > 0 {
		logger.Warn().Int("failed", failed).Int("total", len(sources)).Msg("done with failures")
		return 1
	}
	logger.Info().Int("total", len(sources)).Str("dir", outputDir).Msg("done")
	return 0
}

func writeOutput(dir string, out *logo.Output, variants []logo.Variant) error {
	var errs []error
	for _, v := range variants {
		data, ok := out.Variants[v]
		if !ok {
			continue
		}
		path := filepath.Join(dir, logo.FileName(out.Name, v))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}
