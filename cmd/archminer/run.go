package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/archminer/internal/annotator"
	"github.com/fyrsmithlabs/archminer/internal/community"
	"github.com/fyrsmithlabs/archminer/internal/config"
	"github.com/fyrsmithlabs/archminer/internal/exporter"
	"github.com/fyrsmithlabs/archminer/internal/extractor"
	"github.com/fyrsmithlabs/archminer/internal/finder"
	"github.com/fyrsmithlabs/archminer/internal/loader"
	"github.com/fyrsmithlabs/archminer/internal/logging"
	"github.com/fyrsmithlabs/archminer/internal/pipeline"
	"github.com/fyrsmithlabs/archminer/internal/project"
)

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if forceExtract {
		cfg.Arcan.ForceRun = true
	}
	if forceCommunities {
		cfg.Community.ForceRun = true
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Pipeline.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.Pipeline.MetricsAddr, Handler: promhttp.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn(ctx, "metrics server stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info(ctx, "serving metrics", zap.String("addr", cfg.Pipeline.MetricsAddr))
	}

	stages, err := buildStages(ctx, cfg, logger)
	if err != nil {
		return err
	}

	pl, err := pipeline.New(stages, logger)
	if err != nil {
		return err
	}

	count := cfg.Pipeline.Count
	if countFlag > 0 {
		count = countFlag
	}
	parallelism := cfg.Pipeline.Parallelism
	if parallelismFlag >= 0 {
		parallelism = parallelismFlag
	}

	report, err := pl.Run(ctx, count, parallelism)
	if err != nil {
		return err
	}
	if report.DiscoveryErr != nil {
		return report.DiscoveryErr
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d succeeded, %d failed of %d (%s)\n",
		report.RunID, report.Succeeded, report.Failed, report.Total, report.Duration.Round(time.Millisecond))
	for _, f := range report.Failures {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s failed in %s: %v\n", f.Project, f.Stage, f.Err)
	}
	return nil
}

// buildStages wires the pipeline collaborators from config.
func buildStages(ctx context.Context, cfg *config.Config, logger *logging.Logger) (pipeline.Stages, error) {
	find := finder.NewGitHubFinder(ctx, cfg.GitHub.Token, finder.Options{
		MinStars:     cfg.GitHub.MinStars,
		PushedBefore: cfg.GitHub.PushedBefore,
		Language:     cfg.GitHub.Language,
		ArchivedOnly: cfg.GitHub.ArchivedOnly,
	}, logger)

	annotate := annotator.NewAutoFL(cfg.Annotator.Endpoint, cfg.Annotator.Timeout.Duration(), logger)

	extract := extractor.NewArcan(cfg.Arcan, logger)

	communities, err := community.NewExtractor(cfg.Community, logger)
	if err != nil {
		return pipeline.Stages{}, err
	}

	opts := project.ExportOptions{
		ExcludeGraph:       cfg.Export.ExcludeGraph,
		ExcludeFileContent: cfg.Export.ExcludeFileContent,
	}
	exporters := []exporter.Exporter{
		exporter.NewJSONExporter(cfg.Export.OutputDir, opts, logger),
	}
	if cfg.Export.MinIO.Enabled {
		minioExporter, err := exporter.NewMinIOExporter(cfg.Export.MinIO, opts, logger)
		if err != nil {
			return pipeline.Stages{}, err
		}
		exporters = append(exporters, minioExporter)
	}

	return pipeline.Stages{
		Finder:    find,
		Loader:    loader.NewFileLoader(cfg.Export.OutputDir, logger),
		Annotator: annotate,
		Extractor: extract,
		Community: communities,
		Exporters: exporters,
	}, nil
}
