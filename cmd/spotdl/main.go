package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"

	"spotdl/internal/acquire"
	"spotdl/internal/cache"
	"spotdl/internal/config"
	"spotdl/internal/lockfile"
	"spotdl/internal/model"
	"spotdl/internal/pipeline"
	"spotdl/internal/resolver"
	"spotdl/internal/scrape"
	"spotdl/internal/search"
	"spotdl/internal/segments"
	"spotdl/internal/tagger"
	"spotdl/internal/ui"
)

type Args struct {
	Inputs          []string `arg:"positional" help:"Manifest JSON files, .txt URL lists, or youtube URLs."`
	OutPath         string   `arg:"-o" help:"Where to download to. Path will be made if it doesn't already exist."`
	Config          string   `arg:"-c,--config" help:"Config file path. Defaults to the standard locations."`
	OutputOnly      bool     `arg:"--output-only" help:"Save files directly into the output directory, no artist/album folders."`
	SearchFormat    string   `arg:"--search-format" help:"Search query template, e.g. \"{artistName} {itemName} audio\"."`
	ExtraSearch     string   `arg:"--extra-search" help:"Extra terms appended to every search query."`
	Exclude         []string `arg:"--exclude,separate" help:"Skip results whose title or description contains this text."`
	CacheFile       string   `arg:"--cache-file" help:"Cache file name used inside each destination directory."`
	NoSegmentFilter bool     `arg:"--no-segment-filter" help:"Keep sponsor and intro/outro segments instead of trimming them."`
	MaxSearchMins   int      `arg:"--max-search-minutes" help:"Reject song search results at or above this many minutes."`
	DownloadReport  bool     `arg:"--download-report" help:"Print a table of failed items at the end of the run."`
	Lyrics          bool     `arg:"--lyrics" help:"Write lyrics carried on manifest items into the files."`
}

func (Args) Description() string {
	return "spotdl downloads audio from manifest lists and youtube links, trims junk segments, and tags the result.\n"
}

func main() {
	os.Exit(run())
}

func run() int {
	var args Args
	arg.MustParse(&args)

	printer := ui.NewPrinter(os.Stdout)

	cfg, err := config.Load(args.Config)
	if err != nil {
		printer.Errorf("%v", err)
		return 1
	}
	mergeArgs(cfg, args)

	if cfg.SearchFormat != "" {
		if _, err := resolver.ExpandTemplate(cfg.SearchFormat, sampleItem); err != nil {
			printer.Errorf("Invalid search format: %v", err)
			return 1
		}
	}

	ffmpegPath, err := cfg.ResolveFfmpegBinary()
	if err != nil {
		printer.Errorf("%v", err)
		return 1
	}

	if len(args.Inputs) == 0 {
		printer.Errorf("Nothing to do: pass at least one manifest file or URL")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lists, err := loadInputs(ctx, args.Inputs, scrape.NewClient(), printer)
	if err != nil {
		printer.Errorf("%v", err)
		return 1
	}

	lock, err := lockfile.Acquire(cfg.OutputDir, 10)
	if err != nil {
		printer.Errorf("%v", err)
		return 1
	}
	defer func() {
		if err := lock.Release(); err != nil {
			printer.Warnf("Failed to release run lock: %v", err)
		}
	}()

	res := resolver.New(search.NewClient(), resolver.Options{
		SearchFormat:     cfg.SearchFormat,
		ExtraSearch:      cfg.ExtraSearch,
		ExclusionFilters: cfg.ExclusionFilters,
		MaxDuration:      time.Duration(cfg.MaxDurationMins) * time.Minute,
	})

	var segs acquire.SegmentSource
	if !cfg.SponsorBlockDisabled {
		sb := segments.NewSponsorBlockClient()
		if len(cfg.SponsorBlockCategories) > 0 {
			sb.Categories = cfg.SponsorBlockCategories
		}
		segs = sb
	}

	engine := acquire.NewEngine(acquire.NewYtdlpDownloader(), acquire.NewHTTPDownloader(), segs, printer, ffmpegPath)
	engine.Bitrate = cfg.Bitrate

	tg := tagger.New(printer)
	tg.IncludeLyrics = cfg.Lyrics

	orch := &pipeline.Orchestrator{
		Store:      cache.NewStore(cfg.CacheFileName),
		Resolver:   res,
		Acquirer:   engine,
		Tagger:     tg,
		Printer:    printer,
		OutputDir:  cfg.OutputDir,
		OutputOnly: cfg.OutputOnly,
	}

	report, err := orch.Run(ctx, lists)
	if err != nil {
		printer.Errorf("%v", err)
		return 1
	}

	printer.Rule()
	pipeline.WriteReport(os.Stdout, report, cfg.DownloadReport)
	if report.HasFailures() {
		printer.Warnf("Some items failed; rerun to retry them")
	}
	fmt.Printf("\nFinished with %d errors and %d warnings.\n", printer.Errors(), printer.Warnings())
	return 0
}

// sampleItem exists only to validate a search format template at startup.
var sampleItem = model.DownloadItem{Name: "item", AlbumName: "album", Artists: []string{"artist"}}

func mergeArgs(cfg *config.Config, args Args) {
	if args.OutPath != "" {
		cfg.OutputDir = args.OutPath
	}
	if args.OutputOnly {
		cfg.OutputOnly = true
	}
	if args.SearchFormat != "" {
		cfg.SearchFormat = args.SearchFormat
	}
	if args.ExtraSearch != "" {
		cfg.ExtraSearch = args.ExtraSearch
	}
	if len(args.Exclude) > 0 {
		cfg.ExclusionFilters = append(cfg.ExclusionFilters, args.Exclude...)
	}
	if args.CacheFile != "" {
		cfg.CacheFileName = args.CacheFile
	}
	if args.NoSegmentFilter {
		cfg.SponsorBlockDisabled = true
	}
	if args.MaxSearchMins > 0 {
		cfg.MaxDurationMins = args.MaxSearchMins
	}
	if args.DownloadReport {
		cfg.DownloadReport = true
	}
	if args.Lyrics {
		cfg.Lyrics = true
	}
}
