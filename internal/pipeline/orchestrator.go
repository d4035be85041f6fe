// Package pipeline sequences the whole run: for every list, every item is
// checked against the cache, resolved to candidates, acquired, tagged and
// recorded, in insertion order. One item's failure never stops the run.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"spotdl/internal/model"
	"spotdl/internal/ui"
)

// maxBaseNameLen bounds the file and folder names built from catalog
// metadata, in runes.
const maxBaseNameLen = 120

var sanRegex = regexp.MustCompile(`[\/:*?"><|]`)

// Store is the per-directory acquisition cache.
type Store interface {
	Has(dir, id string) (bool, error)
	Record(dir, id string) error
}

// CandidateResolver turns an item into an ordered candidate URL list.
type CandidateResolver interface {
	Resolve(ctx context.Context, item model.DownloadItem, kind model.ListKind) ([]string, error)
}

// Acquirer tries candidates in order and reports whether one produced the
// output file.
type Acquirer interface {
	Acquire(ctx context.Context, candidates []string, outPath string) bool
}

// MetadataTagger writes item metadata into an acquired file.
type MetadataTagger interface {
	Tag(ctx context.Context, path string, item model.DownloadItem) error
}

// Orchestrator drives lists through the cache, resolver, acquirer and
// tagger. All collaborators are injected; it owns no I/O of its own beyond
// path construction.
type Orchestrator struct {
	Store    Store
	Resolver CandidateResolver
	Acquirer Acquirer
	Tagger   MetadataTagger
	Printer  *ui.Printer

	// OutputDir is the run's destination root.
	OutputDir string
	// OutputOnly flattens output directly into OutputDir instead of the
	// artist/album hierarchy.
	OutputOnly bool
}

// Run processes every list in order and returns the run report. It fails
// fast only on malformed input (an unknown list kind) or a cancelled
// context; item-level failures are recorded and the run continues.
func (o *Orchestrator) Run(ctx context.Context, lists []model.DownloadList) (model.RunReport, error) {
	for _, list := range lists {
		if !list.Kind.Valid() {
			return model.RunReport{}, fmt.Errorf("unknown list kind %q for list %q", list.Kind, list.Name)
		}
	}

	var report model.RunReport
	for _, list := range lists {
		o.Printer.Rule()
		o.Printer.Infof("Processing %s (%d items)", list.Name, len(list.Items))

		listReport := model.ListReport{Name: list.Name, Kind: list.Kind}
		for _, item := range list.Items {
			// Stop at the item boundary on interrupt instead of marching
			// through the rest and misreporting them as failed.
			if err := ctx.Err(); err != nil {
				return model.RunReport{}, fmt.Errorf("run interrupted: %w", err)
			}
			listReport.Items = append(listReport.Items, model.ItemReport{
				Name:    item.Name,
				Album:   item.AlbumName,
				Artist:  item.PrimaryArtist(),
				ID:      item.ID,
				Outcome: o.processItem(ctx, item, list.Kind),
			})
		}
		report.Lists = append(report.Lists, listReport)
	}
	return report, nil
}

func (o *Orchestrator) processItem(ctx context.Context, item model.DownloadItem, kind model.ListKind) model.Outcome {
	o.Printer.Musicf("%s", itemLabel(item))

	// One unreadable destination directory fails its item, not the run.
	dir := o.itemDir(item)
	cached, err := o.Store.Has(dir, item.ID)
	if err != nil {
		o.Printer.Errorf("Cache check failed: %v", err)
		return model.OutcomeFailed
	}
	if cached {
		o.Printer.Infof("Already acquired, skipping")
		return model.OutcomeCached
	}

	candidates, err := o.candidates(ctx, item, kind)
	if err != nil {
		o.Printer.Errorf("Candidate resolution failed: %v", err)
		return model.OutcomeFailed
	}
	if len(candidates) == 0 {
		o.Printer.Errorf("No candidates found for %s", itemLabel(item))
		return model.OutcomeFailed
	}

	outPath := filepath.Join(dir, baseName(item.Name)+".mp3")
	if !o.Acquirer.Acquire(ctx, candidates, outPath) {
		o.Printer.Errorf("All candidates failed for %s", itemLabel(item))
		return model.OutcomeFailed
	}

	// Tag trouble degrades the file's metadata, not the run: the audio is
	// on disk and the item counts as downloaded.
	if err := o.Tagger.Tag(ctx, outPath, item); err != nil {
		o.Printer.Warnf("Tagging failed: %v", err)
	}

	if err := o.Store.Record(dir, item.ID); err != nil {
		o.Printer.Warnf("Failed to record cache entry: %v", err)
	}
	o.Printer.Successf("Finished %s", itemLabel(item))
	return model.OutcomeDownloaded
}

// candidates returns the item's source URLs: a direct URL stands alone,
// everything else goes through search resolution.
func (o *Orchestrator) candidates(ctx context.Context, item model.DownloadItem, kind model.ListKind) ([]string, error) {
	if item.DirectURL != "" {
		return []string{item.DirectURL}, nil
	}
	return o.Resolver.Resolve(ctx, item, kind)
}

// itemDir picks the destination directory: <out>/<artist>/<album> in the
// default layout, OutputDir itself when flattened or when the item has no
// artist or album to build a hierarchy from.
func (o *Orchestrator) itemDir(item model.DownloadItem) string {
	if o.OutputOnly {
		return o.OutputDir
	}
	artist := baseName(item.PrimaryArtist())
	album := baseName(item.AlbumName)
	if artist == "" || album == "" {
		return o.OutputDir
	}
	return filepath.Join(o.OutputDir, artist, album)
}

func itemLabel(item model.DownloadItem) string {
	if artist := item.PrimaryArtist(); artist != "" {
		return artist + " - " + item.Name
	}
	return item.Name
}

// baseName sanitizes a metadata string for use as a path element and caps
// its length.
func baseName(name string) string {
	san := sanRegex.ReplaceAllString(strings.TrimSpace(name), "_")
	runes := []rune(san)
	if len(runes) > maxBaseNameLen {
		san = string(runes[:maxBaseNameLen])
	}
	return strings.TrimSpace(san)
}
