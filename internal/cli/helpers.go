package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/deviceclean/internal/config"
	"github.com/JonMunkholm/deviceclean/internal/core"
	"github.com/JonMunkholm/deviceclean/internal/logging"
)

func (a *App) ingestOptions() (core.IngestOptions, error) {
	delim, err := config.ParseDelimiter(a.cfg.Ingest.Delimiter)
	if err != nil {
		return core.IngestOptions{}, err
	}
	return core.IngestOptions{
		Encoding:  a.cfg.Ingest.Encoding,
		Delimiter: delim,
		Sheet:     a.cfg.Ingest.Sheet,
		MaxBytes:  a.cfg.Ingest.MaxFileSize,
	}, nil
}

func (a *App) exportOptions(rowIDColumn string) (core.ExportOptions, error) {
	delim, err := config.ParseDelimiter(a.cfg.Export.Delimiter)
	if err != nil {
		return core.ExportOptions{}, err
	}
	opts := core.ExportOptions{
		Delimiter:      delim,
		CanonicalDates: a.cfg.Export.CanonicalDates,
		RowIDColumn:    a.cfg.Export.RowIDColumn,
		Sheet:          a.cfg.Export.Sheet,
	}
	if rowIDColumn != "" {
		opts.RowIDColumn = rowIDColumn
	}
	return opts, nil
}

// checkers builds the checker list, with the geocoding fallback when it is
// enabled.
func (a *App) checkers() []core.Checker {
	if !a.cfg.Geocode.Enabled {
		return core.DefaultCheckers(core.CheckerOptions{})
	}
	g := a.cfg.Geocode
	geocoder := core.NewRetryingGeocoder(
		core.NewNominatimGeocoder(g.Endpoint, g.UserAgent, g.Timeout),
		core.GeocodeOptions{Attempts: g.Attempts, Backoff: g.Backoff, CacheTTL: g.CacheTTL},
	)
	return core.DefaultCheckers(core.CheckerOptions{
		Countries: core.NewCountryNormalizer(core.WithGeocoder(geocoder)),
	})
}

// openSession ingests paths into a new session.
func (a *App) openSession(ctx context.Context, paths []string) (*core.Session, error) {
	opts, err := a.ingestOptions()
	if err != nil {
		return nil, err
	}
	t, err := core.IngestFiles(ctx, paths, opts)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	sess := core.NewSession(t, names...)
	logging.FromContext(ctx).Info("sources ingested",
		"session", sess.ID,
		"files", len(paths),
		"rows", t.Len(),
		"columns", len(t.Columns),
	)
	return sess, nil
}

func readPlanFile(path string) (core.Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Plan{}, fmt.Errorf("plan: %w", err)
	}
	defer f.Close()
	return core.ReadPlan(f)
}

// writeFile creates path and hands it to write. "-" writes to a.out.
func (a *App) writeFile(path string, write func(io.Writer) error) (err error) {
	if path == "-" {
		return write(a.out)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

// writeTable exports t to path in the format implied by its extension.
func (a *App) writeTable(path string, t *core.Table, opts core.ExportOptions) error {
	format := core.FormatDelimited
	if path != "-" {
		var err error
		if format, err = core.FormatForPath(path); err != nil {
			return err
		}
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = exportDelimiter(path)
	}
	return a.writeFile(path, func(w io.Writer) error {
		return core.WriteTable(w, t, format, opts)
	})
}

// exportDelimiter is the delimiter used when EXPORT_DELIMITER is unset.
func exportDelimiter(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return '\t'
	}
	return ','
}
