package creators

import (
	"context"
	"log/slog"

	"github.com/aluiziolira/go-scrape-catalog/config"
)

// Open picks the creator index from cfg: Postgres when a database URL is
// set, a names file when one is given, otherwise an index that never matches.
// The returned func releases any connection.
func Open(ctx context.Context, cfg *config.Config) (Index, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		idx, err := NewPostgresIndex(ctx, cfg.DatabaseURL, cfg.CreatorsTable)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("creator index: postgres", slog.String("table", cfg.CreatorsTable))
		return idx, idx.Close, nil
	case cfg.CreatorsFile != "":
		idx, err := LoadStaticIndex(cfg.CreatorsFile)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("creator index: file", slog.String("path", cfg.CreatorsFile), slog.Int("names", idx.Len()))
		return idx, func() {}, nil
	default:
		slog.Warn("no creator index configured, artistExistsInDb will be false")
		return NopIndex{}, func() {}, nil
	}
}
