package sink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/etnz/folio"
)

// Sink is a ResultSink that must be closed once the run is over.
type Sink interface {
	folio.ResultSink
	io.Closer
}

// Open returns the sink selected by cfg.
// A markdown sink without path writes to stdout.
func Open(ctx context.Context, cfg folio.SinkConfig, logger *slog.Logger) (Sink, error) {
	switch cfg.Type {
	case "", "markdown":
		if cfg.Path == "" {
			return NewMarkdown(os.Stdout, logger), nil
		}
		return NewMarkdownFile(cfg.Path, logger), nil
	case "sqlite":
		return NewSQLite(cfg.Path, logger)
	case "redis":
		s, err := NewRedis(ctx, RedisConfig{Addr: cfg.Addr, DB: cfg.DB, Prefix: cfg.Prefix}, logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", folio.ErrStoreUnavailable, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown sink type %q", folio.ErrConfiguration, cfg.Type)
	}
}

var (
	_ Sink = (*Markdown)(nil)
	_ Sink = (*SQLite)(nil)
	_ Sink = (*Redis)(nil)
)
