package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// RedisConfig configures the Redis sink.
type RedisConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
	Prefix   string // key prefix, "folio:" if empty
}

// Redis writes each tab to a hash keyed by the A1 notation of its cells.
type Redis struct {
	client *goredis.Client
	prefix string
	logger *slog.Logger
}

// NewRedis creates a new Redis sink and pings the server.
func NewRedis(ctx context.Context, cfg RedisConfig, logger *slog.Logger) (*Redis, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "folio:"
	}
	logger.Debug("redis connected", "addr", cfg.Addr)
	return &Redis{client: client, prefix: prefix, logger: logger}, nil
}

// key returns the hash key of a tab.
func (r *Redis) key(tab string) string { return r.prefix + tab }

// Clear deletes the cells of the region, or the whole hash for a tab.
func (r *Redis) Clear(ctx context.Context, region string) error {
	reg, err := ParseRegion(region)
	if err != nil {
		return err
	}
	key := r.key(reg.Tab)
	if reg.Whole {
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis DEL %s: %w", key, err)
		}
		return nil
	}
	if err := r.client.HDel(ctx, key, regionFields(reg)...).Err(); err != nil {
		return fmt.Errorf("redis HDEL %s: %w", key, err)
	}
	return nil
}

// regionFields lists the hash fields of every cell in the region.
func regionFields(reg Region) []string {
	fields := make([]string, 0, (reg.To.Row-reg.From.Row+1)*(reg.To.Col-reg.From.Col+1))
	for row := reg.From.Row; row <= reg.To.Row; row++ {
		for col := reg.From.Col; col <= reg.To.Col; col++ {
			fields = append(fields, Cell{Row: row, Col: col}.String())
		}
	}
	return fields
}

// WriteTable writes rows with their top left cell at location, in a single pipeline.
func (r *Redis) WriteTable(ctx context.Context, location string, rows [][]string) error {
	tab, at, err := ParseLocation(location)
	if err != nil {
		return err
	}
	key := r.key(tab)
	set, del := tableFields(at, rows)

	pipe := r.client.TxPipeline()
	if len(set) > 0 {
		pipe.HSet(ctx, key, set)
	}
	if len(del) > 0 {
		pipe.HDel(ctx, key, del...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis write %s: %w", location, err)
	}
	r.logger.Debug("table written", "location", location, "rows", len(rows))
	return nil
}

// tableFields splits the table cells into fields to set and fields to delete.
func tableFields(at Cell, rows [][]string) (set map[string]any, del []string) {
	set = make(map[string]any)
	cells(at, rows, func(c Cell, v string) {
		if v == "" {
			del = append(del, c.String())
			return
		}
		set[c.String()] = v
	})
	return set, del
}

// Close closes the client.
func (r *Redis) Close() error { return r.client.Close() }
