package experience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
	"github.com/rs/zerolog"
)

var (
	// ErrPersistenceClosed is returned when writing through a closed layer
	ErrPersistenceClosed = errors.New("persistence layer closed")
	// ErrInvalidPersistenceType is returned when an unknown persistence type is specified
	ErrInvalidPersistenceType = errors.New("invalid persistence type")
)

// traceSchema is stored in every file's key/value metadata.
const traceSchema = "decision_trace_v1"

// PersistenceType represents the type of persistence backend
type PersistenceType string

const (
	// PersistenceTypeNone discards traces
	PersistenceTypeNone PersistenceType = "none"
	// PersistenceTypeParquet writes zstd compressed parquet files
	PersistenceTypeParquet PersistenceType = "parquet"
)

// PersistenceConfig contains configuration for the persistence layer
type PersistenceConfig struct {
	Type    PersistenceType
	BaseDir string
}

// DefaultPersistenceConfig returns a default persistence configuration
func DefaultPersistenceConfig() PersistenceConfig {
	return PersistenceConfig{
		Type:    PersistenceTypeNone,
		BaseDir: "traces",
	}
}

// PersistenceLayer defines the interface for persisting trace records
type PersistenceLayer interface {
	// Write persists a batch of records
	Write(ctx context.Context, records []*Record) error

	// Read retrieves up to limit records of one match; limit <= 0 reads all
	Read(ctx context.Context, matchID string, limit int) ([]*Record, error)

	// Delete removes persisted records of one match
	Delete(ctx context.Context, matchID string) error

	// Close cleanly shuts down the persistence layer
	Close() error

	// Stats returns persistence statistics
	Stats() PersistenceStats
}

// PersistenceStats contains statistics about persistence operations
type PersistenceStats struct {
	TotalWritten  int64
	TotalRead     int64
	FilesWritten  int64
	BytesWritten  int64
	WriteErrors   int64
	ReadErrors    int64
	LastWriteTime time.Time
	LastReadTime  time.Time
}

// NewPersistence builds the layer selected by config.Type
func NewPersistence(config PersistenceConfig, logger zerolog.Logger) (PersistenceLayer, error) {
	switch config.Type {
	case PersistenceTypeNone, "":
		return NewNullPersistence(), nil
	case PersistenceTypeParquet:
		return NewParquetPersistence(config, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPersistenceType, config.Type)
	}
}

// ParquetPersistence writes each batch to its own file under
// BaseDir/<match id>/, going through a temp file and a rename so readers
// never see a partial file.
type ParquetPersistence struct {
	config PersistenceConfig
	logger zerolog.Logger

	mu     sync.RWMutex
	stats  PersistenceStats
	closed bool
}

// NewParquetPersistence creates the base directory and returns the layer
func NewParquetPersistence(config PersistenceConfig, logger zerolog.Logger) (*ParquetPersistence, error) {
	if config.BaseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if err := os.MkdirAll(config.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create base dir: %w", err)
	}
	return &ParquetPersistence{
		config: config,
		logger: logger.With().Str("component", "trace_persistence").Logger(),
	}, nil
}

// Write groups records by match and writes one file per match
func (p *ParquetPersistence) Write(ctx context.Context, records []*Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPersistenceClosed
	}

	byMatch := make(map[string][]Record)
	var order []string
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if _, ok := byMatch[rec.MatchID]; !ok {
			order = append(order, rec.MatchID)
		}
		byMatch[rec.MatchID] = append(byMatch[rec.MatchID], *rec)
	}

	for _, matchID := range order {
		rows := byMatch[matchID]
		path, size, err := p.writeFile(matchID, rows)
		if err != nil {
			p.stats.WriteErrors++
			return err
		}
		p.stats.TotalWritten += int64(len(rows))
		p.stats.FilesWritten++
		p.stats.BytesWritten += size
		p.stats.LastWriteTime = time.Now()
		p.logger.Debug().
			Str("match_id", matchID).
			Str("path", path).
			Int("rows", len(rows)).
			Msg("Wrote trace batch")
	}
	return nil
}

func (p *ParquetPersistence) writeFile(matchID string, rows []Record) (string, int64, error) {
	dir := p.matchDir(matchID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create match dir: %w", err)
	}

	name := fmt.Sprintf("batch_%019d_%s.parquet", time.Now().UnixNano(), uuid.NewString()[:8])
	finalPath := filepath.Join(dir, name)
	tmpPath := finalPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", traceSchema),
		parquet.KeyValueMetadata("match_id", matchID),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", 0, fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", 0, fmt.Errorf("rename parquet: %w", err)
	}

	var size int64
	if info, err := os.Stat(finalPath); err == nil {
		size = info.Size()
	}
	return finalPath, size, nil
}

// Read returns records of matchID in write order
func (p *ParquetPersistence) Read(ctx context.Context, matchID string, limit int) ([]*Record, error) {
	files, err := p.matchFiles(matchID)
	if err != nil {
		p.recordReadError()
		return nil, err
	}

	var out []*Record
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := readParquet(path)
		if err != nil {
			p.recordReadError()
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		for i := range rows {
			out = append(out, &rows[i])
			if limit > 0 && len(out) >= limit {
				p.recordRead(len(out))
				return out, nil
			}
		}
	}
	p.recordRead(len(out))
	return out, nil
}

func readParquet(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, err
	}

	reader := parquet.NewGenericReader[Record](pf)
	defer reader.Close()

	rows := make([]Record, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return rows[:n], nil
}

// Delete removes every file written for matchID
func (p *ParquetPersistence) Delete(ctx context.Context, matchID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if matchID == "" {
		return fmt.Errorf("match id is required")
	}
	return os.RemoveAll(p.matchDir(matchID))
}

// Matches lists the match ids with persisted traces
func (p *ParquetPersistence) Matches() ([]string, error) {
	entries, err := os.ReadDir(p.config.BaseDir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Close marks the layer closed
func (p *ParquetPersistence) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.logger.Info().
		Int64("records", p.stats.TotalWritten).
		Int64("files", p.stats.FilesWritten).
		Msg("Trace persistence closed")
	return nil
}

// Stats returns persistence statistics
func (p *ParquetPersistence) Stats() PersistenceStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

func (p *ParquetPersistence) matchDir(matchID string) string {
	return filepath.Join(p.config.BaseDir, sanitize(matchID))
}

// matchFiles lists finished files in name order, which is write order
// because names start with the zero-padded write time.
func (p *ParquetPersistence) matchFiles(matchID string) ([]string, error) {
	entries, err := os.ReadDir(p.matchDir(matchID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".parquet") {
			continue
		}
		files = append(files, filepath.Join(p.matchDir(matchID), e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func (p *ParquetPersistence) recordRead(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.TotalRead += int64(n)
	p.stats.LastReadTime = time.Now()
}

func (p *ParquetPersistence) recordReadError() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.ReadErrors++
}

func sanitize(id string) string {
	if id == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '.':
			return '_'
		}
		return r
	}, id)
}

// NullPersistence accepts and discards everything
type NullPersistence struct {
	mu    sync.Mutex
	stats PersistenceStats
}

// NewNullPersistence creates a layer that discards writes
func NewNullPersistence() *NullPersistence {
	return &NullPersistence{}
}

func (n *NullPersistence) Write(ctx context.Context, records []*Record) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stats.TotalWritten += int64(len(records))
	n.stats.LastWriteTime = time.Now()
	return nil
}

func (n *NullPersistence) Read(ctx context.Context, matchID string, limit int) ([]*Record, error) {
	return nil, nil
}

func (n *NullPersistence) Delete(ctx context.Context, matchID string) error { return nil }

func (n *NullPersistence) Close() error { return nil }

func (n *NullPersistence) Stats() PersistenceStats {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stats
}
