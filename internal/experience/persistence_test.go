package experience

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParquet(t *testing.T) *ParquetPersistence {
	t.Helper()
	config := DefaultPersistenceConfig()
	config.Type = PersistenceTypeParquet
	config.BaseDir = t.TempDir()

	p, err := NewParquetPersistence(config, zerolog.New(zerolog.NewTestWriter(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestNewPersistence(t *testing.T) {
	tests := []struct {
		name     string
		typ      PersistenceType
		wantType interface{}
		wantErr  bool
	}{
		{name: "none", typ: PersistenceTypeNone, wantType: &NullPersistence{}},
		{name: "empty", typ: "", wantType: &NullPersistence{}},
		{name: "parquet", typ: PersistenceTypeParquet, wantType: &ParquetPersistence{}},
		{name: "unknown", typ: "s3", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := PersistenceConfig{Type: tt.typ, BaseDir: t.TempDir()}
			p, err := NewPersistence(config, zerolog.Nop())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPersistenceType)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, p)
		})
	}
}

func TestParquetPersistence_WriteAndRead(t *testing.T) {
	p := newTestParquet(t)
	ctx := context.Background()

	lookahead := &Record{MatchID: "match-a", Kind: KindDecision, Side: "P1", Turn: 3, UnitID: "p1-ranger",
		Action: "move", Target: "(2,5)", Score: 4.5, HasLookahead: true, Lookahead: 3.25, Intent: "advance"}
	applied := &Record{MatchID: "match-a", Kind: KindApplied, Side: "P1", Turn: 3, UnitID: "p1-ranger",
		Action: "move", Cost: 2, EnergyBefore: 50, EnergyAfter: 48, Reward: 0.1, Features: []float32{0, 0.5, 1}}
	other := &Record{MatchID: "match-b", Kind: KindDecision, Side: "P2", UnitID: "p2-general"}

	require.NoError(t, p.Write(ctx, []*Record{lookahead, applied, other}))

	got, err := p.Read(ctx, "match-a", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, lookahead.UnitID, got[0].UnitID)
	assert.Equal(t, lookahead.Target, got[0].Target)
	assert.Equal(t, lookahead.Intent, got[0].Intent)
	assert.True(t, got[0].HasLookahead)
	assert.Equal(t, 3.25, got[0].Lookahead)
	assert.Equal(t, int32(3), got[0].Turn)
	assert.Equal(t, applied.Features, got[1].Features)
	assert.Equal(t, int32(48), got[1].EnergyAfter)

	got, err = p.Read(ctx, "match-b", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p2-general", got[0].UnitID)

	stats := p.Stats()
	assert.Equal(t, int64(3), stats.TotalWritten)
	assert.Equal(t, int64(2), stats.FilesWritten)
	assert.Positive(t, stats.BytesWritten)
	assert.Equal(t, int64(3), stats.TotalRead)
}

func TestParquetPersistence_ReadOrderAndLimit(t *testing.T) {
	p := newTestParquet(t)
	ctx := context.Background()

	require.NoError(t, p.Write(ctx, []*Record{testRecord("a"), testRecord("b")}))
	require.NoError(t, p.Write(ctx, []*Record{testRecord("c")}))

	all, err := p.Read(ctx, "test-match", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].UnitID)
	assert.Equal(t, "c", all[2].UnitID)

	limited, err := p.Read(ctx, "test-match", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestParquetPersistence_NoTempFilesLeft(t *testing.T) {
	p := newTestParquet(t)
	require.NoError(t, p.Write(context.Background(), []*Record{testRecord("a")}))

	entries, err := os.ReadDir(filepath.Join(p.config.BaseDir, "test-match"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".parquet", filepath.Ext(entries[0].Name()))
}

func TestParquetPersistence_DeleteAndMatches(t *testing.T) {
	p := newTestParquet(t)
	ctx := context.Background()

	require.NoError(t, p.Write(ctx, []*Record{
		{MatchID: "m/1", Kind: KindDecision},
		{MatchID: "m2", Kind: KindDecision},
	}))

	matches, err := p.Matches()
	require.NoError(t, err)
	assert.Equal(t, []string{"m2", "m_1"}, matches)

	require.NoError(t, p.Delete(ctx, "m2"))
	got, err := p.Read(ctx, "m2", 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Error(t, p.Delete(ctx, ""))
}

func TestParquetPersistence_Closed(t *testing.T) {
	p := newTestParquet(t)
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Write(context.Background(), []*Record{testRecord("a")}), ErrPersistenceClosed)
}

func TestParquetPersistence_CancelledContext(t *testing.T) {
	p := newTestParquet(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Write(ctx, []*Record{testRecord("a")}), context.Canceled)
}

func TestParquetPersistence_RequiresDirectory(t *testing.T) {
	_, err := NewParquetPersistence(PersistenceConfig{Type: PersistenceTypeParquet}, zerolog.Nop())
	assert.Error(t, err)
}

func TestNullPersistence(t *testing.T) {
	n := NewNullPersistence()
	ctx := context.Background()

	require.NoError(t, n.Write(ctx, []*Record{testRecord("a"), testRecord("b")}))
	got, err := n.Read(ctx, "test-match", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int64(2), n.Stats().TotalWritten)
	assert.NoError(t, n.Close())
}
