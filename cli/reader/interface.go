package reader

import (
	"context"

	"github.com/pithecene-io/battlelog/stats"
	"github.com/pithecene-io/battlelog/types"
)

// Reader abstracts read-only data access for CLI commands.
// Implementations must not mutate the store.
type Reader interface {
	ListBattles(ctx context.Context, opts ListBattlesOptions) ([]ListBattleItem, error)

	InspectBattle(ctx context.Context, id int64) (*InspectBattleResponse, error)
	InspectLive(ctx context.Context) (*InspectBattleResponse, error)

	StatsBattle(ctx context.Context, id int64) (*stats.Summary, error)
	StatsLive(ctx context.Context) (*stats.Summary, error)
}

// Store is the subset of *store.Store the reader needs.
type Store interface {
	ListArchives(ctx context.Context, limit int) ([]types.ArchiveSummary, error)
	GetArchive(ctx context.Context, id int64) (*types.CompleteLog, error)
	Live(ctx context.Context) (*types.CompleteLog, error)
	GetHash(ctx context.Context) (types.LogHash, error)
}
