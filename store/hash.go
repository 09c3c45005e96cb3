package store

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/pithecene-io/battlelog/types"
)

// Hash keys in live_hash.
const (
	hashBattleType   = "battleType"
	hashCurrentRound = "currentRound"
	hashMaxRound     = "maxRound"
)

// GetHash returns the hash of the battle being recorded.
// The first call reads the database; later calls are served from cache.
func (s *Store) GetHash(ctx context.Context) (types.LogHash, error) {
	const op = "get_hash"
	if err := s.check(op); err != nil {
		return types.LogHash{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hash != nil {
		return *s.hash, nil
	}

	h, err := readHash(ctx, s.db, op)
	if err != nil {
		return types.LogHash{}, unavailable(op, err)
	}
	s.hash = &h
	return h, nil
}

// PutHash writes all three hash keys in one transaction, then refreshes
// the cache.
func (s *Store) PutHash(ctx context.Context, h types.LogHash) error {
	const op = "put_hash"

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withTx(ctx, op, func(tx *sql.Tx) error {
		return writeHash(ctx, tx, h)
	})
	if err != nil {
		return err
	}
	s.hash = &h
	return nil
}

func readHash(ctx context.Context, q queryer, op string) (types.LogHash, error) {
	kv, err := readKV(ctx, q, "live_hash")
	if err != nil {
		return types.LogHash{}, err
	}

	battleType, ok := kv[hashBattleType]
	if !ok {
		return types.LogHash{}, invariant(op, "live hash has no %s", hashBattleType)
	}
	cur, err := hashInt(op, kv, hashCurrentRound)
	if err != nil {
		return types.LogHash{}, err
	}
	maxRound, err := hashInt(op, kv, hashMaxRound)
	if err != nil {
		return types.LogHash{}, err
	}
	return types.LogHash{BattleType: battleType, CurrentRound: cur, MaxRound: maxRound}, nil
}

func hashInt(op string, kv map[string]string, key string) (int, error) {
	raw, ok := kv[key]
	if !ok {
		return 0, invariant(op, "live hash has no %s", key)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invariant(op, "live hash %s: %v", key, err)
	}
	return n, nil
}

func writeHash(ctx context.Context, q queryer, h types.LogHash) error {
	pairs := [][2]string{
		{hashBattleType, h.BattleType},
		{hashCurrentRound, strconv.Itoa(h.CurrentRound)},
		{hashMaxRound, strconv.Itoa(h.MaxRound)},
	}
	for _, p := range pairs {
		if err := putKV(ctx, q, "live_hash", p[0], p[1]); err != nil {
			return err
		}
	}
	return nil
}
