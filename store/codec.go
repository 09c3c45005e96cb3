package store

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/battlelog/types"
)

func encodeEntry(e types.LogEntry) ([]byte, error) {
	b, err := msgpack.Marshal(&e)
	if err != nil {
		return nil, fmt.Errorf("encode entry: %w", err)
	}
	return b, nil
}

func decodeEntry(op string, b []byte) (types.LogEntry, error) {
	var e types.LogEntry
	if err := msgpack.Unmarshal(b, &e); err != nil {
		return types.LogEntry{}, invariant(op, "decode entry: %v", err)
	}
	return e, nil
}

func encodeEntries(entries []types.LogEntry) ([]byte, error) {
	b, err := msgpack.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode entries: %w", err)
	}
	return b, nil
}

func decodeEntries(op string, b []byte) ([]types.LogEntry, error) {
	var entries []types.LogEntry
	if err := msgpack.Unmarshal(b, &entries); err != nil {
		return nil, invariant(op, "decode entries: %v", err)
	}
	return entries, nil
}
