// Package history keeps a ledger of placement runs.
package history

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DrSkyle/rackfit/pkg/storage"
)

// LedgerKey is the object holding one JSON snapshot per line.
const LedgerKey = "ledger.jsonl"

// Snapshot summarizes one run.
type Snapshot struct {
	Timestamp   int64 `json:"timestamp"`
	SearchWidth int   `json:"search_width"`
	Pairs       int   `json:"pairs"`
	FullPairs   int   `json:"fully_deployed_pairs"`
	Requests    int   `json:"requests"`
	Deployed    int   `json:"deployed"`
	Repairs     int   `json:"repairs_committed"`
}

// Rate is the fraction of requests placed across the run.
func (s Snapshot) Rate() float64 {
	if s.Requests == 0 {
		return 1
	}
	return float64(s.Deployed) / float64(s.Requests)
}

// Client manages historical state.
type Client struct {
	store storage.BlobStore
}

// NewClient initializes a history client on top of store.
func NewClient(store storage.BlobStore) *Client {
	return &Client{store: store}
}

// Append records a new snapshot.
func (c *Client) Append(ctx context.Context, s Snapshot) error {
	existing, err := c.store.Get(ctx, LedgerKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to read ledger: %w", err)
	}

	line, err := json.Marshal(s)
	if err != nil {
		return err
	}

	data := append(existing, append(line, '\n')...)
	if err := c.store.Put(ctx, LedgerKey, data); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}

// LoadWindow returns up to the last n snapshots, oldest first.
// n <= 0 returns everything.
func (c *Client) LoadWindow(ctx context.Context, n int) ([]Snapshot, error) {
	data, err := c.store.Get(ctx, LedgerKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	var history []Snapshot
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		var s Snapshot
		if err := json.Unmarshal(scanner.Bytes(), &s); err != nil {
			return nil, fmt.Errorf("corrupt ledger line: %w", err)
		}
		history = append(history, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}
	return history, nil
}
