// Package memory holds a variant ledger in process memory. It backs offline
// runs over an exported JSON snapshot and the pipeline tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"inventory-reconciler/internal/core"
)

// Store is a slice-backed ledger implementing both core.LedgerReader and core.VariantWriter.
type Store struct {
	mu       sync.Mutex
	variants []core.Variant
	index    map[string]int
	failures map[string]error
}

// New returns a Store seeded with variants. Later duplicates of an id replace earlier ones.
func New(variants ...core.Variant) *Store {
	s := &Store{index: make(map[string]int), failures: make(map[string]error)}
	for _, v := range variants {
		if i, ok := s.index[v.ID]; ok {
			s.variants[i] = v
			continue
		}
		s.index[v.ID] = len(s.variants)
		s.variants = append(s.variants, v)
	}
	return s
}

// snapshotFile accepts either a bare array of variants or {"variants": [...]}.
type snapshotFile struct {
	Variants []core.Variant `json:"variants"`
}

// LoadFile reads a JSON snapshot exported from the POS database.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	var variants []core.Variant
	if err := json.Unmarshal(data, &variants); err != nil {
		var wrapped snapshotFile
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
		}
		variants = wrapped.Variants
	}
	return New(variants...), nil
}

// SaveFile writes the current rows to path as {"variants": [...]}. The file is
// replaced by rename so a failed write leaves the previous snapshot intact.
func (s *Store) SaveFile(path string) error {
	data, err := json.MarshalIndent(snapshotFile{Variants: s.Variants()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace snapshot %s: %w", path, err)
	}
	return nil
}

// FailWrites makes every later write to variantID return err. Used to exercise partial failure.
func (s *Store) FailWrites(variantID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[variantID] = err
}

// Variants returns a copy of the current rows in insertion order.
func (s *Store) Variants() []core.Variant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Variant, len(s.variants))
	copy(out, s.variants)
	return out
}

// Get returns the current row for id.
func (s *Store) Get(id string) (core.Variant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return core.Variant{}, false
	}
	return s.variants[i], true
}

// LoadLedger returns the rows in scope, with linked parents and siblings.
func (s *Store) LoadLedger(ctx context.Context, scope core.LedgerScope) (core.LedgerSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return core.LedgerSnapshot{}, fmt.Errorf("failed to load ledger: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.LedgerSnapshot{Scope: scope, Variants: core.SelectScope(s.variants, scope)}, nil
}

// Writer returns the store itself; runs are not tracked in memory.
func (s *Store) Writer(runID string) core.VariantWriter {
	return s
}

// SetQuantity sets quantity, failing with core.ErrStaleVariant if the row no longer holds recorded.
func (s *Store) SetQuantity(ctx context.Context, variantID string, recorded, quantity int) error {
	return s.update(ctx, variantID, func(v *core.Variant) error {
		if v.Quantity != recorded {
			return fmt.Errorf("%w: %s quantity is %d, expected %d", core.ErrStaleVariant, variantID, v.Quantity, recorded)
		}
		v.Quantity = quantity
		return nil
	})
}

// SetStatus sets the IMEI status.
func (s *Store) SetStatus(ctx context.Context, variantID, status string) error {
	return s.update(ctx, variantID, func(v *core.Variant) error {
		v.Status = &status
		return nil
	})
}

// SetKind retags the variant.
func (s *Store) SetKind(ctx context.Context, variantID string, kind core.VariantKind) error {
	return s.update(ctx, variantID, func(v *core.Variant) error {
		v.Kind = kind
		return nil
	})
}

func (s *Store) update(ctx context.Context, variantID string, fn func(v *core.Variant) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failures[variantID]; err != nil {
		return err
	}
	i, ok := s.index[variantID]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrVariantNotFound, variantID)
	}
	v := s.variants[i]
	if err := fn(&v); err != nil {
		return err
	}
	s.variants[i] = v
	return nil
}
