package ledger

import (
	"fmt"
)

// IsValid reports whether every non-genesis block's stored hash matches
// its recomputed content hash and links to its predecessor's hash.
func (l *Ledger) IsValid() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := 1; i < len(l.chain); i++ {
		curr, prev := l.chain[i], l.chain[i-1]
		if curr.Hash != curr.ContentHash() {
			return false
		}
		if curr.PrevHash != prev.Hash {
			return false
		}
	}
	return true
}

// Audit runs the full structural check on every block, including the
// genesis block and proof-of-work, and returns the first failure.
func (l *Ledger) Audit() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i, blk := range l.chain {
		if blk.Index != int64(i) {
			return fmt.Errorf("%w: block at position %d has index %d", ErrChainTampered, i, blk.Index)
		}
		if err := blk.Validate(); err != nil {
			return fmt.Errorf("%w: block %d: %w", ErrChainTampered, i, err)
		}
		if blk.Difficulty != l.difficulty {
			return fmt.Errorf("%w: block %d difficulty %d, want %d", ErrChainTampered, i, blk.Difficulty, l.difficulty)
		}
		if err := l.engine.Verify(blk); err != nil {
			return fmt.Errorf("%w: block %d: %w", ErrChainTampered, i, err)
		}
		if i > 0 && blk.PrevHash != l.chain[i-1].Hash {
			return fmt.Errorf("%w: block %d does not link to block %d", ErrChainTampered, i, i-1)
		}
	}
	return nil
}
