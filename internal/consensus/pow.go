package consensus

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/Klingon-tech/utxoledger/pkg/block"
)

// MaxDifficulty is the number of hex characters in a block hash.
const MaxDifficulty = 64

// PoW errors.
var (
	ErrInsufficientWork = errors.New("hash does not meet difficulty target")
	ErrBadDifficulty    = errors.New("difficulty out of range")
	ErrHashMismatch     = errors.New("hash does not match block content")
	ErrSealCancelled    = errors.New("seal cancelled")
	ErrNonceExhausted   = errors.New("nonce space exhausted")
)

// cancelCheckMask sets how often a sealing goroutine polls its context.
const cancelCheckMask = 0xFFFF

// PoW implements leading-zero proof-of-work. A hash meets difficulty d
// when its hex form starts with d '0' characters.
type PoW struct {
	Difficulty int

	// Threads controls the number of parallel mining goroutines.
	// 0 or 1 = single-threaded (default). Each goroutine searches a
	// strided partition of the nonce space.
	Threads int
}

// NewPoW creates a new PoW engine.
func NewPoW(difficulty int) (*PoW, error) {
	if difficulty < 0 || difficulty > MaxDifficulty {
		return nil, fmt.Errorf("%w: %d", ErrBadDifficulty, difficulty)
	}
	return &PoW{Difficulty: difficulty}, nil
}

// Prepare sets the block difficulty for mining.
func (p *PoW) Prepare(blk *block.Block) error {
	if blk == nil {
		return fmt.Errorf("nil block")
	}
	blk.Difficulty = p.Difficulty
	return nil
}

// Verify checks that the block hash equals its recomputed content hash
// and carries the stated number of leading zeros.
func (p *PoW) Verify(blk *block.Block) error {
	if blk.Hash != blk.ContentHash() {
		return ErrHashMismatch
	}
	if !block.MeetsDifficulty(blk.Hash, blk.Difficulty) {
		return ErrInsufficientWork
	}
	return nil
}

// Seal mines the block by iterating the nonce from zero until the hash
// meets the block's difficulty. The lowest satisfying nonce is always
// chosen, also when Threads > 1. When ctx is cancelled the block is left
// untouched and an error wrapping ErrSealCancelled is returned.
func (p *PoW) Seal(ctx context.Context, blk *block.Block) error {
	if blk == nil {
		return fmt.Errorf("nil block")
	}
	if blk.Difficulty < 0 || blk.Difficulty > MaxDifficulty {
		return fmt.Errorf("%w: %d", ErrBadDifficulty, blk.Difficulty)
	}

	prefix := blk.HashPrefix()
	var (
		nonce uint64
		hash  string
		err   error
	)
	if p.Threads <= 1 {
		nonce, hash, err = sealSingle(ctx, prefix, blk.Difficulty)
	} else {
		nonce, hash, err = sealParallel(ctx, prefix, blk.Difficulty, p.Threads)
	}
	if err != nil {
		return err
	}
	blk.Nonce = nonce
	blk.Hash = hash
	return nil
}

func sealSingle(ctx context.Context, prefix string, difficulty int) (uint64, string, error) {
	for nonce := uint64(0); ; nonce++ {
		if nonce&cancelCheckMask == 0 {
			select {
			case <-ctx.Done():
				return 0, "", fmt.Errorf("%w: %w", ErrSealCancelled, ctx.Err())
			default:
			}
		}

		h := block.HashWithNonce(prefix, nonce)
		if block.MeetsDifficulty(h, difficulty) {
			return nonce, h, nil
		}
		if nonce == math.MaxUint64 {
			return 0, "", ErrNonceExhausted
		}
	}
}

// sealParallel searches strided partitions (goroutine i starts at nonce=i,
// step=threads). A goroutine keeps scanning until its nonce passes the
// lowest hit reported so far, so every smaller nonce is checked before
// the search ends.
func sealParallel(ctx context.Context, prefix string, difficulty, threads int) (uint64, string, error) {
	var (
		best     atomic.Uint64
		mu       sync.Mutex
		bestHash string
		wg       sync.WaitGroup
	)
	best.Store(math.MaxUint64)

	stride := uint64(threads)
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func(start uint64) {
			defer wg.Done()
			var iter uint64
			for nonce := start; nonce < best.Load(); nonce += stride {
				if iter&cancelCheckMask == 0 && ctx.Err() != nil {
					return
				}
				iter++

				h := block.HashWithNonce(prefix, nonce)
				if block.MeetsDifficulty(h, difficulty) {
					mu.Lock()
					if nonce < best.Load() {
						best.Store(nonce)
						bestHash = h
					}
					mu.Unlock()
					return
				}
				if nonce > math.MaxUint64-stride {
					return
				}
			}
		}(uint64(i))
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return 0, "", fmt.Errorf("%w: %w", ErrSealCancelled, err)
	}
	if bestHash == "" {
		return 0, "", ErrNonceExhausted
	}
	return best.Load(), bestHash, nil
}
