// Package consensus defines the block sealing engine.
package consensus

import (
	"context"

	"github.com/Klingon-tech/utxoledger/pkg/block"
)

// Engine prepares, seals and verifies blocks.
type Engine interface {
	// Prepare stamps the engine's difficulty into an unsealed block.
	Prepare(blk *block.Block) error
	// Seal searches for a nonce and sets blk.Nonce and blk.Hash.
	// It blocks until a nonce is found or ctx is cancelled.
	Seal(ctx context.Context, blk *block.Block) error
	// Verify checks the block hash against its content and difficulty.
	Verify(blk *block.Block) error
}
