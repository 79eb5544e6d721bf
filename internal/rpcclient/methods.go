package rpcclient

import (
	"context"

	"github.com/Klingon-tech/utxoledger/internal/ledger"
	"github.com/Klingon-tech/utxoledger/internal/rpc"
	"github.com/Klingon-tech/utxoledger/pkg/block"
	"github.com/Klingon-tech/utxoledger/pkg/tx"
)

// Info returns a summary of the node's chain state.
func (c *Client) Info() (*ledger.Info, error) {
	var info ledger.Info
	if err := c.Call("chain_getInfo", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Blocks returns the whole chain, genesis first.
func (c *Client) Blocks() ([]*block.Block, error) {
	var blocks []*block.Block
	if err := c.Call("chain_getBlocks", nil, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// BlockByIndex returns the block at height index.
func (c *Client) BlockByIndex(index int64) (*block.Block, error) {
	var blk block.Block
	if err := c.Call("chain_getBlockByIndex", rpc.IndexParam{Index: index}, &blk); err != nil {
		return nil, err
	}
	return &blk, nil
}

// IsValid reports whether the node's chain passes the hash-link check.
func (c *Client) IsValid() (bool, error) {
	var res rpc.ValidResult
	if err := c.Call("chain_isValid", nil, &res); err != nil {
		return false, err
	}
	return res.Valid, nil
}

// CreateTx queues a transfer of amount from one address to another.
func (c *Client) CreateTx(from, to string, amount int64, signature string) (*tx.Transaction, error) {
	var t tx.Transaction
	params := rpc.TxCreateParam{From: from, To: to, Amount: amount, Signature: signature}
	if err := c.Call("tx_create", params, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateSignedTx queues a transfer authorized by a signature over
// ledger.SigningMessage(from, to, amount).
func (c *Client) CreateSignedTx(from, to string, amount int64, sigHex, pubKeyHex string) (*tx.Transaction, error) {
	var t tx.Transaction
	params := rpc.TxCreateSignedParam{
		From:      from,
		To:        to,
		Amount:    amount,
		Signature: sigHex,
		PublicKey: pubKeyHex,
	}
	if err := c.Call("tx_createSigned", params, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Pending returns the mempool contents in admission order.
func (c *Client) Pending() ([]*tx.Transaction, error) {
	var res rpc.MempoolContentResult
	if err := c.Call("mempool_getContent", nil, &res); err != nil {
		return nil, err
	}
	return res.Transactions, nil
}

// Balance returns the confirmed balance of address.
func (c *Client) Balance(address string) (int64, error) {
	var res rpc.BalanceResult
	if err := c.Call("utxo_getBalance", rpc.AddressParam{Address: address}, &res); err != nil {
		return 0, err
	}
	return res.Balance, nil
}

// UTXOs lists the unspent outputs owned by address.
func (c *Client) UTXOs(address string) (*rpc.UTXOListResult, error) {
	var res rpc.UTXOListResult
	if err := c.Call("utxo_list", rpc.AddressParam{Address: address}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Mine asks the node to seal a block paying miner. An empty miner uses
// the node's default. Mining blocks until the block is sealed or ctx ends.
func (c *Client) Mine(ctx context.Context, miner string) (*block.Block, error) {
	var blk block.Block
	if err := c.CallContext(ctx, "mining_mine", rpc.MineParam{Miner: miner}, &blk); err != nil {
		return nil, err
	}
	return &blk, nil
}

// WalletCreate asks the node for a fresh key, optionally with a mnemonic.
func (c *Client) WalletCreate(withMnemonic bool) (*rpc.WalletResult, error) {
	var res rpc.WalletResult
	if err := c.Call("wallet_create", rpc.WalletCreateParam{Mnemonic: withMnemonic}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// WalletImport derives wallet details from a private key or mnemonic.
func (c *Client) WalletImport(params rpc.WalletImportParam) (*rpc.WalletResult, error) {
	var res rpc.WalletResult
	if err := c.Call("wallet_import", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
