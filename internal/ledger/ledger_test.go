package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Klingon-tech/utxoledger/internal/consensus"
	"github.com/Klingon-tech/utxoledger/internal/mempool"
	"github.com/Klingon-tech/utxoledger/internal/storage"
	"github.com/Klingon-tech/utxoledger/internal/utxo"
	"github.com/Klingon-tech/utxoledger/pkg/block"
	"github.com/Klingon-tech/utxoledger/pkg/crypto"
	"github.com/Klingon-tech/utxoledger/pkg/tx"
)

func testLedger(t *testing.T, cfg Config) *Ledger {
	t.Helper()
	if cfg.Difficulty == 0 {
		cfg.Difficulty = 1
	}
	l, err := New(context.Background(), cfg, utxo.NewStore(storage.NewMemory()), mempool.New(0, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func mustMine(t *testing.T, l *Ledger, addr string) *block.Block {
	t.Helper()
	blk, err := l.MinePending(context.Background(), addr)
	if err != nil {
		t.Fatalf("MinePending(%s): %v", addr, err)
	}
	return blk
}

func mustBalance(t *testing.T, l *Ledger, addr string) int64 {
	t.Helper()
	bal, err := l.Balance(addr)
	if err != nil {
		t.Fatalf("Balance(%s): %v", addr, err)
	}
	return bal
}

func totalSupply(t *testing.T, l *Ledger) int64 {
	t.Helper()
	var sum int64
	err := l.utxos.ForEach(func(u *utxo.UTXO) error {
		sum += u.Amount
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	return sum
}

func TestLedger_Genesis(t *testing.T) {
	l := testLedger(t, Config{Difficulty: 2})

	blocks := l.Blocks()
	if len(blocks) != 1 {
		t.Fatalf("chain length = %d, want 1", len(blocks))
	}
	g := blocks[0]
	if g.Index != 0 || g.PrevHash != "0" {
		t.Errorf("genesis index/prev = %d/%q", g.Index, g.PrevHash)
	}
	if !strings.HasPrefix(g.Hash, "00") {
		t.Errorf("genesis hash %s does not meet difficulty 2", g.Hash)
	}
	if len(g.Transactions) != 0 {
		t.Errorf("genesis has %d transactions", len(g.Transactions))
	}
	if bal := mustBalance(t, l, "anyone"); bal != 0 {
		t.Errorf("balance = %d, want 0", bal)
	}
	if !l.IsValid() {
		t.Error("fresh ledger should be valid")
	}
	if err := l.Audit(); err != nil {
		t.Errorf("Audit: %v", err)
	}
}

func TestLedger_New_NilDeps(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, Config{}, nil, mempool.New(0, nil)); err == nil {
		t.Error("expected error for nil utxo store")
	}
	if _, err := New(ctx, Config{}, utxo.NewStore(storage.NewMemory()), nil); err == nil {
		t.Error("expected error for nil mempool")
	}
}

func TestLedger_New_BadDifficulty(t *testing.T) {
	_, err := New(context.Background(), Config{Difficulty: consensus.MaxDifficulty + 1},
		utxo.NewStore(storage.NewMemory()), mempool.New(0, nil))
	if !errors.Is(err, consensus.ErrBadDifficulty) {
		t.Errorf("err = %v, want ErrBadDifficulty", err)
	}
}

func TestLedger_CreateTransaction_InsufficientBalance(t *testing.T) {
	l := testLedger(t, Config{})

	_, err := l.CreateTransaction("A", "B", 10, "sig")
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if n := len(l.Pending()); n != 0 {
		t.Errorf("pending = %d, want 0", n)
	}

	mustMine(t, l, "A")
	if _, err := l.CreateTransaction("A", "B", 51, "sig"); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("overspend err = %v, want ErrInsufficientBalance", err)
	}
	if _, err := l.CreateTransaction("A", "B", 0, "sig"); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("zero amount err = %v, want ErrInsufficientBalance", err)
	}
}

func TestLedger_TransferWithChange(t *testing.T) {
	l := testLedger(t, Config{Difficulty: 2})

	mustMine(t, l, "M")
	if bal := mustBalance(t, l, "M"); bal != 50 {
		t.Fatalf("M balance = %d, want 50", bal)
	}

	transaction, err := l.CreateTransaction("M", "B", 20, "sig")
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	inputs := transaction.Inputs()
	if len(inputs) != 1 || inputs[0].Signature != "sig" {
		t.Errorf("inputs = %+v", inputs)
	}
	outs := transaction.Outputs()
	if len(outs) != 2 {
		t.Fatalf("outputs = %d, want 2", len(outs))
	}
	if outs[0] != (tx.Output{Amount: 20, Address: "B"}) || outs[1] != (tx.Output{Amount: 30, Address: "M"}) {
		t.Errorf("outputs = %+v", outs)
	}

	// Pending transactions do not move balances.
	if bal := mustBalance(t, l, "M"); bal != 50 {
		t.Errorf("M balance before mining = %d, want 50", bal)
	}
	if bal := mustBalance(t, l, "B"); bal != 0 {
		t.Errorf("B balance before mining = %d, want 0", bal)
	}

	blk := mustMine(t, l, "X")
	if len(blk.Transactions) != 2 || !blk.Transactions[0].IsCoinbase() {
		t.Fatalf("block txs = %d", len(blk.Transactions))
	}
	if blk.Transactions[1].ID() != transaction.ID() {
		t.Error("pending transaction not included after coinbase")
	}

	for addr, want := range map[string]int64{"M": 30, "B": 20, "X": 50} {
		if bal := mustBalance(t, l, addr); bal != want {
			t.Errorf("%s balance = %d, want %d", addr, bal, want)
		}
	}
	if n := len(l.Pending()); n != 0 {
		t.Errorf("pending after mining = %d", n)
	}
	if h := l.Height(); h != 2 {
		t.Errorf("height = %d, want 2", h)
	}
	if !l.IsValid() {
		t.Error("ledger should be valid")
	}
	if err := l.Audit(); err != nil {
		t.Errorf("Audit: %v", err)
	}
}

func TestLedger_ExactAmountNoChange(t *testing.T) {
	l := testLedger(t, Config{})
	mustMine(t, l, "M")

	transaction, err := l.CreateTransaction("M", "B", 50, "sig")
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if n := len(transaction.Outputs()); n != 1 {
		t.Errorf("outputs = %d, want 1 (no change)", n)
	}
}

func TestLedger_MultiInputSelection(t *testing.T) {
	l := testLedger(t, Config{})
	mustMine(t, l, "M")
	mustMine(t, l, "M")

	transaction, err := l.CreateTransaction("M", "B", 70, "sig")
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if n := transaction.NumInputs(); n != 2 {
		t.Fatalf("inputs = %d, want 2", n)
	}
	mustMine(t, l, "X")
	if bal := mustBalance(t, l, "M"); bal != 30 {
		t.Errorf("M balance = %d, want 30", bal)
	}
	if bal := mustBalance(t, l, "B"); bal != 70 {
		t.Errorf("B balance = %d, want 70", bal)
	}
}

// Two admissions before a block may select the same confirmed output.
// Both are accepted and both are mined; the second spend is a no-op.
func TestLedger_DoubleAdmissionSameOutput(t *testing.T) {
	l := testLedger(t, Config{})
	mustMine(t, l, "M")

	tx1, err := l.CreateTransaction("M", "B", 30, "sig")
	if err != nil {
		t.Fatalf("first admission: %v", err)
	}
	tx2, err := l.CreateTransaction("M", "C", 40, "sig")
	if err != nil {
		t.Fatalf("second admission: %v", err)
	}
	in1, in2 := tx1.Inputs()[0], tx2.Inputs()[0]
	if in1.Outpoint() != in2.Outpoint() {
		t.Fatalf("expected both to select the same output, got %s and %s", in1.Outpoint(), in2.Outpoint())
	}

	blk := mustMine(t, l, "X")
	if len(blk.Transactions) != 3 {
		t.Fatalf("block txs = %d, want 3", len(blk.Transactions))
	}
	for addr, want := range map[string]int64{"B": 30, "C": 40, "M": 30, "X": 50} {
		if bal := mustBalance(t, l, addr); bal != want {
			t.Errorf("%s balance = %d, want %d", addr, bal, want)
		}
	}
	if !l.IsValid() {
		t.Error("block with reused input should still be valid")
	}
}

func TestLedger_RejectConflictsPolicy(t *testing.T) {
	l, err := New(context.Background(), Config{Difficulty: 1},
		utxo.NewStore(storage.NewMemory()),
		mempool.New(0, &mempool.Policy{MaxTxInputs: 10, RejectConflicts: true}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustMine(t, l, "M")

	if _, err := l.CreateTransaction("M", "B", 30, "sig"); err != nil {
		t.Fatalf("first admission: %v", err)
	}
	if _, err := l.CreateTransaction("M", "C", 40, "sig"); !errors.Is(err, mempool.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestLedger_ApplyBlockIdempotent(t *testing.T) {
	l := testLedger(t, Config{})
	mustMine(t, l, "M")
	if _, err := l.CreateTransaction("M", "B", 20, "sig"); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	entries := l.pool.Entries()
	blk := mustMine(t, l, "X")

	before, err := utxo.Commitment(l.utxos)
	if err != nil {
		t.Fatalf("Commitment: %v", err)
	}
	if err := l.applyBlock(blk, entries); err != nil {
		t.Fatalf("re-apply: %v", err)
	}
	after, err := utxo.Commitment(l.utxos)
	if err != nil {
		t.Fatalf("Commitment: %v", err)
	}
	if before != after {
		t.Error("re-applying a block changed the UTXO set")
	}
	if bal := mustBalance(t, l, "M"); bal != 30 {
		t.Errorf("M balance = %d, want 30", bal)
	}
}

func TestLedger_ApplyBlockEntryMismatch(t *testing.T) {
	l := testLedger(t, Config{})
	mustMine(t, l, "M")
	if _, err := l.CreateTransaction("M", "B", 20, "sig"); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	blk := mustMine(t, l, "X")
	if err := l.applyBlock(blk, nil); err == nil {
		t.Error("expected error for missing entries")
	}
}

func TestLedger_Conservation(t *testing.T) {
	l := testLedger(t, Config{})
	mined := 0

	mustMine(t, l, "A")
	mined++
	steps := []struct {
		from, to string
		amount   int64
	}{
		{"A", "B", 10},
		{"B", "C", 4},
		{"A", "C", 25},
		{"C", "A", 29},
	}
	for _, s := range steps {
		if _, err := l.CreateTransaction(s.from, s.to, s.amount, "sig"); err != nil {
			t.Fatalf("%s->%s: %v", s.from, s.to, err)
		}
		mustMine(t, l, "MINER")
		mined++
		if got, want := totalSupply(t, l), int64(mined)*l.Reward(); got != want {
			t.Fatalf("after %s->%s: supply = %d, want %d", s.from, s.to, got, want)
		}
	}
	if err := l.Audit(); err != nil {
		t.Errorf("Audit: %v", err)
	}
}

func TestLedger_IsValid_DetectsTampering(t *testing.T) {
	l := testLedger(t, Config{})
	mustMine(t, l, "M")
	mustMine(t, l, "M")

	// Edit content without resealing.
	l.chain[1].Nonce++
	if l.IsValid() {
		t.Error("tampered nonce not detected")
	}
	l.chain[1].Nonce--
	if !l.IsValid() {
		t.Fatal("restored chain should be valid")
	}

	// Rehash the edited block: the successor's link breaks.
	l.chain[1].Timestamp++
	l.chain[1].Hash = l.chain[1].ContentHash()
	if l.IsValid() {
		t.Error("broken link not detected")
	}
	if err := l.Audit(); !errors.Is(err, ErrChainTampered) {
		t.Errorf("Audit err = %v, want ErrChainTampered", err)
	}
}

func TestLedger_Audit_DetectsDifficultyChange(t *testing.T) {
	l := testLedger(t, Config{Difficulty: 1})
	blk := mustMine(t, l, "M")

	blk.Difficulty = 0
	blk.Hash = blk.ContentHash()
	if err := l.Audit(); !errors.Is(err, ErrChainTampered) {
		t.Errorf("Audit err = %v, want ErrChainTampered", err)
	}
}

func TestLedger_ManySmallOutputs(t *testing.T) {
	l := testLedger(t, Config{})
	for i := 0; i < 1001; i++ {
		if err := l.utxos.Add("A", "seed", i, 1); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if bal := mustBalance(t, l, "A"); bal != 1001 {
		t.Fatalf("A balance = %d, want 1001", bal)
	}

	got, err := l.CreateTransaction("A", "B", 1001, "sig")
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if n := got.NumInputs(); n != 1001 {
		t.Errorf("inputs = %d, want 1001", n)
	}

	mustMine(t, l, "M")
	if bal := mustBalance(t, l, "A"); bal != 0 {
		t.Errorf("A balance = %d, want 0", bal)
	}
	if bal := mustBalance(t, l, "B"); bal != 1001 {
		t.Errorf("B balance = %d, want 1001", bal)
	}
}

func TestLedger_EmptyAddresses(t *testing.T) {
	l := testLedger(t, Config{})
	mustMine(t, l, "M")

	if _, err := l.CreateTransaction("M", "", 20, "sig"); err != nil {
		t.Fatalf("CreateTransaction to empty address: %v", err)
	}
	mustMine(t, l, "")

	if bal := mustBalance(t, l, ""); bal != 70 {
		t.Errorf("empty address balance = %d, want 70", bal)
	}
	if !l.IsValid() {
		t.Error("IsValid() = false")
	}
	if err := l.Audit(); err != nil {
		t.Errorf("Audit() = %v", err)
	}
}

func TestLedger_EngineDifficulty(t *testing.T) {
	pow, err := consensus.NewPoW(2)
	if err != nil {
		t.Fatalf("NewPoW: %v", err)
	}
	l := testLedger(t, Config{Difficulty: 1, Engine: pow})
	if d := l.Difficulty(); d != 2 {
		t.Errorf("Difficulty() = %d, want 2", d)
	}
	mustMine(t, l, "M")
	if err := l.Audit(); err != nil {
		t.Errorf("Audit() = %v", err)
	}
}

func TestLedger_MinePending_Cancelled(t *testing.T) {
	l := testLedger(t, Config{Difficulty: 2})
	mustMine(t, l, "M")
	if _, err := l.CreateTransaction("M", "B", 5, "sig"); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.MinePending(ctx, "X"); !errors.Is(err, consensus.ErrSealCancelled) {
		t.Fatalf("err = %v, want ErrSealCancelled", err)
	}

	if h := l.Height(); h != 1 {
		t.Errorf("height = %d, want 1", h)
	}
	if n := len(l.Pending()); n != 1 {
		t.Errorf("pending = %d, want 1", n)
	}
	if bal := mustBalance(t, l, "X"); bal != 0 {
		t.Errorf("X balance = %d, want 0", bal)
	}
}

func TestLedger_MinePending_EmptyPool(t *testing.T) {
	l := testLedger(t, Config{})
	blk := mustMine(t, l, "M")
	if len(blk.Transactions) != 1 {
		t.Errorf("txs = %d, want coinbase only", len(blk.Transactions))
	}
	if blk.PrevHash != l.Blocks()[0].Hash {
		t.Error("block does not link to genesis")
	}
}

func TestLedger_CoinbaseTxIDsUnique(t *testing.T) {
	l := testLedger(t, Config{})
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		blk := mustMine(t, l, "M")
		id := blk.Transactions[0].ID()
		if seen[id] {
			t.Fatalf("coinbase txid %s repeated", id)
		}
		seen[id] = true
	}
	if bal := mustBalance(t, l, "M"); bal != 250 {
		t.Errorf("M balance = %d, want 250", bal)
	}
}

func TestLedger_CreateCoinbase(t *testing.T) {
	l := testLedger(t, Config{CoinbaseReward: 7})
	cb := l.CreateCoinbase("M")
	if !cb.IsCoinbase() {
		t.Fatal("not a coinbase")
	}
	outs := cb.Outputs()
	if len(outs) != 1 || outs[0].Amount != 7 || outs[0].Address != "M" {
		t.Errorf("outputs = %+v", outs)
	}
	if n := len(l.Pending()); n != 0 {
		t.Error("CreateCoinbase must not queue")
	}
}

func TestLedger_SignedTransaction(t *testing.T) {
	l := testLedger(t, Config{})
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	from := key.Address()
	mustMine(t, l, from)

	sig, err := crypto.SignMessage(key, SigningMessage(from, "B", 20))
	if err != nil {
		t.Fatalf("SignMessage: %v", err)
	}

	transaction, err := l.CreateSignedTransaction(from, "B", 20, sig, key.PublicKeyHex())
	if err != nil {
		t.Fatalf("CreateSignedTransaction: %v", err)
	}
	if transaction.Inputs()[0].Signature != sig {
		t.Error("input does not carry signature")
	}

	// Signature over a different amount.
	if _, err := l.CreateSignedTransaction(from, "B", 21, sig, key.PublicKeyHex()); !errors.Is(err, ErrBadSignature) {
		t.Errorf("wrong amount err = %v, want ErrBadSignature", err)
	}

	other, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if _, err := l.CreateSignedTransaction(from, "B", 20, sig, other.PublicKeyHex()); !errors.Is(err, ErrAddressMismatch) {
		t.Errorf("foreign key err = %v, want ErrAddressMismatch", err)
	}
	if _, err := l.CreateSignedTransaction(from, "B", 20, sig, "zz"); !errors.Is(err, ErrBadSignature) {
		t.Errorf("bad hex err = %v, want ErrBadSignature", err)
	}

	mustMine(t, l, "X")
	if bal := mustBalance(t, l, "B"); bal != 20 {
		t.Errorf("B balance = %d, want 20", bal)
	}
}

func TestLedger_RequireSignatures(t *testing.T) {
	l := testLedger(t, Config{RequireSignatures: true})
	mustMine(t, l, "M")
	if _, err := l.CreateTransaction("M", "B", 10, "dummy"); !errors.Is(err, ErrSignatureRequired) {
		t.Errorf("err = %v, want ErrSignatureRequired", err)
	}
}

func TestLedger_Block(t *testing.T) {
	l := testLedger(t, Config{})
	blk := mustMine(t, l, "M")

	got, err := l.Block(1)
	if err != nil {
		t.Fatalf("Block(1): %v", err)
	}
	if got.Hash != blk.Hash {
		t.Error("wrong block returned")
	}
	for _, idx := range []int64{-1, 2} {
		if _, err := l.Block(idx); !errors.Is(err, ErrBlockNotFound) {
			t.Errorf("Block(%d) err = %v, want ErrBlockNotFound", idx, err)
		}
	}
	if l.Tip().Hash != blk.Hash {
		t.Error("tip mismatch")
	}
}

func TestLedger_Info(t *testing.T) {
	l := testLedger(t, Config{Difficulty: 1})
	info, err := l.Info()
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Height != 0 || info.UTXOCount != 0 || info.UTXOCommitment != "" {
		t.Errorf("genesis info = %+v", info)
	}

	mustMine(t, l, "M")
	if _, err := l.CreateTransaction("M", "B", 10, "sig"); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	info, err = l.Info()
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Height != 1 || info.Pending != 1 || info.UTXOCount != 1 {
		t.Errorf("info = %+v", info)
	}
	if info.Difficulty != 1 || info.CoinbaseReward != DefaultCoinbaseReward {
		t.Errorf("info params = %+v", info)
	}
	if info.TipHash != l.Tip().Hash || info.UTXOCommitment == "" {
		t.Errorf("info tip/commitment = %+v", info)
	}
}

func TestLedger_BadgerBackend(t *testing.T) {
	db, err := storage.NewBadgerInMemory()
	if err != nil {
		t.Fatalf("NewBadgerInMemory: %v", err)
	}
	defer db.Close()

	l, err := New(context.Background(), Config{Difficulty: 1}, utxo.NewStore(db), mempool.New(0, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustMine(t, l, "M")
	if _, err := l.CreateTransaction("M", "B", 20, "sig"); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	mustMine(t, l, "X")
	if bal := mustBalance(t, l, "M"); bal != 30 {
		t.Errorf("M balance = %d, want 30", bal)
	}
}

// gatedEngine blocks sealing of non-genesis blocks until released.
type gatedEngine struct {
	*consensus.PoW
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedEngine) Seal(ctx context.Context, blk *block.Block) error {
	if blk.Index > 0 {
		g.once.Do(func() { close(g.started) })
		select {
		case <-g.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return g.PoW.Seal(ctx, blk)
}

func TestLedger_QueriesDuringMining(t *testing.T) {
	pow, err := consensus.NewPoW(1)
	if err != nil {
		t.Fatalf("NewPoW: %v", err)
	}
	gate := &gatedEngine{PoW: pow, started: make(chan struct{}), release: make(chan struct{})}
	l := testLedger(t, Config{Difficulty: 1, Engine: gate})

	done := make(chan error, 1)
	go func() {
		_, err := l.MinePending(context.Background(), "M")
		done <- err
	}()
	<-gate.started

	queried := make(chan struct{})
	go func() {
		defer close(queried)
		_, _ = l.Balance("M")
		_ = l.Pending()
		_ = l.Blocks()
		_ = l.IsValid()
	}()
	select {
	case <-queried:
	case <-time.After(5 * time.Second):
		t.Fatal("queries blocked while sealing")
	}
	if h := l.Height(); h != 0 {
		t.Errorf("height during sealing = %d, want 0", h)
	}

	close(gate.release)
	if err := <-done; err != nil {
		t.Fatalf("MinePending: %v", err)
	}
	if bal := mustBalance(t, l, "M"); bal != 50 {
		t.Errorf("M balance = %d, want 50", bal)
	}
}

func TestLedger_ConcurrentAdmissionAndMining(t *testing.T) {
	l := testLedger(t, Config{Difficulty: 1})
	for i := 0; i < 4; i++ {
		mustMine(t, l, "M")
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = l.CreateTransaction("M", "B", 5, "sig")
		}()
		go func() {
			defer wg.Done()
			_, _ = l.MinePending(context.Background(), "X")
		}()
	}
	wg.Wait()
	mustMine(t, l, "X")

	if n := len(l.Pending()); n != 0 {
		t.Errorf("pending = %d, want 0", n)
	}
	if !l.IsValid() {
		t.Error("ledger invalid after concurrent use")
	}
	if err := l.Audit(); err != nil {
		t.Errorf("Audit: %v", err)
	}
}

type recordingObserver struct {
	mu       sync.Mutex
	admitted int
	rejected []string
	mined    int
	height   int64
}

func (r *recordingObserver) TxAdmitted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.admitted++
}

func (r *recordingObserver) TxRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, reason)
}

func (r *recordingObserver) BlockMined(*block.Block, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mined++
}

func (r *recordingObserver) StateChanged(height int64, _, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.height = height
}

func TestLedger_Observer(t *testing.T) {
	obs := &recordingObserver{}
	l := testLedger(t, Config{Observer: obs})

	mustMine(t, l, "M")
	if _, err := l.CreateTransaction("M", "B", 10, "sig"); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	_, _ = l.CreateTransaction("Z", "B", 10, "sig")
	mustMine(t, l, "M")

	if obs.admitted != 1 || obs.mined != 2 || obs.height != 2 {
		t.Errorf("observer = admitted %d mined %d height %d", obs.admitted, obs.mined, obs.height)
	}
	if len(obs.rejected) != 1 || obs.rejected[0] != "insufficient_balance" {
		t.Errorf("rejected = %v", obs.rejected)
	}
}
