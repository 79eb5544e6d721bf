// ledger-cli is a command-line client for interacting with a ledgerd node.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"golang.org/x/term"

	"github.com/Klingon-tech/utxoledger/config"
	"github.com/Klingon-tech/utxoledger/internal/ledger"
	"github.com/Klingon-tech/utxoledger/internal/rpcclient"
	"github.com/Klingon-tech/utxoledger/pkg/block"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Parse global flags that appear before the subcommand.
	rpcURL := fmt.Sprintf("http://127.0.0.1:%d/rpc", config.DefaultRPCPort)
	dataDir := config.DefaultDataDir()

	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--rpc" && len(args) > 1:
			rpcURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--rpc="):
			rpcURL = args[0][len("--rpc="):]
			args = args[1:]
		case args[0] == "--datadir" && len(args) > 1:
			dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			dataDir = args[0][len("--datadir="):]
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cfg := &config.Config{DataDir: dataDir}
	ksDir := cfg.KeystoreDir()
	client := rpcclient.New(rpcURL)
	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "info":
		cmdInfo(client)
	case "blocks":
		cmdBlocks(client)
	case "block":
		cmdBlock(client, cmdArgs)
	case "balance":
		cmdBalance(client, cmdArgs)
	case "utxos":
		cmdUTXOs(client, cmdArgs)
	case "pending":
		cmdPending(client)
	case "send":
		cmdSend(client, cmdArgs)
	case "send-signed":
		cmdSendSigned(client, cmdArgs, ksDir)
	case "mine":
		cmdMine(client, cmdArgs)
	case "valid":
		cmdValid(client)
	case "wallet":
		cmdWallet(client, cmdArgs, ksDir)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: ledger-cli [global flags] <command> [flags]

Global flags:
  --rpc <url>         RPC endpoint (default: http://127.0.0.1:5000/rpc)
  --datadir <path>    Data directory holding the keystore (default: ~/.utxoledger)

Commands:
  info                            Show chain status
  blocks                          List all blocks
  block <index>                   Show block details
  balance <address>               Show address balance
  utxos <address>                 List unspent outputs of an address
  pending                         Show pending transactions
  send --from <a> --to <b> --amount <n> [--signature <s>]
                                  Queue an unsigned transfer
  send-signed --wallet <w> --to <b> --amount <n>
                                  Sign with a keystore wallet and queue
  mine [--miner <addr>]           Mine pending transactions into a block
  valid                           Check the chain's hash links

  wallet new [--mnemonic]         Generate a key (optionally from a mnemonic)
  wallet mnemonic [--short]       Generate a BIP-39 mnemonic
  wallet import --key <hex> | --mnemonic "..." [--account n --index n] [--remote]
                                  Show the wallet for a key or mnemonic
  wallet save --name <n> (--key <hex> | --mnemonic "...")
                                  Encrypt a key into the keystore
  wallet load --name <n>          Decrypt and show a keystore wallet
  wallet list                     List keystore wallets
`)
}

// ── info ────────────────────────────────────────────────────────────────

func cmdInfo(client *rpcclient.Client) {
	info, err := client.Info()
	if err != nil {
		fatal("chain_getInfo: %v", err)
	}

	pterm.DefaultTable.WithData(pterm.TableData{
		{"Height", strconv.FormatInt(info.Height, 10)},
		{"Tip", info.TipHash},
		{"Difficulty", strconv.Itoa(info.Difficulty)},
		{"Reward", strconv.FormatInt(info.CoinbaseReward, 10)},
		{"Pending", strconv.Itoa(info.Pending)},
		{"UTXOs", strconv.Itoa(info.UTXOCount)},
		{"UTXO root", info.UTXOCommitment},
	}).Render()
}

// ── blocks ──────────────────────────────────────────────────────────────

func cmdBlocks(client *rpcclient.Client) {
	blocks, err := client.Blocks()
	if err != nil {
		fatal("chain_getBlocks: %v", err)
	}

	data := pterm.TableData{{"Index", "Hash", "Txs", "Nonce", "Time"}}
	for _, blk := range blocks {
		data = append(data, []string{
			strconv.FormatInt(blk.Index, 10),
			shortHash(blk.Hash),
			strconv.Itoa(len(blk.Transactions)),
			strconv.FormatUint(blk.Nonce, 10),
			formatTime(blk.Timestamp),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func cmdBlock(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: ledger-cli block <index>")
	}
	index, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fatal("invalid index %q", args[0])
	}
	blk, err := client.BlockByIndex(index)
	if err != nil {
		fatal("chain_getBlockByIndex: %v", err)
	}
	printBlock(blk)
}

func printBlock(blk *block.Block) {
	fmt.Printf("Index:        %d\n", blk.Index)
	fmt.Printf("Hash:         %s\n", blk.Hash)
	fmt.Printf("Prev:         %s\n", blk.PrevHash)
	fmt.Printf("Timestamp:    %s\n", formatTime(blk.Timestamp))
	fmt.Printf("Nonce:        %d\n", blk.Nonce)
	fmt.Printf("Difficulty:   %d\n", blk.Difficulty)
	fmt.Printf("Transactions: %d\n", len(blk.Transactions))
	for i, t := range blk.Transactions {
		kind := "transfer"
		if t.IsCoinbase() {
			kind = "coinbase"
		}
		fmt.Printf("  [%d] %s (%s)\n", i, t.ID(), kind)
		for j, out := range t.Outputs() {
			fmt.Printf("      out %d: %d -> %s\n", j, out.Amount, out.Address)
		}
	}
}

// ── balance / utxos ─────────────────────────────────────────────────────

func cmdBalance(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: ledger-cli balance <address>")
	}
	bal, err := client.Balance(args[0])
	if err != nil {
		fatal("utxo_getBalance: %v", err)
	}
	fmt.Printf("Address: %s\n", args[0])
	fmt.Printf("Balance: %d\n", bal)
}

func cmdUTXOs(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: ledger-cli utxos <address>")
	}
	list, err := client.UTXOs(args[0])
	if err != nil {
		fatal("utxo_list: %v", err)
	}
	if len(list.UTXOs) == 0 {
		pterm.Info.Printfln("No unspent outputs for %s", args[0])
		return
	}

	data := pterm.TableData{{"TxID", "Index", "Amount"}}
	for _, u := range list.UTXOs {
		data = append(data, []string{u.TxID, strconv.Itoa(u.Index), strconv.FormatInt(u.Amount, 10)})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// ── pending ─────────────────────────────────────────────────────────────

func cmdPending(client *rpcclient.Client) {
	txs, err := client.Pending()
	if err != nil {
		fatal("mempool_getContent: %v", err)
	}
	if len(txs) == 0 {
		pterm.Info.Println("Mempool is empty")
		return
	}

	data := pterm.TableData{{"TxID", "Inputs", "Outputs", "Total"}}
	for _, t := range txs {
		total, _ := t.TotalOutput()
		data = append(data, []string{
			t.ID(),
			strconv.Itoa(t.NumInputs()),
			strconv.Itoa(len(t.Outputs())),
			strconv.FormatInt(total, 10),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// ── send ────────────────────────────────────────────────────────────────

func cmdSend(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	from := fs.String("from", "", "Sender address")
	to := fs.String("to", "", "Recipient address")
	amount := fs.Int64("amount", 0, "Amount to send")
	signature := fs.String("signature", "dummy", "Signature recorded on the inputs")
	fs.Parse(args)

	if *from == "" || *to == "" || *amount <= 0 {
		fatal("Usage: ledger-cli send --from <addr> --to <addr> --amount <n>")
	}

	t, err := client.CreateTx(*from, *to, *amount, *signature)
	if err != nil {
		fatal("tx_create: %v", err)
	}
	pterm.Success.Printfln("Transaction queued: %s", t.ID())
}

func cmdSendSigned(client *rpcclient.Client, args []string, ksDir string) {
	fs := flag.NewFlagSet("send-signed", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Keystore wallet name")
	to := fs.String("to", "", "Recipient address")
	amount := fs.Int64("amount", 0, "Amount to send")
	fs.Parse(args)

	if *walletName == "" || *to == "" || *amount <= 0 {
		fatal("Usage: ledger-cli send-signed --wallet <name> --to <addr> --amount <n>")
	}

	w := loadWallet(ksDir, *walletName)
	defer w.Zero()

	from := w.Address()
	sig, err := w.Sign(ledger.SigningMessage(from, *to, *amount))
	if err != nil {
		fatal("sign: %v", err)
	}

	t, err := client.CreateSignedTx(from, *to, *amount, sig, w.PublicKeyHex())
	if err != nil {
		fatal("tx_createSigned: %v", err)
	}
	pterm.Success.Printfln("Signed transaction queued: %s", t.ID())
}

// ── mine ────────────────────────────────────────────────────────────────

func cmdMine(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("mine", flag.ExitOnError)
	miner := fs.String("miner", "", "Coinbase address (default: node default)")
	fs.Parse(args)

	// Ctrl-C drops the request, which aborts the seal on the node.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spinner, _ := pterm.DefaultSpinner.Start("Mining block...")
	start := time.Now()
	blk, err := client.Mine(ctx, *miner)
	if err != nil {
		spinner.Fail(err.Error())
		os.Exit(1)
	}
	spinner.Success(fmt.Sprintf("Mined block %d in %s", blk.Index, time.Since(start).Round(time.Millisecond)))
	printBlock(blk)
}

// ── valid ───────────────────────────────────────────────────────────────

func cmdValid(client *rpcclient.Client) {
	ok, err := client.IsValid()
	if err != nil {
		fatal("chain_isValid: %v", err)
	}
	if ok {
		pterm.Success.Println("Chain is valid")
		return
	}
	pterm.Error.Println("Chain is NOT valid")
	os.Exit(2)
}

// ── Helpers ─────────────────────────────────────────────────────────────

func shortHash(h string) string {
	if len(h) <= 16 {
		return h
	}
	return h[:16] + "..."
}

func formatTime(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04:05 UTC")
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("encode: %v", err)
	}
	fmt.Println(string(data))
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
