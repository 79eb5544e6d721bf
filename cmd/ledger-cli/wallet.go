package main

import (
	"flag"
	"fmt"

	"github.com/pterm/pterm"

	"github.com/Klingon-tech/utxoledger/internal/rpc"
	"github.com/Klingon-tech/utxoledger/internal/rpcclient"
	"github.com/Klingon-tech/utxoledger/internal/wallet"
)

func cmdWallet(client *rpcclient.Client, args []string, ksDir string) {
	if len(args) < 1 {
		fatal("Usage: ledger-cli wallet <new|mnemonic|import|save|load|list> [flags]")
	}

	switch args[0] {
	case "new":
		cmdWalletNew(client, args[1:])
	case "mnemonic":
		cmdWalletMnemonic(args[1:])
	case "import":
		cmdWalletImport(client, args[1:])
	case "save":
		cmdWalletSave(args[1:], ksDir)
	case "load":
		cmdWalletLoad(args[1:], ksDir)
	case "list":
		cmdWalletList(ksDir)
	default:
		fatal("Unknown wallet command: %s", args[0])
	}
}

// cmdWalletNew asks the node for a key pair, so the node's RNG and key
// format are what the ledger will later verify against.
func cmdWalletNew(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("wallet new", flag.ExitOnError)
	withMnemonic := fs.Bool("mnemonic", false, "Derive the key from a new mnemonic")
	fs.Parse(args)

	res, err := client.WalletCreate(*withMnemonic)
	if err != nil {
		fatal("wallet_create: %v", err)
	}
	if res.Mnemonic != "" {
		pterm.Warning.Println("Mnemonic (write this down!):")
		fmt.Printf("  %s\n\n", res.Mnemonic)
	}
	printJSON(res)
}

func cmdWalletMnemonic(args []string) {
	fs := flag.NewFlagSet("wallet mnemonic", flag.ExitOnError)
	short := fs.Bool("short", false, "12 words instead of 24")
	fs.Parse(args)

	bits := wallet.MnemonicEntropyBits
	if *short {
		bits = wallet.ShortMnemonicEntropyBits
	}
	mnemonic, err := wallet.NewMnemonic(bits)
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}
	fmt.Println(mnemonic)
}

// walletFromFlags builds a wallet from --key or --mnemonic.
func walletFromFlags(key, mnemonic, passphrase string, account, index uint) *wallet.Wallet {
	switch {
	case key != "":
		w, err := wallet.FromPrivateKey(key)
		if err != nil {
			fatal("import key: %v", err)
		}
		return w
	case mnemonic != "":
		w, err := wallet.FromMnemonic(mnemonic, passphrase, uint32(account), uint32(index))
		if err != nil {
			fatal("import mnemonic: %v", err)
		}
		return w
	default:
		fatal("--key or --mnemonic is required")
		return nil
	}
}

func cmdWalletImport(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("wallet import", flag.ExitOnError)
	key := fs.String("key", "", "Hex private key")
	mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic")
	passphrase := fs.String("passphrase", "", "Optional BIP-39 passphrase")
	account := fs.Uint("account", 0, "BIP-44 account")
	index := fs.Uint("index", 0, "BIP-44 address index")
	remote := fs.Bool("remote", false, "Derive on the node instead of locally")
	fs.Parse(args)

	if *remote {
		res, err := client.WalletImport(rpc.WalletImportParam{
			PrivateKey: *key,
			Mnemonic:   *mnemonic,
			Passphrase: *passphrase,
			Account:    uint32(*account),
			Index:      uint32(*index),
		})
		if err != nil {
			fatal("wallet_import: %v", err)
		}
		printJSON(res)
		return
	}

	w := walletFromFlags(*key, *mnemonic, *passphrase, *account, *index)
	defer w.Zero()
	printJSON(w.Info())
}

func cmdWalletSave(args []string, ksDir string) {
	fs := flag.NewFlagSet("wallet save", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	key := fs.String("key", "", "Hex private key")
	mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic")
	passphrase := fs.String("passphrase", "", "Optional BIP-39 passphrase")
	account := fs.Uint("account", 0, "BIP-44 account")
	index := fs.Uint("index", 0, "BIP-44 address index")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: ledger-cli wallet save --name <name> (--key <hex> | --mnemonic \"...\")")
	}
	w := walletFromFlags(*key, *mnemonic, *passphrase, *account, *index)
	defer w.Zero()

	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	ks, err := wallet.NewKeystore(ksDir, wallet.DefaultParams())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	if err := ks.Save(*name, w, password); err != nil {
		fatal("save wallet: %v", err)
	}
	pterm.Success.Printfln("Wallet %q saved (address %s)", *name, w.Address())
}

// loadWallet prompts for a password and decrypts a keystore wallet.
func loadWallet(ksDir, name string) *wallet.Wallet {
	ks, err := wallet.NewKeystore(ksDir, wallet.DefaultParams())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	w, err := ks.Load(name, password)
	if err != nil {
		fatal("load wallet %q: %v", name, err)
	}
	return w
}

func cmdWalletLoad(args []string, ksDir string) {
	fs := flag.NewFlagSet("wallet load", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: ledger-cli wallet load --name <name>")
	}
	w := loadWallet(ksDir, *name)
	defer w.Zero()
	printJSON(w.Info())
}

func cmdWalletList(ksDir string) {
	ks, err := wallet.NewKeystore(ksDir, wallet.DefaultParams())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	names, err := ks.List()
	if err != nil {
		fatal("list wallets: %v", err)
	}
	if len(names) == 0 {
		pterm.Info.Println("No wallets in keystore")
		return
	}

	data := pterm.TableData{{"Name", "Address"}}
	for _, n := range names {
		addr, err := ks.Address(n)
		if err != nil {
			addr = "(unreadable)"
		}
		data = append(data, []string{n, addr})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
