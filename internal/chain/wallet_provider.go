package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// WalletProvider holds the user's accounts and signs transactions for them.
type WalletProvider interface {
	// AuthorizedAccounts returns accounts that can sign without prompting.
	AuthorizedAccounts(ctx context.Context) ([]common.Address, error)

	// RequestAccounts makes accounts available for signing, prompting the
	// user if needed.
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// Transactor returns signing options for an authorized account.
	Transactor(account common.Address, chainID *big.Int) (*bind.TransactOpts, error)

	// WatchAccounts calls fn with the authorized accounts whenever the set
	// changes outside of this process. The returned func stops watching.
	WatchAccounts(fn func([]common.Address)) (stop func())
}

// PassphrasePrompt asks the user for the passphrase of account. Returning an
// empty passphrase declines the request.
type PassphrasePrompt func(ctx context.Context, account accounts.Account) (string, error)

// NewKeystoreWallet opens the keystore directory dir. account selects the
// account to unlock on RequestAccounts; the first keystore account is used
// when it is empty.
func NewKeystoreWallet(dir string, account string, prompt PassphrasePrompt) (*keystoreWallet, error) {
	return newKeystoreWallet(
		keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP),
		account, prompt,
	)
}

func newKeystoreWallet(ks *keystore.KeyStore, account string, prompt PassphrasePrompt) (*keystoreWallet, error) {
	if account != "" && !common.IsHexAddress(account) {
		return nil, fmt.Errorf("invalid wallet account %q", account)
	}
	return &keystoreWallet{
		ks:      ks,
		account: account,
		prompt:  prompt,
	}, nil
}

var _ WalletProvider = (*keystoreWallet)(nil)

type keystoreWallet struct {
	ks *keystore.KeyStore
	// Preferred account, first keystore account when empty
	account string
	prompt  PassphrasePrompt
}

func (k *keystoreWallet) AuthorizedAccounts(ctx context.Context) ([]common.Address, error) {
	out := make([]common.Address, 0)
	for _, w := range k.ks.Wallets() {
		status, err := w.Status()
		if err != nil || status != "Unlocked" {
			continue
		}
		for _, a := range w.Accounts() {
			out = append(out, a.Address)
		}
	}
	return out, nil
}

func (k *keystoreWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	authorized, err := k.AuthorizedAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(authorized) > 0 {
		return authorized, nil
	}

	acct, err := k.target()
	if err != nil {
		return nil, err
	}
	if k.prompt == nil {
		return nil, fmt.Errorf("no passphrase prompt configured: %w", ErrUserRejected)
	}

	passphrase, err := k.prompt(ctx, acct)
	if err != nil {
		return nil, fmt.Errorf("passphrase prompt: %w", errors.Join(ErrUserRejected, err))
	}
	if passphrase == "" {
		return nil, ErrUserRejected
	}
	if err := k.ks.Unlock(acct, passphrase); err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return nil, fmt.Errorf("unlocking %s: %w", acct.Address, ErrUserRejected)
		}
		return nil, fmt.Errorf("unlocking %s: %w", acct.Address, err)
	}

	slog.Info("unlocked keystore account", slog.String("account", acct.Address.String()))

	return []common.Address{acct.Address}, nil
}

func (k *keystoreWallet) target() (accounts.Account, error) {
	if k.account != "" {
		acct, err := k.ks.Find(accounts.Account{Address: common.HexToAddress(k.account)})
		if err != nil {
			return accounts.Account{}, fmt.Errorf("finding account %s: %w", k.account, ErrUserRejected)
		}
		return acct, nil
	}
	all := k.ks.Accounts()
	if len(all) == 0 {
		return accounts.Account{}, fmt.Errorf("keystore has no accounts: %w", ErrUserRejected)
	}
	return all[0], nil
}

func (k *keystoreWallet) Transactor(account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	acct, err := k.ks.Find(accounts.Account{Address: account})
	if err != nil {
		return nil, fmt.Errorf("finding account %s: %w", account, err)
	}
	return bind.NewKeyStoreTransactorWithChainID(k.ks, acct, chainID)
}

func (k *keystoreWallet) WatchAccounts(fn func([]common.Address)) func() {
	events := make(chan accounts.WalletEvent, 16)
	sub := k.ks.Subscribe(events)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case ev := <-events:
				if ev.Kind != accounts.WalletDropped && ev.Kind != accounts.WalletArrived {
					continue
				}
				authorized, _ := k.AuthorizedAccounts(context.Background())
				fn(authorized)
			case <-sub.Err():
				return
			}
		}
	}()

	return func() {
		sub.Unsubscribe()
		wg.Wait()
	}
}

// NewPrivateKeyWallet returns a wallet for a single hex encoded private key.
// The account is authorized from the start.
func NewPrivateKeyWallet(hexKey string) (*privateKeyWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &privateKeyWallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

var _ WalletProvider = (*privateKeyWallet)(nil)

type privateKeyWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func (p *privateKeyWallet) AuthorizedAccounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{p.address}, nil
}

func (p *privateKeyWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{p.address}, nil
}

func (p *privateKeyWallet) Transactor(account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	if account != p.address {
		return nil, fmt.Errorf("account %s is not held by this wallet", account)
	}
	return bind.NewKeyedTransactorWithChainID(p.key, chainID)
}

func (p *privateKeyWallet) WatchAccounts(fn func([]common.Address)) func() {
	// A single key never changes
	return func() {}
}
