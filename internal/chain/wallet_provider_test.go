package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeystore(t *testing.T) (*keystore.KeyStore, accounts.Account) {
	t.Helper()
	ks := keystore.NewKeyStore(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)
	acct, err := ks.NewAccount("secret")
	require.NoError(t, err)
	return ks, acct
}

func TestKeystoreWalletRequestAccounts(t *testing.T) {
	tests := []struct {
		name    string
		prompt  PassphrasePrompt
		wantErr error
	}{
		{
			name: "unlocks with passphrase",
			prompt: func(ctx context.Context, account accounts.Account) (string, error) {
				return "secret", nil
			},
		},
		{
			name: "wrong passphrase",
			prompt: func(ctx context.Context, account accounts.Account) (string, error) {
				return "nope", nil
			},
			wantErr: ErrUserRejected,
		},
		{
			name: "declined",
			prompt: func(ctx context.Context, account accounts.Account) (string, error) {
				return "", nil
			},
			wantErr: ErrUserRejected,
		},
		{
			name: "prompt failure",
			prompt: func(ctx context.Context, account accounts.Account) (string, error) {
				return "", errors.New("stdin closed")
			},
			wantErr: ErrUserRejected,
		},
		{
			name:    "no prompt",
			wantErr: ErrUserRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ks, acct := newTestKeystore(t)
			w, err := newKeystoreWallet(ks, "", tt.prompt)
			require.NoError(t, err)

			authorized, err := w.AuthorizedAccounts(context.Background())
			require.NoError(t, err)
			assert.Empty(t, authorized)

			got, err := w.RequestAccounts(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []common.Address{acct.Address}, got)

			authorized, err = w.AuthorizedAccounts(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []common.Address{acct.Address}, authorized)

			opts, err := w.Transactor(acct.Address, big.NewInt(1337))
			require.NoError(t, err)
			assert.Equal(t, acct.Address, opts.From)
		})
	}
}

func TestKeystoreWalletSelectsConfiguredAccount(t *testing.T) {
	ks, _ := newTestKeystore(t)
	second, err := ks.NewAccount("other")
	require.NoError(t, err)

	var prompted common.Address
	w, err := newKeystoreWallet(ks, second.Address.String(), func(ctx context.Context, account accounts.Account) (string, error) {
		prompted = account.Address
		return "other", nil
	})
	require.NoError(t, err)

	got, err := w.RequestAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []common.Address{second.Address}, got)
	assert.Equal(t, second.Address, prompted)

	_, err = newKeystoreWallet(ks, "bogus", nil)
	assert.Error(t, err)
}

func TestKeystoreWalletEmpty(t *testing.T) {
	ks := keystore.NewKeyStore(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)
	w, err := newKeystoreWallet(ks, "", func(ctx context.Context, account accounts.Account) (string, error) {
		return "secret", nil
	})
	require.NoError(t, err)

	_, err = w.RequestAccounts(context.Background())
	assert.ErrorIs(t, err, ErrUserRejected)
}

func TestPrivateKeyWallet(t *testing.T) {
	_, err := NewPrivateKeyWallet("0xzz")
	assert.Error(t, err)

	w, _ := testKeyWallet(t)

	authorized, err := w.AuthorizedAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []common.Address{w.address}, authorized)

	opts, err := w.Transactor(w.address, big.NewInt(1337))
	require.NoError(t, err)
	assert.Equal(t, w.address, opts.From)

	_, err = w.Transactor(common.HexToAddress("0x01"), big.NewInt(1337))
	assert.Error(t, err)

	stop := w.WatchAccounts(func([]common.Address) {
		t.Fatal("private key accounts never change")
	})
	stop()
}
