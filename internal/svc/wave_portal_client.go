package svc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts"

	"github.com/Mantelijo/waveportal/internal/api"
	"github.com/Mantelijo/waveportal/internal/chain"
	"github.com/Mantelijo/waveportal/internal/config"
	"github.com/Mantelijo/waveportal/internal/publish"
	"github.com/Mantelijo/waveportal/internal/wave"
)

func RunWavePortalClient() {
	// Init logger
	logger := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
	})
	slog.SetDefault(slog.New(logger))

	// Parse the required env values
	// Ethereum RPC, contract address, wallet, optional kafka brokers
	if err := config.LoadRequiredEnv(); err != nil {
		slog.Error(
			"failed to load required env values",
			slog.Any("error", err),
		)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wallet, err := newWallet()
	if err != nil {
		slog.Error(
			"failed to open wallet",
			slog.Any("error", err),
		)
		return
	}
	// Initialize the contract gateway
	gateway, err := chain.NewWavePortalGateway(
		config.Global.String(config.RPC_URL_ETHEREUM),
		config.Global.String(config.WAVE_CONTRACT_ADDRESS),
		wallet,
		chain.WithGasLimit(uint64(config.Global.Int64(config.WAVE_GAS_LIMIT))),
		chain.WithDialAttempts(uint(config.Global.Int(config.RPC_DIAL_ATTEMPTS))),
	)
	if err != nil {
		slog.Error(
			"failed to create wave portal gateway",
			slog.Any("error", err),
		)
		return
	}
	if err := gateway.Init(ctx); err != nil {
		slog.Error(
			"failed to initialize wave portal gateway",
			slog.Any("error", err),
		)
		return
	}
	defer gateway.Close()

	syncOpts := []wave.SyncOption{}
	if brokers := config.KafkaBrokers(); len(brokers) > 0 {
		publisher, err := publish.NewKafkaPublisher(brokers, config.Global.String(config.KAFKA_TOPIC))
		if err != nil {
			slog.Error(
				"failed to create kafka publisher",
				slog.Any("error", err),
			)
			return
		}
		defer publisher.Close()
		syncOpts = append(syncOpts, wave.WithRecordSink(publisher))
		slog.Info("publishing waves to kafka",
			slog.Any("brokers", brokers),
			slog.String("topic", config.Global.String(config.KAFKA_TOPIC)),
		)
	}

	client := wave.NewClient(
		gateway,
		[]wave.SubmissionOption{
			wave.WithConfirmTimeout(config.Global.Duration(config.WAVE_CONFIRM_TIMEOUT)),
			wave.WithConfirmFallback(config.Global.Bool(config.WAVE_CONFIRM_FALLBACK)),
		},
		syncOpts...,
	)
	stopWatching := gateway.WatchAccounts(func(accounts []string) {
		client.Session.OnExternalAccountChange(accounts)
	})
	defer stopWatching()

	errorsCh := make(chan error, 2)

	// Start syncing, this also checks for an already authorized account
	go func() {
		if err := client.Run(ctx); err != nil && ctx.Err() == nil {
			errorsCh <- fmt.Errorf("sync failure: %w", err)
		}
	}()

	// Start the api server
	var apiServer api.Server = api.NewHttpServer(
		config.Global.String(config.API_BIND_ADDR),
		config.Global.String(config.API_PORT),
		client,
	)
	go func() {
		if err := apiServer.Serve(); err != nil {
			errorsCh <- fmt.Errorf("failed to start api server: %w", err)
		}
	}()

	select {
	case err := <-errorsCh:
		slog.Error(
			"service encountered critical error",
			slog.Any("error", err),
		)
	case <-ctx.Done():
		slog.Info("shutting down")
	}
	apiServer.Close()
}

// newWallet returns the configured wallet. The private key takes precedence
// over the keystore. A nil wallet means no provider is available.
func newWallet() (chain.WalletProvider, error) {
	if key := config.Global.String(config.WALLET_PRIVATE_KEY); key != "" {
		w, err := chain.NewPrivateKeyWallet(key)
		if err != nil {
			return nil, err
		}
		return w, nil
	}

	dir := config.Global.String(config.WALLET_KEYSTORE_DIR)
	if dir == "" {
		slog.Warn("no wallet provider configured, connect will fail with provider_unavailable")
		return nil, nil
	}

	prompt := stdinPrompt(os.Stdin, os.Stdout)
	if pass := config.Global.String(config.WALLET_PASSPHRASE); pass != "" {
		prompt = func(context.Context, accounts.Account) (string, error) {
			return pass, nil
		}
	}
	w, err := chain.NewKeystoreWallet(dir, config.Global.String(config.WALLET_ACCOUNT), prompt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// stdinPrompt reads the passphrase as a single line from in. An empty line
// declines the connection.
func stdinPrompt(in io.Reader, out io.Writer) chain.PassphrasePrompt {
	reader := bufio.NewReader(in)
	return func(ctx context.Context, account accounts.Account) (string, error) {
		fmt.Fprintf(out, "passphrase for %s (empty to decline): ", account.Address.Hex())

		type result struct {
			line string
			err  error
		}
		lineCh := make(chan result, 1)
		go func() {
			line, err := reader.ReadString('\n')
			if err == io.EOF && line != "" {
				err = nil
			}
			lineCh <- result{line, err}
		}()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case r := <-lineCh:
			if r.err != nil {
				return "", r.err
			}
			return strings.TrimRight(r.line, "\r\n"), nil
		}
	}
}
