package config

// Environment variables used by the application
const (
	// Ethereum rpc url - should be websockets url for live subscriptions
	RPC_URL_ETHEREUM = "RPC_URL_ETHEREUM"
	// Number of attempts when dialing the rpc url. Default is 3
	RPC_DIAL_ATTEMPTS = "RPC_DIAL_ATTEMPTS"

	// WavePortal contract address
	WAVE_CONTRACT_ADDRESS = "WAVE_CONTRACT_ADDRESS"
	// Gas limit used for wave transactions. Default is 300000
	WAVE_GAS_LIMIT = "WAVE_GAS_LIMIT"
	// How long to wait for a wave to be mined, as a Go duration. Default is 2m
	WAVE_CONFIRM_TIMEOUT = "WAVE_CONFIRM_TIMEOUT"
	// Append confirmed waves from the receipt instead of waiting for the live
	// subscription. Default is false
	WAVE_CONFIRM_FALLBACK = "WAVE_CONFIRM_FALLBACK"

	// Keystore directory of the wallet
	WALLET_KEYSTORE_DIR = "WALLET_KEYSTORE_DIR"
	// Keystore account to unlock, first account when empty
	WALLET_ACCOUNT = "WALLET_ACCOUNT"
	// Keystore passphrase, prompted on stdin when empty
	WALLET_PASSPHRASE = "WALLET_PASSPHRASE"
	// Hex private key; takes precedence over the keystore
	WALLET_PRIVATE_KEY = "WALLET_PRIVATE_KEY"

	// Comma separated kafka brokers. Wave publishing is disabled when empty
	KAFKA_BROKERS = "KAFKA_BROKERS"
	// Kafka topic for new waves. Default is waves
	KAFKA_TOPIC = "KAFKA_TOPIC"

	// Http api port. Default is 8080
	API_PORT = "API_PORT"

	// Http api bind address. Default is 127.0.0.1
	API_BIND_ADDR = "API_BIND_ADDR"
)

// Address of the original WavePortal deployment
const defaultWaveContract = "0x827838085489078b4e068a54F72E5ACCeC27E4EC"
