// Package timeouts defines shared timeout constants for the arena client.
package timeouts

import "time"

// ProviderRequest caps a single wallet provider round trip that does not
// wait on a human prompt.
const ProviderRequest = 15 * time.Second

// WalletPrompt caps requests that open a wallet permission or network
// prompt (eth_requestAccounts, wallet_switchEthereumChain).
const WalletPrompt = 5 * time.Minute

// ReadHeader limits how long the bridge HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// BridgeToken is the lifetime of the wallet bridge launch token.
const BridgeToken = 12 * time.Hour

// Shutdown limits graceful shutdown of servers and telemetry.
const Shutdown = 5 * time.Second
