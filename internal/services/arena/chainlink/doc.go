// Package chainlink adapts an injected wallet provider (EIP-1193 shape) for
// the arena client.
//
// A Link discovers accounts and the active chain, switches to the required
// chain (adding it first when the wallet does not know it), deduplicates
// chain and account change notifications, and hands out Signer handles
// bound to one account. Every provider fault is translated into an arena
// error code before it leaves this package.
package chainlink
