// Package gateway is the typed facade over the on-chain game contract.
//
// A Gateway is bound to one account through a chainlink.Signer. Reads are
// eth_call queries; writes submit a transaction and return a Tx handle that
// AwaitConfirmation later resolves into a Receipt. Contract events are
// delivered at least once to handlers registered with OnCharacterMinted and
// OnAttackResolved while Watch polls logs. Every wide integer crossing this
// boundary is narrowed with a range check.
package gateway
