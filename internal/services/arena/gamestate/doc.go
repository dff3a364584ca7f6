// Package gamestate holds the arena Session aggregate and its pure
// transition rules.
//
// Decide checks an Intent against the current Session and either rejects it
// with a coded error or emits the events that start the action. Fold applies
// one event and returns the next Session. Fold only assigns absolute values
// (hp from the chain, boss hp merged by minimum, player hp ordered by chain
// position), so applying the same outcome twice, or outcomes in any order,
// converges to the same Session.
package gamestate
