// Package engine runs the arena Session.
//
// One goroutine owns the Session. Intents, wallet notifications, pushed
// contract events and confirmation results are posted into a single inbox
// and applied there through gamestate.Fold, so no two mutations race. Every
// reset starts a new generation; work tagged with an older generation is
// discarded when it reaches the loop.
package engine
