// Package view maps a Session to the screen the page draws and the
// controls it enables.
package view

import (
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/gamestate"
)

// Screen is one page of the game.
type Screen string

const (
	ScreenNetworkMismatch    Screen = "network_mismatch"
	ScreenLoading            Screen = "loading"
	ScreenConnectPrompt      Screen = "connect_prompt"
	ScreenCharacterSelection Screen = "character_selection"
	ScreenArena              Screen = "arena"
)

// Route returns the screen for s. Precedence: network mismatch, loading,
// no account, no character, arena.
func Route(s gamestate.Session) Screen {
	switch {
	case s.ChainKnownMismatch():
		return ScreenNetworkMismatch
	case s.Phase == gamestate.PhaseLoading:
		return ScreenLoading
	case s.ChainID == "":
		// No provider, or the handshake never learned the chain.
		return ScreenNetworkMismatch
	case s.Account == "":
		return ScreenConnectPrompt
	case s.Character == nil:
		return ScreenCharacterSelection
	}
	return ScreenArena
}

// Controls lists the intents the current screen offers and accepts.
type Controls struct {
	Connect       bool `json:"connect"`
	SwitchNetwork bool `json:"switchNetwork"`
	Mint          bool `json:"mint"`
	Attack        bool `json:"attack"`
	Revive        bool `json:"revive"`
}

// ControlsFor reports which intents are enabled for s.
func ControlsFor(s gamestate.Session) Controls {
	return controls(s, Route(s))
}

func controls(s gamestate.Session, screen Screen) Controls {
	accepts := func(kind gamestate.ActionKind) bool {
		return gamestate.Decide(s, gamestate.Intent{Kind: kind}).Accepted()
	}
	var c Controls
	switch screen {
	case ScreenNetworkMismatch:
		c.SwitchNetwork = accepts(gamestate.ActionSwitchNetwork)
	case ScreenConnectPrompt:
		c.Connect = accepts(gamestate.ActionConnect)
	case ScreenCharacterSelection:
		c.Mint = accepts(gamestate.ActionMint)
	case ScreenArena:
		c.Attack = accepts(gamestate.ActionAttack)
		c.Revive = accepts(gamestate.ActionRevive)
	}
	return c
}

// View is what the page renders.
type View struct {
	Session  gamestate.Session `json:"session"`
	Screen   Screen            `json:"screen"`
	Controls Controls          `json:"controls"`
}

// Render builds the View of s.
func Render(s gamestate.Session) View {
	screen := Route(s)
	return View{Session: s, Screen: screen, Controls: controls(s, screen)}
}
