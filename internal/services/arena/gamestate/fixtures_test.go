package gamestate

import (
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/chainlink"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/gateway"
	"github.com/ethereum/go-ethereum/common"
)

const (
	requiredChain = chainlink.ChainID("0x13881")
	ownAccount    = chainlink.Account("0x00000000000000000000000000000000000000aa")
	otherAccount  = chainlink.Account("0x00000000000000000000000000000000000000bb")
)

func testRoster() []gateway.Character {
	return []gateway.Character{
		{Index: 0, Name: "Mage", HP: 80, MaxHP: 80, AttackDamage: 30},
		{Index: 1, Name: "Archer", HP: 90, MaxHP: 90, AttackDamage: 25},
		{Index: 2, Name: "Knight", HP: 100, MaxHP: 100, AttackDamage: 20},
	}
}

// connected returns an idle session on the required chain with the roster
// loaded and no character.
func connected() Session {
	return Apply(New(requiredChain),
		Reset{Generation: 1},
		WalletObserved{Account: ownAccount, ChainID: requiredChain},
		Ready{},
		RosterLoaded{Roster: testRoster()},
	)
}

// inArena returns an idle session owning a Knight at hp 80 and a boss at 50.
func inArena() Session {
	knight := testRoster()[2]
	knight.HP = 80
	knight.TokenID = 1
	return Apply(connected(),
		OwnershipLoaded{Ownership: gateway.Ownership{Character: knight, Owned: true, At: gateway.EndOfBlock(10)}},
		BossLoaded{Boss: gateway.Boss{Name: "Dragon", HP: 50, MaxHP: 500, AttackDamage: 20}},
	)
}

func hash(b byte) common.Hash {
	return common.BytesToHash([]byte{b})
}

func at(block uint64, tx, log uint) gateway.LogPosition {
	return gateway.LogPosition{Block: block, TxIndex: tx, LogIndex: log}
}

// started folds the accepted decision for intent into s.
func started(s Session, intent Intent) Session {
	d := Decide(s, intent)
	if !d.Accepted() {
		panic("intent rejected: " + string(d.Rejection.Code))
	}
	return Apply(s, d.Events...)
}
