package gateway

import (
	"bytes"
	_ "embed"
	"fmt"
	"math/big"

	apperrors "github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/errors"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/chainlink"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Contract method and event names.
const (
	methodOwnedCharacter = "checkIfUserHasNFT"
	methodRoster         = "getAllDefaultCharacters"
	methodBoss           = "getBigBoss"
	methodMint           = "mintCharacterNFT"
	methodAttack         = "attackBoss"
	methodRevive         = "reviveCharacter"

	EventCharacterMinted = "CharacterNFTMinted"
	EventAttackResolved  = "AttackComplete"
)

//go:embed game_abi.json
var gameABIJSON []byte

// GameABI is the parsed contract interface.
var GameABI = mustParseABI(gameABIJSON)

func mustParseABI(data []byte) abi.ABI {
	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		panic(fmt.Sprintf("parse game abi: %v", err))
	}
	return parsed
}

// characterAttributes mirrors the CharacterAttributes tuple field by field.
type characterAttributes struct {
	CharacterIndex *big.Int
	Name           string
	ImageURI       string
	Hp             *big.Int
	MaxHp          *big.Int
	AttackDamage   *big.Int
}

func (c characterAttributes) toCharacter() (Character, error) {
	out := Character{Name: c.Name, ImageURI: c.ImageURI}
	err := narrowAll(
		intField{"characterIndex", c.CharacterIndex, &out.Index},
		intField{"hp", c.Hp, &out.HP},
		intField{"maxHp", c.MaxHp, &out.MaxHP},
		intField{"attackDamage", c.AttackDamage, &out.AttackDamage},
	)
	return out, err
}

// bigBoss mirrors the BigBoss tuple field by field.
type bigBoss struct {
	Name         string
	ImageURI     string
	Hp           *big.Int
	MaxHp        *big.Int
	AttackDamage *big.Int
}

func (b bigBoss) toBoss() (Boss, error) {
	out := Boss{Name: b.Name, ImageURI: b.ImageURI}
	err := narrowAll(
		intField{"hp", b.Hp, &out.HP},
		intField{"maxHp", b.MaxHp, &out.MaxHP},
		intField{"attackDamage", b.AttackDamage, &out.AttackDamage},
	)
	return out, err
}

func decodeOwnedCharacter(data []byte) (Character, bool, error) {
	// Single-output results are copied into the first struct field.
	var out struct{ Character characterAttributes }
	if err := GameABI.UnpackIntoInterface(&out, methodOwnedCharacter, data); err != nil {
		return Character{}, false, err
	}
	if out.Character.Name == "" {
		return Character{}, false, nil
	}
	character, err := out.Character.toCharacter()
	return character, err == nil, err
}

func decodeRoster(data []byte) ([]Character, error) {
	var out struct{ Characters []characterAttributes }
	if err := GameABI.UnpackIntoInterface(&out, methodRoster, data); err != nil {
		return nil, err
	}
	roster := make([]Character, 0, len(out.Characters))
	for _, attrs := range out.Characters {
		character, err := attrs.toCharacter()
		if err != nil {
			return nil, err
		}
		roster = append(roster, character)
	}
	return roster, nil
}

func decodeBoss(data []byte) (Boss, error) {
	var out struct{ Boss bigBoss }
	if err := GameABI.UnpackIntoInterface(&out, methodBoss, data); err != nil {
		return Boss{}, err
	}
	return out.Boss.toBoss()
}

func positionOf(l types.Log) LogPosition {
	return LogPosition{Block: l.BlockNumber, TxIndex: l.TxIndex, LogIndex: l.Index}
}

func malformed(event string, l types.Log, format string, args ...any) error {
	return apperrors.WithMetadata(apperrors.CodeMalformedEventPayload,
		fmt.Sprintf("%s in tx %s: %s", event, l.TxHash.Hex(), fmt.Sprintf(format, args...)),
		map[string]string{"event": event, "tx": l.TxHash.Hex()})
}

func decodeSender(event string, l types.Log, v any) (chainlink.Account, error) {
	addr, ok := v.(common.Address)
	if !ok {
		return "", malformed(event, l, "sender has type %T", v)
	}
	account, ok := chainlink.ParseAccount(addr.Hex())
	if !ok {
		return "", malformed(event, l, "sender %s is not an address", addr.Hex())
	}
	return account, nil
}

func decodeCharacterMinted(l types.Log) (CharacterMinted, error) {
	event := GameABI.Events[EventCharacterMinted]
	if len(l.Topics) != 1 || l.Topics[0] != event.ID {
		return CharacterMinted{}, malformed(event.Name, l, "unexpected topics %v", l.Topics)
	}
	values, err := GameABI.Unpack(event.Name, l.Data)
	if err != nil {
		return CharacterMinted{}, malformed(event.Name, l, "unpack: %v", err)
	}
	if len(values) != 3 {
		return CharacterMinted{}, malformed(event.Name, l, "got %d fields", len(values))
	}
	sender, err := decodeSender(event.Name, l, values[0])
	if err != nil {
		return CharacterMinted{}, err
	}
	tokenID, ok1 := values[1].(*big.Int)
	index, ok2 := values[2].(*big.Int)
	if !ok1 || !ok2 {
		return CharacterMinted{}, malformed(event.Name, l, "numeric fields have types %T, %T", values[1], values[2])
	}
	out := CharacterMinted{Sender: sender, TxHash: l.TxHash, Position: positionOf(l)}
	if out.TokenID, err = narrowUint64("tokenId", tokenID); err != nil {
		return CharacterMinted{}, malformed(event.Name, l, "%v", err)
	}
	if out.CharacterIndex, err = narrowInt("characterIndex", index); err != nil {
		return CharacterMinted{}, malformed(event.Name, l, "%v", err)
	}
	return out, nil
}

func decodeAttackResolved(l types.Log) (AttackResolved, error) {
	event := GameABI.Events[EventAttackResolved]
	if len(l.Topics) != 1 || l.Topics[0] != event.ID {
		return AttackResolved{}, malformed(event.Name, l, "unexpected topics %v", l.Topics)
	}
	values, err := GameABI.Unpack(event.Name, l.Data)
	if err != nil {
		return AttackResolved{}, malformed(event.Name, l, "unpack: %v", err)
	}
	if len(values) != 3 {
		return AttackResolved{}, malformed(event.Name, l, "got %d fields", len(values))
	}
	sender, err := decodeSender(event.Name, l, values[0])
	if err != nil {
		return AttackResolved{}, err
	}
	bossHP, ok1 := values[1].(*big.Int)
	playerHP, ok2 := values[2].(*big.Int)
	if !ok1 || !ok2 {
		return AttackResolved{}, malformed(event.Name, l, "numeric fields have types %T, %T", values[1], values[2])
	}
	out := AttackResolved{Sender: sender, TxHash: l.TxHash, Position: positionOf(l)}
	if err := narrowAll(
		intField{"newBossHp", bossHP, &out.BossHP},
		intField{"newPlayerHp", playerHP, &out.PlayerHP},
	); err != nil {
		return AttackResolved{}, malformed(event.Name, l, "%v", err)
	}
	return out, nil
}
