package gamestate

import (
	"fmt"
	"strconv"
	"strings"
)

// Intent is a user request entering through the view callbacks.
type Intent struct {
	Kind  ActionKind `json:"intent"`
	Index int        `json:"index,omitempty"`
}

// ParseIntent reads the textual form used by the bridge and the console:
// "connect", "switch", "mint <index>", "attack" or "revive".
func ParseIntent(line string) (Intent, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Intent{}, fmt.Errorf("empty intent")
	}
	switch fields[0] {
	case "connect":
		return Intent{Kind: ActionConnect}, nil
	case "switch", "switch_network":
		return Intent{Kind: ActionSwitchNetwork}, nil
	case "attack":
		return Intent{Kind: ActionAttack}, nil
	case "revive":
		return Intent{Kind: ActionRevive}, nil
	case "mint":
		if len(fields) != 2 {
			return Intent{}, fmt.Errorf("mint needs a roster index")
		}
		index, err := strconv.Atoi(fields[1])
		if err != nil {
			return Intent{}, fmt.Errorf("mint index %q: %w", fields[1], err)
		}
		return Intent{Kind: ActionMint, Index: index}, nil
	}
	return Intent{}, fmt.Errorf("unknown intent %q", fields[0])
}
