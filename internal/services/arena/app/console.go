package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/gamestate"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/storage"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/view"
)

const defaultHistory = 10

const consoleHelp = "commands: connect | switch | mint <index> | attack | revive | status | history [n] | help"

// console reads intents and queries from a line-oriented reader.
type console struct {
	dispatch func(ctx context.Context, intent gamestate.Intent) error
	status   func() view.View
	history  storage.JournalReader
	out      io.Writer
}

// run handles lines until r is exhausted or ctx ends.
func (c *console) run(ctx context.Context, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c.handle(ctx, line)
	}
}

func (c *console) handle(ctx context.Context, line string) {
	fields := strings.Fields(strings.ToLower(line))
	switch fields[0] {
	case "help", "?":
		fmt.Fprintln(c.out, consoleHelp)
	case "status":
		c.printStatus()
	case "history":
		c.printHistory(ctx, fields[1:])
	default:
		intent, err := gamestate.ParseIntent(line)
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
			return
		}
		if err := c.dispatch(ctx, intent); err != nil {
			fmt.Fprintf(c.out, "rejected: %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "ok: %s\n", intent.Kind)
	}
}

func (c *console) printStatus() {
	v := c.status()
	s := v.Session
	fmt.Fprintf(c.out, "screen=%s phase=%s account=%s chain=%s\n", v.Screen, s.Phase, orDash(string(s.Account)), orDash(string(s.ChainID)))
	if s.Character != nil {
		fmt.Fprintf(c.out, "character=%s hp=%d/%d damage=%d\n", s.Character.Name, s.Character.HP, s.Character.MaxHP, s.Character.AttackDamage)
	}
	if s.Boss != nil {
		fmt.Fprintf(c.out, "boss=%s hp=%d/%d\n", s.Boss.Name, s.Boss.HP, s.Boss.MaxHP)
	}
	if v.Screen == view.ScreenCharacterSelection {
		for _, ch := range s.Roster {
			fmt.Fprintf(c.out, "  [%d] %s hp=%d damage=%d\n", ch.Index, ch.Name, ch.MaxHP, ch.AttackDamage)
		}
	}
	fmt.Fprintf(c.out, "controls=%s\n", controlList(v.Controls))
}

func (c *console) printHistory(ctx context.Context, args []string) {
	if c.history == nil {
		fmt.Fprintln(c.out, "error: journal disabled")
		return
	}
	limit := defaultHistory
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			fmt.Fprintf(c.out, "error: history limit %q must be a positive number\n", args[0])
			return
		}
		limit = n
	}
	entries, err := c.history.Recent(ctx, limit)
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	for _, e := range entries {
		fmt.Fprintf(c.out, "%s gen=%d #%d %s %s", e.RecordedAt.Format("15:04:05"), e.Generation, e.ActionID, orDash(e.Kind), e.Stage)
		if e.TxHash != "" {
			fmt.Fprintf(c.out, " tx=%s", e.TxHash)
		}
		if e.Code != "" {
			fmt.Fprintf(c.out, " code=%s", e.Code)
		}
		fmt.Fprintln(c.out)
	}
}

func controlList(c view.Controls) string {
	var names []string
	for _, control := range []struct {
		name    string
		enabled bool
	}{
		{"connect", c.Connect},
		{"switch", c.SwitchNetwork},
		{"mint", c.Mint},
		{"attack", c.Attack},
		{"revive", c.Revive},
	} {
		if control.enabled {
			names = append(names, control.name)
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
