// Package notice renders the messages shown to the player after an action
// resolves or an intent is declined.
package notice

import (
	"fmt"
	"strings"
	"time"

	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/errors"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/i18n/catalog"
	"golang.org/x/text/message"
)

// SeveritySuccess marks a notice for a completed action.
const SeveritySuccess errors.Severity = "success"

const (
	keyMinted         = "notice.minted"
	keyAttackComplete = "notice.attack_complete"
	keyRevived        = "notice.revived"
	keyUnknown        = "notice.unknown"
)

// Notice is one user-visible notification.
type Notice struct {
	Severity errors.Severity `json:"severity"`
	Code     errors.Code     `json:"code,omitempty"`
	Key      string          `json:"key"`
	Text     string          `json:"text"`
	At       time.Time       `json:"at"`
}

// Renderer formats notices in one locale.
type Renderer struct {
	bundle    *catalog.Bundle
	locale    string
	printer   *message.Printer
	chainName string
	now       func() time.Time
}

// NewRenderer returns a Renderer for locale. The bundle must already be
// registered. chainName fills the network notices.
func NewRenderer(bundle *catalog.Bundle, locale, chainName string) *Renderer {
	if !bundle.HasLocale(locale) {
		locale = catalog.BaseLocale
	}
	return &Renderer{
		bundle:    bundle,
		locale:    locale,
		printer:   bundle.Printer(locale),
		chainName: chainName,
		now:       time.Now,
	}
}

// Locale returns the locale notices are rendered in.
func (r *Renderer) Locale() string {
	return r.locale
}

// Failure renders the notice for err. Uncoded errors render as unknown.
func (r *Renderer) Failure(err error) Notice {
	return r.Code(errors.CodeOf(err))
}

// Code renders the notice for code.
func (r *Renderer) Code(code errors.Code) Notice {
	if code == "" {
		code = errors.CodeUnknown
	}
	key := KeyFor(code)
	if _, ok := r.bundle.Message(r.locale, key); !ok {
		key = keyUnknown
	}
	var args []any
	switch code {
	case errors.CodeWrongChain, errors.CodeAddChainRequired:
		args = append(args, r.chainName)
	}
	return r.render(code.Severity(), code, key, args...)
}

// Minted renders the mint success notice.
func (r *Renderer) Minted(name string) Notice {
	return r.render(SeveritySuccess, "", keyMinted, name)
}

// AttackComplete renders the attack success notice with the post-attack hp.
func (r *Renderer) AttackComplete(bossHP, playerHP int) Notice {
	return r.render(SeveritySuccess, "", keyAttackComplete, bossHP, playerHP)
}

// Revived renders the revive success notice.
func (r *Renderer) Revived() Notice {
	return r.render(SeveritySuccess, "", keyRevived)
}

func (r *Renderer) render(severity errors.Severity, code errors.Code, key string, args ...any) Notice {
	return Notice{
		Severity: severity,
		Code:     code,
		Key:      key,
		Text:     r.printer.Sprintf(key, args...),
		At:       r.now().UTC(),
	}
}

// KeyFor returns the catalog key of code.
func KeyFor(code errors.Code) string {
	return "notice." + strings.ToLower(string(code))
}

// String formats n for logs and the console.
func (n Notice) String() string {
	if n.Code != "" {
		return fmt.Sprintf("[%s] %s (%s)", n.Severity, n.Text, n.Code)
	}
	return fmt.Sprintf("[%s] %s", n.Severity, n.Text)
}
