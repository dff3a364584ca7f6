// Package main reports translation coverage of the notice catalogs.
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/config"
	arenaerrors "github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/errors"
	i18ncatalog "github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/i18n/catalog"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/notice"
)

type report struct {
	BaseLocale string
	// Uncovered lists error codes with no notice in the base locale.
	Uncovered []string
	Locales   []localeStatus
}

type localeStatus struct {
	Locale      string
	BaseKeys    int
	Translated  int
	MissingKeys []string
	ExtraKeys   []string
	Completion  float64
}

func (r report) complete() bool {
	if len(r.Uncovered) > 0 {
		return false
	}
	for _, locale := range r.Locales {
		if len(locale.MissingKeys) > 0 || len(locale.ExtraKeys) > 0 {
			return false
		}
	}
	return true
}

func main() {
	var out string
	var strict bool
	flag.StringVar(&out, "out", "", "markdown output path (stdout when empty)")
	flag.BoolVar(&strict, "strict", false, "exit non-zero when any locale or error code is incomplete")
	flag.Parse()

	bundle, err := i18ncatalog.LoadEmbedded()
	if err != nil {
		config.Exitf("load i18n catalogs: %v", err)
	}
	rep := buildReport(bundle, arenaerrors.Codes())

	w := io.Writer(os.Stdout)
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			config.Exitf("create %s: %v", out, err)
		}
		defer f.Close()
		w = f
	}
	if err := writeMarkdown(w, rep); err != nil {
		config.Exitf("write report: %v", err)
	}
	if strict && !rep.complete() {
		config.Exitf("notice catalogs are incomplete")
	}
}

func buildReport(bundle *i18ncatalog.Bundle, codes []arenaerrors.Code) report {
	base := bundle.LocaleMessages(i18ncatalog.BaseLocale)
	rep := report{BaseLocale: i18ncatalog.BaseLocale}
	for _, code := range codes {
		if _, ok := base[notice.KeyFor(code)]; !ok {
			rep.Uncovered = append(rep.Uncovered, string(code))
		}
	}
	for _, locale := range bundle.Locales() {
		messages := bundle.LocaleMessages(locale)
		missing := keyDiff(base, messages)
		rep.Locales = append(rep.Locales, localeStatus{
			Locale:      locale,
			BaseKeys:    len(base),
			Translated:  len(base) - len(missing),
			MissingKeys: missing,
			ExtraKeys:   keyDiff(messages, base),
			Completion:  percent(len(base)-len(missing), len(base)),
		})
	}
	return rep
}

func writeMarkdown(w io.Writer, rep report) error {
	var b strings.Builder
	b.WriteString("# Notice catalog status\n\n")
	fmt.Fprintf(&b, "Base locale: `%s`.\n\n", rep.BaseLocale)
	b.WriteString("| Locale | Base Keys | Translated | Missing | Extra | Completion |\n")
	b.WriteString("| --- | ---: | ---: | ---: | ---: | ---: |\n")
	for _, locale := range rep.Locales {
		fmt.Fprintf(&b, "| `%s` | %d | %d | %d | %d | %.1f%% |\n",
			locale.Locale, locale.BaseKeys, locale.Translated, len(locale.MissingKeys), len(locale.ExtraKeys), locale.Completion)
	}
	if len(rep.Uncovered) > 0 {
		b.WriteString("\n## Error codes without a notice\n\n")
		writeList(&b, rep.Uncovered)
	}
	for _, locale := range rep.Locales {
		if len(locale.MissingKeys) > 0 {
			fmt.Fprintf(&b, "\n## Missing in `%s`\n\n", locale.Locale)
			writeList(&b, locale.MissingKeys)
		}
		if len(locale.ExtraKeys) > 0 {
			fmt.Fprintf(&b, "\n## Extra in `%s`\n\n", locale.Locale)
			writeList(&b, locale.ExtraKeys)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeList(b *strings.Builder, items []string) {
	for _, item := range items {
		fmt.Fprintf(b, "- `%s`\n", item)
	}
}

// keyDiff returns the sorted keys of a that b lacks.
func keyDiff(a, b map[string]string) []string {
	out := make([]string, 0)
	for key := range a {
		if _, ok := b[key]; !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

func percent(numerator int, denominator int) float64 {
	if denominator <= 0 {
		return 100
	}
	value := float64(numerator) * 100 / float64(denominator)
	return math.Round(value*10) / 10
}
