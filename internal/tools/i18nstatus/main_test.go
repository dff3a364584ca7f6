package main

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	arenaerrors "github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/errors"
	i18ncatalog "github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/i18n/catalog"
)

func TestEmbeddedCatalogsAreComplete(t *testing.T) {
	bundle, err := i18ncatalog.LoadEmbedded()
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	rep := buildReport(bundle, arenaerrors.Codes())
	if !rep.complete() {
		var buf bytes.Buffer
		_ = writeMarkdown(&buf, rep)
		t.Fatalf("embedded catalogs incomplete:\n%s", buf.String())
	}
}

func TestReportFindsGaps(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en-US/notice.yaml": {Data: []byte("locale: \"en-US\"\nnamespace: \"notice\"\nmessages:\n  \"notice.user_rejected\": \"Cancelled.\"\n  \"notice.revived\": \"Revived.\"\n")},
		"locales/pt-BR/notice.yaml": {Data: []byte("locale: \"pt-BR\"\nnamespace: \"notice\"\nmessages:\n  \"notice.user_rejected\": \"Cancelado.\"\n  \"notice.extra\": \"Extra.\"\n")},
	}
	bundle, err := i18ncatalog.LoadFromFS(fsys)
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}

	rep := buildReport(bundle, []arenaerrors.Code{arenaerrors.CodeUserRejected, arenaerrors.CodeTxReverted})

	if rep.complete() {
		t.Fatal("expected incomplete report")
	}
	if len(rep.Uncovered) != 1 || rep.Uncovered[0] != "TX_REVERTED" {
		t.Fatalf("uncovered = %v, want [TX_REVERTED]", rep.Uncovered)
	}
	pt := rep.Locales[1]
	if pt.Locale != "pt-BR" {
		t.Fatalf("locale = %q, want pt-BR", pt.Locale)
	}
	if len(pt.MissingKeys) != 1 || pt.MissingKeys[0] != "notice.revived" {
		t.Fatalf("missing = %v, want [notice.revived]", pt.MissingKeys)
	}
	if len(pt.ExtraKeys) != 1 || pt.ExtraKeys[0] != "notice.extra" {
		t.Fatalf("extra = %v, want [notice.extra]", pt.ExtraKeys)
	}
	if pt.Completion != 50 {
		t.Fatalf("completion = %v, want 50", pt.Completion)
	}

	var buf bytes.Buffer
	if err := writeMarkdown(&buf, rep); err != nil {
		t.Fatalf("write markdown: %v", err)
	}
	for _, want := range []string{"| `pt-BR` | 2 | 1 | 1 | 1 | 50.0% |", "- `TX_REVERTED`", "## Missing in `pt-BR`"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("markdown missing %q:\n%s", want, buf.String())
		}
	}
}
