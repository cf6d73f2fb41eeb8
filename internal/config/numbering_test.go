package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/opscore/orderflow/internal/models"
)

func writeNumberingFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "numbering.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadNumberingDefaults(t *testing.T) {
	cfg, err := LoadNumbering("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if len(cfg.Schemes) != 4 {
		t.Fatalf("expected 4 schemes, got %d", len(cfg.Schemes))
	}
	want := map[models.DocumentType]string{
		models.DocTypeQuote:         "QT-",
		models.DocTypeSalesOrder:    "SO-",
		models.DocTypeDeliveryOrder: "DO-",
		models.DocTypePurchaseOrder: "PO-",
	}
	for _, sc := range cfg.Schemes {
		if want[sc.DocumentType] != sc.Prefix {
			t.Fatalf("prefix for %s: got %q", sc.DocumentType, sc.Prefix)
		}
		if sc.Start != 1 {
			t.Fatalf("start for %s: got %d", sc.DocumentType, sc.Start)
		}
	}
}

func TestLoadNumberingFromFile(t *testing.T) {
	path := writeNumberingFile(t, `
schemes:
  - document_type: quote
    prefix: "QUO-"
    start: 1000
`)
	cfg, err := LoadNumbering(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Schemes) != 1 {
		t.Fatalf("schemes: %+v", cfg.Schemes)
	}
	sc := cfg.Schemes[0]
	if sc.DocumentType != models.DocTypeQuote || sc.Prefix != "QUO-" || sc.Start != 1000 {
		t.Fatalf("scheme: %+v", sc)
	}
}

func TestLoadNumberingRejectsBadInput(t *testing.T) {
	unknown := writeNumberingFile(t, `
schemes:
  - document_type: invoice
    prefix: "IN-"
    start: 1
`)
	if _, err := LoadNumbering(unknown); err == nil {
		t.Fatal("expected error for unknown document type")
	}

	badStart := writeNumberingFile(t, `
schemes:
  - document_type: quote
    prefix: "QT-"
    start: 0
`)
	if _, err := LoadNumbering(badStart); err == nil {
		t.Fatal("expected error for start < 1")
	}

	if _, err := LoadNumbering(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
