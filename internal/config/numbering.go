package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/opscore/orderflow/internal/models"
)

// SchemeConfig provisions one numbering scheme row.
type SchemeConfig struct {
	DocumentType models.DocumentType `yaml:"document_type"`
	Prefix       string              `yaml:"prefix"`
	Start        int64               `yaml:"start"`
}

// NumberingConfig is the full provisioning set, loadable from YAML.
type NumberingConfig struct {
	Schemes []SchemeConfig `yaml:"schemes"`
}

// DefaultNumbering returns the stock provisioning: QT-/SO-/DO-/PO-, all
// starting at 1.
func DefaultNumbering() NumberingConfig {
	return NumberingConfig{Schemes: []SchemeConfig{
		{DocumentType: models.DocTypeQuote, Prefix: "QT-", Start: 1},
		{DocumentType: models.DocTypeSalesOrder, Prefix: "SO-", Start: 1},
		{DocumentType: models.DocTypeDeliveryOrder, Prefix: "DO-", Start: 1},
		{DocumentType: models.DocTypePurchaseOrder, Prefix: "PO-", Start: 1},
	}}
}

// LoadNumbering reads a provisioning file, or returns the defaults when the
// path is empty. Every entry must name a known document type.
func LoadNumbering(path string) (NumberingConfig, error) {
	if path == "" {
		return DefaultNumbering(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return NumberingConfig{}, fmt.Errorf("read numbering config: %w", err)
	}
	var cfg NumberingConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return NumberingConfig{}, fmt.Errorf("parse numbering config: %w", err)
	}
	known := map[models.DocumentType]bool{
		models.DocTypeQuote:         true,
		models.DocTypeSalesOrder:    true,
		models.DocTypeDeliveryOrder: true,
		models.DocTypePurchaseOrder: true,
	}
	for _, sc := range cfg.Schemes {
		if !known[sc.DocumentType] {
			return NumberingConfig{}, fmt.Errorf("unknown document type %q in numbering config", sc.DocumentType)
		}
		if sc.Start < 1 {
			return NumberingConfig{}, fmt.Errorf("start for %s must be >= 1", sc.DocumentType)
		}
	}
	return cfg, nil
}
