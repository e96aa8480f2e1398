package memory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Catalog formato del archivo de catálogo para el store en memoria.
type Catalog struct {
	Products []struct {
		ID           string          `json:"id"`
		Name         string          `json:"name"`
		SKU          string          `json:"sku"`
		ReorderLevel decimal.Decimal `json:"reorder_level"`
	} `json:"products"`
	Locations []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"locations"`
}

// LoadCatalog lee productos y ubicaciones desde r y los registra en el store.
func (s *Store) LoadCatalog(r io.Reader) error {
	var c Catalog
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return fmt.Errorf("decodificar catálogo: %w", err)
	}
	for _, p := range c.Products {
		if p.ID == "" {
			return fmt.Errorf("catálogo: producto sin id")
		}
		s.AddProduct(entity.Product{ID: p.ID, Name: p.Name, SKU: p.SKU, ReorderLevel: p.ReorderLevel})
	}
	for _, l := range c.Locations {
		if l.ID == "" {
			return fmt.Errorf("catálogo: ubicación sin id")
		}
		s.AddLocation(entity.Location{ID: l.ID, Name: l.Name, Type: l.Type})
	}
	return nil
}

// LoadCatalogFile abre path y llama a LoadCatalog.
func (s *Store) LoadCatalogFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("abrir catálogo: %w", err)
	}
	defer f.Close()
	return s.LoadCatalog(f)
}
