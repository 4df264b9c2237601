package storage

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xaenox/vikas-bot/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the fixture format used to seed the in-memory store
type Catalog struct {
	Stores   []models.Store    `yaml:"stores"`
	Products []models.Product  `yaml:"products"`
	Orders   []models.Order    `yaml:"orders"`
	Cart     []models.CartItem `yaml:"cart"`
}

func ParseCatalog(r io.Reader) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return Catalog{}, nil
		}
		return Catalog{}, fmt.Errorf("error decoding catalog: %w", err)
	}
	return c, nil
}

func LoadCatalog(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("error opening catalog: %w", err)
	}
	defer f.Close()
	return ParseCatalog(f)
}

// DefaultCatalog returns the bundled demo catalog
func DefaultCatalog() (Catalog, error) {
	return ParseCatalog(bytes.NewReader(defaultCatalog))
}
