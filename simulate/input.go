package simulate

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/jrsteele09/go-tender-client/internal/errors"
)

// Input is a simulation described in a YAML file. Items may be listed inline
// or loaded from ItemsFile, a CSV resolved relative to the YAML file.
type Input struct {
	Items     []LineItem   `yaml:"items"`
	ItemsFile string       `yaml:"items_file"`
	Groups    []PriceGroup `yaml:"groups"`
	Total     *TotalInput  `yaml:"total"`
}

// TotalInput configures the total-price simulator.
type TotalInput struct {
	Ranges      []TotalRange `yaml:"ranges"`
	Recommended int          `yaml:"recommended"`
}

// LoadInput reads a YAML simulation file.
func LoadInput(filename string) (*Input, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	in, err := DecodeInput(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if in.ItemsFile != "" && len(in.Items) == 0 {
		path := in.ItemsFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(filename), path)
		}
		items, err := LoadLineItems(path)
		if err != nil {
			return nil, err
		}
		in.Items = items
	}
	return in, nil
}

// DecodeInput decodes YAML, rejecting unknown keys.
func DecodeInput(r io.Reader) (*Input, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var in Input
	if err := dec.Decode(&in); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode simulation input: %w", err)
	}
	return &in, nil
}

// LoadLineItems reads line items from a CSV file.
func LoadLineItems(filename string) ([]LineItem, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	items, err := ReadLineItems(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return items, nil
}

// ReadLineItems parses CSV with a header row naming the columns name,
// unit_price and quantity in any order. Without a quantity column every
// item has quantity 1. Blank rows are skipped.
func ReadLineItems(r io.Reader) ([]LineItem, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, apperrors.Invalid("items", "file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[normaliseColumn(h)] = i
	}
	nameCol, ok := cols["name"]
	if !ok {
		return nil, apperrors.Invalid("items", "missing name column")
	}
	priceCol, ok := cols["unit_price"]
	if !ok {
		return nil, apperrors.Invalid("items", "missing unit_price column")
	}
	qtyCol, hasQty := cols["quantity"]

	var items []LineItem
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if blank(rec) {
			continue
		}
		item := LineItem{Name: field(rec, nameCol), Quantity: 1}
		if item.UnitPrice, err = parseNumber(field(rec, priceCol)); err != nil {
			return nil, apperrors.Invalid(fmt.Sprintf("line %d unit_price", line), "%v", err)
		}
		if hasQty {
			if item.Quantity, err = parseNumber(field(rec, qtyCol)); err != nil {
				return nil, apperrors.Invalid(fmt.Sprintf("line %d quantity", line), "%v", err)
			}
		}
		items = append(items, item)
	}
	return items, nil
}

var columnAliases = map[string]string{
	"item":      "name",
	"price":     "unit_price",
	"unitprice": "unit_price",
	"qty":       "quantity",
}

func normaliseColumn(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	h = strings.ReplaceAll(h, " ", "_")
	if alias, ok := columnAliases[h]; ok {
		return alias
	}
	return h
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("missing value")
	}
	return strconv.ParseFloat(s, 64)
}
