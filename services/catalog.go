package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"cafe-pos-api/apperr"
	"cafe-pos-api/controllers"
	"cafe-pos-api/models"
)

// ImportOptions control how rows matching an existing name+size are treated.
type ImportOptions struct {
	SkipDuplicates bool
	UpdateExisting bool
}

type ImportRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
	Data  string `json:"data"`
}

type ImportResult struct {
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
	Errors   int              `json:"errors"`
	Details  []ImportRowError `json:"details"`
}

// MenuImporter loads menu items from CSV with columns name, description,
// category, size_name, size_price, size_volume, allergens and calories.
type MenuImporter struct {
	menu *controllers.MenuController
	log  *logrus.Entry
}

func NewMenuImporter(menu *controllers.MenuController, log *logrus.Logger) *MenuImporter {
	return &MenuImporter{menu: menu, log: log.WithField("component", "menu-import")}
}

// Import never aborts on a bad row; each failure is reported with its row number.
func (m *MenuImporter) Import(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperr.Validation("CSV file is empty")
	}
	if err != nil {
		return nil, apperr.Validation("CSV header could not be read: " + err.Error())
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	res := &ImportResult{Details: []ImportRowError{}}
	for rowNum := 1; ; rowNum++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.fail(rowNum, err.Error(), "")
			continue
		}
		get := func(name, fallback string) string {
			if i, ok := col[name]; ok && i < len(rec) {
				if v := strings.TrimSpace(rec[i]); v != "" {
					return v
				}
			}
			return fallback
		}
		raw := strings.Join(rec, ",")

		name := get("name", "")
		price, perr := decimal.NewFromString(get("size_price", "0"))
		if name == "" || perr != nil || !price.IsPositive() {
			res.fail(rowNum, "Name and valid price are required", raw)
			continue
		}
		in := controllers.MenuItemInput{
			Name:        &name,
			Price:       ptr(price.Round(2)),
			Category:    ptr(get("category", models.DefaultCategory)),
			Size:        ptr(get("size_name", models.DefaultSize)),
			Description: ptr(get("description", "")),
		}
		if v := get("size_volume", ""); v != "" {
			in.SizeVolume = &v
		}
		if v := get("allergens", ""); v != "" {
			in.Allergens = &v
		}
		if v := get("calories", ""); v != "" {
			cal, err := strconv.Atoi(v)
			if err != nil {
				res.fail(rowNum, "calories must be a whole number", raw)
				continue
			}
			in.Calories = &cal
		}
		label := name + " - " + *in.Size

		var existing *models.MenuItem
		if opts.SkipDuplicates || opts.UpdateExisting {
			if existing, err = m.menu.FindByNameSize(ctx, name, *in.Size); err != nil {
				res.fail(rowNum, err.Error(), label)
				continue
			}
		}
		switch {
		case existing != nil && opts.UpdateExisting:
			in.Name, in.Size = nil, nil
			if _, err := m.menu.Update(ctx, existing.ID, in); err != nil {
				res.fail(rowNum, "Failed to update existing item: "+errText(err), label)
				continue
			}
			res.Imported++
		case existing != nil:
			res.Skipped++
		default:
			if _, err := m.menu.Create(ctx, in); err != nil {
				res.fail(rowNum, "Creation error: "+errText(err), label)
				continue
			}
			res.Imported++
		}
	}
	m.log.WithFields(logrus.Fields{"imported": res.Imported, "skipped": res.Skipped, "errors": res.Errors}).Info("menu import finished")
	return res, nil
}

func (r *ImportResult) fail(row int, msg, data string) {
	r.Errors++
	r.Details = append(r.Details, ImportRowError{Row: row, Error: msg, Data: data})
}

func errText(err error) string {
	if e, ok := apperr.As(err); ok {
		return strings.Join(e.Messages, "; ")
	}
	return err.Error()
}

func ptr[T any](v T) *T { return &v }

// InventorySource lists every inventory item for export.
type InventorySource interface {
	All(ctx context.Context) ([]models.InventoryItem, error)
}

var inventoryExportHeader = []string{"Item ID", "Name", "Current Stock", "Minimum Stock", "Cost Per Unit", "Last Updated"}

// ExportFilename names the CSV download for the given day.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("inventory-export-%s.csv", t.Format("20060102"))
}

type InventoryExporter struct {
	src InventorySource
}

func NewInventoryExporter(src InventorySource) *InventoryExporter {
	return &InventoryExporter{src: src}
}

// Export writes all items as CSV.
func (e *InventoryExporter) Export(ctx context.Context, w io.Writer) error {
	items, err := e.src.All(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(inventoryExportHeader); err != nil {
		return err
	}
	for _, it := range items {
		err := cw.Write([]string{
			it.ID,
			it.Name,
			it.CurrentStock.String(),
			it.MinimumStock.String(),
			it.CostPerUnit.String(),
			it.UpdatedAt.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
