package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-pos-api/controllers"
	"cafe-pos-api/testutil"
)

const menuCSV = "\ufeffname,description,category,size_name,size_price,size_volume,allergens,calories\n" +
	"Latte,Milky,Coffee,Regular,3.50,12oz,milk,180\n" +
	"Latte,Milky,Coffee,Large,4.25,16oz,milk,240\n" +
	"Water,,Other,,0,,,\n" +
	",,Other,Regular,2.00,,,\n" +
	"Scone,,Pastries,,2.75,,,lots\n"

func TestImportMenu(t *testing.T) {
	ctx := context.Background()
	menu := controllers.NewMenuController(testutil.NewDB(t))
	imp := NewMenuImporter(menu, quietLogger())

	res, err := imp.Import(ctx, strings.NewReader(menuCSV), ImportOptions{SkipDuplicates: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 3, res.Errors)
	require.Len(t, res.Details, 3)
	assert.Equal(t, 3, res.Details[0].Row)
	assert.Equal(t, "Name and valid price are required", res.Details[0].Error)
	assert.Equal(t, "calories must be a whole number", res.Details[2].Error)

	large, err := menu.FindByNameSize(ctx, "latte", "large")
	require.NoError(t, err)
	require.NotNil(t, large)
	assert.Equal(t, "16oz", large.SizeVolume)
	require.NotNil(t, large.Calories)
	assert.Equal(t, 240, *large.Calories)

	// Same file again: everything valid is a duplicate now.
	res, err = imp.Import(ctx, strings.NewReader(menuCSV), ImportOptions{SkipDuplicates: true})
	require.NoError(t, err)
	assert.Zero(t, res.Imported)
	assert.Equal(t, 2, res.Skipped)

	update := "name,category,size_name,size_price\nLatte,Coffee,Large,4.75\n"
	res, err = imp.Import(ctx, strings.NewReader(update), ImportOptions{UpdateExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	large, err = menu.Get(ctx, large.ID)
	require.NoError(t, err)
	assertMoney(t, "4.75", large.Price)
}

func TestImportMenuEmptyFile(t *testing.T) {
	imp := NewMenuImporter(controllers.NewMenuController(testutil.NewDB(t)), quietLogger())
	_, err := imp.Import(context.Background(), strings.NewReader(""), ImportOptions{})
	require.Error(t, err)
}

func TestInventoryExport(t *testing.T) {
	ctx := context.Background()
	inv := controllers.NewInventoryController(testutil.NewDB(t))
	name, stock, minimum, cost := "Oat Milk", d("8"), d("6"), d("0.0125")
	_, err := inv.Create(ctx, controllers.InventoryInput{Name: &name, CurrentStock: &stock, MinimumStock: &minimum, CostPerUnit: &cost})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewInventoryExporter(inv).Export(ctx, &buf))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, inventoryExportHeader, rows[0])
	assert.Equal(t, "Oat Milk", rows[1][1])
	assert.Equal(t, "0.0125", rows[1][4])

	assert.Equal(t, "inventory-export-20260102.csv", ExportFilename(time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)))
}

func TestMoneyConversion(t *testing.T) {
	assertMoney(t, "2.13", ToEUR(d("2.50")))
	assertMoney(t, "2.50", ToUSD(d("2.125")))
	assertMoney(t, "0.01", Round2(d("0.005")))
}
