// Command seed fills an empty database with a starter menu, stock and staff.
package main

import (
	"context"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"cafe-pos-api/apperr"
	"cafe-pos-api/config"
	"cafe-pos-api/controllers"
	"cafe-pos-api/logging"
	"cafe-pos-api/models"
	"cafe-pos-api/services"
)

type menuSeed struct {
	name, size, category string
	usd                  string
}

// Prices are the US list; they are stored in EUR.
var menuSeeds = []menuSeed{
	{"Espresso", "Single", "Coffee", "2.50"},
	{"Espresso", "Double", "Coffee", "3.25"},
	{"Cappuccino", "Regular", "Coffee", "4.00"},
	{"Cappuccino", "Large", "Coffee", "4.75"},
	{"Latte", "Regular", "Coffee", "4.25"},
	{"Latte", "Large", "Coffee", "5.00"},
	{"Americano", "Regular", "Coffee", "3.00"},
	{"Earl Grey", "Regular", "Tea", "2.75"},
	{"Chai Latte", "Regular", "Tea", "4.50"},
	{"Hot Chocolate", "Regular", "Other", "3.75"},
	{"Croissant", "", "Pastries", "3.00"},
	{"Blueberry Muffin", "", "Pastries", "3.25"},
	{"Avocado Toast", "", "Food", "8.50"},
}

type stockSeed struct {
	name, category, unit string
	current, minimum     string
	cost                 string
}

var stockSeeds = []stockSeed{
	{"Espresso Beans", "Coffee", "kg", "12", "5", "18.00"},
	{"Whole Milk", "Dairy", "l", "30", "10", "1.10"},
	{"Oat Milk", "Dairy", "l", "8", "6", "2.40"},
	{"Cocoa Powder", "Dry Goods", "kg", "3", "1", "9.50"},
	{"Paper Cups 12oz", "Packaging", "pcs", "400", "150", "0.08"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	log := logging.New(cfg.Log)
	db, err := config.OpenDB(cfg.Database, logging.Gorm(log))
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := config.Migrate(db); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}
	ctx := context.Background()
	if err := services.NewPermissionService(db, log).Bootstrap(ctx); err != nil {
		log.WithError(err).Fatal("failed to seed permissions")
	}

	menu := controllers.NewMenuController(db)
	inventory := controllers.NewInventoryController(db)
	users := controllers.NewUsersController(db)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Kind", "Name", "Detail", "Result")

	for _, s := range menuSeeds {
		price := services.ToEUR(decimal.RequireFromString(s.usd))
		existing, err := menu.FindByNameSize(ctx, s.name, s.size)
		if err != nil {
			log.WithError(err).Fatal("menu lookup failed")
		}
		result := "exists"
		if existing == nil {
			_, err := menu.Create(ctx, controllers.MenuItemInput{
				Name: &s.name, Size: &s.size, Category: &s.category, Price: &price,
			})
			if err != nil {
				log.WithError(err).WithField("item", s.name).Fatal("menu seed failed")
			}
			result = "created"
		}
		_ = table.Append([]string{"menu", s.name, s.size + " €" + price.StringFixed(2), result})
	}

	// Inventory names are not unique, so stock is only seeded into an empty table.
	var stocked int64
	if err := db.Model(&models.InventoryItem{}).Count(&stocked).Error; err != nil {
		log.WithError(err).Fatal("inventory count failed")
	}
	for _, s := range stockSeeds {
		result := "skipped"
		if stocked == 0 {
			cur := decimal.RequireFromString(s.current)
			minimum := decimal.RequireFromString(s.minimum)
			cost := decimal.RequireFromString(s.cost)
			_, err := inventory.Create(ctx, controllers.InventoryInput{
				Name: &s.name, Category: &s.category, Unit: &s.unit,
				CurrentStock: &cur, MinimumStock: &minimum, CostPerUnit: &cost,
			})
			if err != nil {
				log.WithError(err).WithField("item", s.name).Fatal("inventory seed failed")
			}
			result = "created"
		}
		_ = table.Append([]string{"inventory", s.name, s.current + " " + s.unit, result})
	}

	staff := []struct {
		username, password, pin, first, last string
		role                                 models.UserRole
	}{
		{"admin", "admin123!", "", "Cafe", "Admin", models.RoleAdmin},
		{"cashier", "cashier123!", "1234", "Front", "Counter", models.RoleCashier},
	}
	for _, s := range staff {
		in := controllers.UserInput{
			Username: &s.username, Password: &s.password,
			FirstName: &s.first, LastName: &s.last, Role: &s.role,
		}
		if s.pin != "" {
			in.Pin = &s.pin
		}
		result := "created"
		if _, err := users.Create(ctx, in); err != nil {
			if e, ok := apperr.As(err); ok && e.Code == apperr.CodeConflict {
				result = "exists"
			} else {
				log.WithError(err).WithField("user", s.username).Fatal("user seed failed")
			}
		}
		_ = table.Append([]string{"user", s.username, string(s.role), result})
	}

	if err := table.Render(); err != nil {
		log.WithError(err).Error("summary not rendered")
	}
	log.Info("seed complete")
}
