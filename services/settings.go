package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cafe-pos-api/apperr"
	"cafe-pos-api/config"
	"cafe-pos-api/models"
)

// Settings maps a section name to its key/value document.
type Settings map[string]map[string]any

// DefaultSettings derives the initial document from the runtime config.
func DefaultSettings(cfg config.Config) Settings {
	recipients := cfg.Email.DailyRecipients
	if recipients == nil {
		recipients = []string{}
	}
	return Settings{
		"general": {
			"storeName":    cfg.Business.Name,
			"storeAddress": cfg.Business.Address,
			"phoneNumber":  cfg.Business.Phone,
			"email":        cfg.Email.From,
			"currency":     "EUR",
			"timezone":     cfg.Email.Timezone,
			"language":     "en-US",
		},
		"pos": {
			"receiptTemplate":           "standard",
			"printReceiptAutomatically": cfg.Orders.AutoPrint,
			"askForCustomerName":        false,
			"enableTipping":             false,
			"defaultTipPercentages":     []int{10, 15, 20},
			"roundingMode":              "none",
		},
		"inventory": {
			"enableLowStockAlerts":   true,
			"lowStockThreshold":      10,
			"enableExpirationAlerts": true,
			"expirationWarningDays":  7,
		},
		"reports": {
			"enableAutomaticDailyReports": len(recipients) > 0,
			"dailyReportTime":             cfg.Email.DailyTime,
			"emailReportsTo":              recipients,
		},
		"security": {
			"sessionTimeoutMinutes":  cfg.JWT.ExpireMinutes,
			"enableTwoFactorAuth":    false,
			"maxLoginAttempts":       maxLoginAttempts,
			"lockoutDurationMinutes": int(lockoutDuration.Minutes()),
		},
	}
}

// SettingsService persists one JSON document per section. Stored keys
// override defaults; unknown sections are rejected.
type SettingsService struct {
	db       *gorm.DB
	defaults Settings
}

func NewSettingsService(db *gorm.DB, defaults Settings) *SettingsService {
	return &SettingsService{db: db, defaults: defaults}
}

func (s *SettingsService) Get(ctx context.Context) (Settings, error) {
	var rows []models.Setting
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(Settings, len(s.defaults))
	for section, values := range s.defaults {
		out[section] = make(map[string]any, len(values))
		for k, v := range values {
			out[section][k] = v
		}
	}
	for _, row := range rows {
		section, ok := out[row.Key]
		if !ok {
			continue
		}
		var stored map[string]any
		if err := json.Unmarshal(row.Value, &stored); err != nil {
			return nil, fmt.Errorf("decode settings section %s: %w", row.Key, err)
		}
		for k, v := range stored {
			section[k] = v
		}
	}
	return out, nil
}

// Update merges each supplied section key by key into what is stored.
func (s *SettingsService) Update(ctx context.Context, patch map[string]json.RawMessage) (Settings, error) {
	if len(patch) == 0 {
		return nil, apperr.Validation("at least one settings section is required")
	}
	var msgs []string
	parsed := map[string]map[string]any{}
	for section, raw := range patch {
		if _, ok := s.defaults[section]; !ok {
			msgs = append(msgs, fmt.Sprintf("unknown settings section %q, expected one of [%s]", section, strings.Join(s.sections(), " ")))
			continue
		}
		var values map[string]any
		if err := json.Unmarshal(raw, &values); err != nil || values == nil {
			msgs = append(msgs, section+" must be an object")
			continue
		}
		parsed[section] = values
	}
	if len(msgs) > 0 {
		sort.Strings(msgs)
		return nil, apperr.Validation(msgs...)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for section, values := range parsed {
			var row models.Setting
			err := tx.Where(&models.Setting{Key: section}).Limit(1).Find(&row).Error
			if err != nil {
				return err
			}
			merged := map[string]any{}
			if len(row.Value) > 0 {
				if err := json.Unmarshal(row.Value, &merged); err != nil {
					return fmt.Errorf("decode settings section %s: %w", section, err)
				}
			}
			for k, v := range values {
				merged[k] = v
			}
			doc, err := json.Marshal(merged)
			if err != nil {
				return err
			}
			err = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&models.Setting{Key: section, Value: datatypes.JSON(doc)}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx)
}

func (s *SettingsService) sections() []string {
	out := make([]string, 0, len(s.defaults))
	for k := range s.defaults {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
