package pricing

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Lelo88/inventory-pricing-api/internal/catalog"
)

type rulesFile struct {
	BulkTiers []struct {
		MinQuantity int    `yaml:"min_quantity"`
		Rate        string `yaml:"rate"`
	} `yaml:"bulk_tiers"`
	CategoryRates map[string]string `yaml:"category_rates"`
	TimeWindow    *struct {
		StartHour int    `yaml:"start_hour"`
		EndHour   int    `yaml:"end_hour"`
		Rate      string `yaml:"rate"`
		Label     string `yaml:"label"`
	} `yaml:"time_window"`
	Coupons []struct {
		Code        string `yaml:"code"`
		Rate        string `yaml:"rate"`
		Description string `yaml:"description"`
		Eligibility []struct {
			Kind        string `yaml:"kind"`
			MinQuantity int    `yaml:"min_quantity"`
		} `yaml:"eligibility"`
	} `yaml:"coupons"`
}

// LoadRulesFile lee una tabla de reglas YAML desde disco.
func LoadRulesFile(path string) (Rules, error) {
	file, err := os.Open(path)
	if err != nil {
		return Rules{}, fmt.Errorf("open rules file: %w", err)
	}
	defer file.Close()

	return ParseRules(file)
}

// ParseRules decodifica y valida una tabla de reglas.
// Las secciones ausentes quedan vacías (sin ese tipo de descuento).
// Se devuelven todos los problemas encontrados, no solo el primero.
func ParseRules(reader io.Reader) (Rules, error) {
	var raw rulesFile
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return Rules{}, fmt.Errorf("decode rules: %w", err)
	}

	var errs error
	rules := Rules{
		CategoryRates: map[catalog.Category]decimal.Decimal{},
		Coupons:       map[string]Coupon{},
	}

	for i, tier := range raw.BulkTiers {
		rate, err := parseRate(tier.Rate)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("bulk_tiers[%d]: %w", i, err))
			continue
		}
		if tier.MinQuantity < 1 {
			errs = multierr.Append(errs, fmt.Errorf("bulk_tiers[%d]: min_quantity must be positive", i))
			continue
		}
		rules.BulkTiers = append(rules.BulkTiers, BulkTier{MinQuantity: tier.MinQuantity, Rate: rate})
	}
	sort.SliceStable(rules.BulkTiers, func(i, j int) bool {
		return rules.BulkTiers[i].MinQuantity > rules.BulkTiers[j].MinQuantity
	})

	for name, value := range raw.CategoryRates {
		category, ok := catalog.ParseCategory(name)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("category_rates: unknown category %q", name))
			continue
		}
		rate, err := parseRate(value)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("category_rates[%s]: %w", name, err))
			continue
		}
		rules.CategoryRates[category] = rate
	}

	if raw.TimeWindow != nil {
		window := raw.TimeWindow
		rate, err := parseRate(window.Rate)
		switch {
		case err != nil:
			errs = multierr.Append(errs, fmt.Errorf("time_window: %w", err))
		case window.StartHour < 0 || window.EndHour > 24 || window.StartHour >= window.EndHour:
			errs = multierr.Append(errs, fmt.Errorf("time_window: invalid hours %d-%d", window.StartHour, window.EndHour))
		default:
			rules.TimeWindow = TimeWindow{
				StartHour: window.StartHour,
				EndHour:   window.EndHour,
				Rate:      rate,
				Label:     window.Label,
			}
		}
	}

	for i, entry := range raw.Coupons {
		code := NormalizeCode(entry.Code)
		if !couponFormat.MatchString(code) {
			errs = multierr.Append(errs, fmt.Errorf("coupons[%d]: invalid code %q", i, entry.Code))
			continue
		}
		rate, err := parseRate(entry.Rate)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("coupons[%s]: %w", code, err))
			continue
		}
		coupon := Coupon{Code: code, Rate: rate, Description: strings.TrimSpace(entry.Description)}
		for _, predicate := range entry.Eligibility {
			switch EligibilityKind(predicate.Kind) {
			case EligibilityWeekendOnly:
				coupon.Eligibility = append(coupon.Eligibility, Eligibility{Kind: EligibilityWeekendOnly})
			case EligibilityMinQuantity:
				if predicate.MinQuantity < 1 {
					errs = multierr.Append(errs, fmt.Errorf("coupons[%s]: min_quantity must be positive", code))
					continue
				}
				coupon.Eligibility = append(coupon.Eligibility, Eligibility{Kind: EligibilityMinQuantity, MinQuantity: predicate.MinQuantity})
			default:
				errs = multierr.Append(errs, fmt.Errorf("coupons[%s]: unknown eligibility kind %q", code, predicate.Kind))
			}
		}
		rules.Coupons[code] = coupon
	}

	if errs != nil {
		return Rules{}, errs
	}
	return rules, nil
}

func parseRate(value string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid rate %q", value)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Decimal{}, fmt.Errorf("rate %s out of range [0,1]", rate)
	}
	return rate, nil
}
