/*
Package factory provides YAML to Go constants-table conversion.

PURPOSE:
  Converts YAML tax-year definitions into a taxyear.Table. This enables
  rate updates without code changes - when a Budget changes a band or a
  rate, operations ship a new YAML file, and the factory creates the
  proper Go structs. The compiled-in DefaultTable stays the fallback.

WHY YAML?
  - Non-developers can review a rate change against the legislation
  - Version control for the statutory figures
  - One file covers both jurisdictions

YAML SCHEMA:
  uk:
    - year: 2024              # tax year starting 6 April 2024
      nil_rate_band: "325000"
      residence_nil_rate_band: "175000"
      rnrb_taper_threshold: "2000000"
      iht_rate: "0.40"
      annual_exemption: "3000"
      small_gift_limit: "250"
      marriage_exemption_child: "5000"
      marriage_exemption_general: "1000"
  sa:
    - year: 2025              # tax year ending 28/29 February 2025
      abatement: "3500000"
      base_rate: "0.20"
      higher_rate: "0.25"
      higher_rate_threshold: "30000000"

KEY FEATURES:
  - Validates amounts and rates at load time, not first use
  - Amounts are decimal strings, never floats
  - Missing optional exemption fields fall back to the statutory
    defaults for that year

USAGE:
  table, err := factory.LoadTable(yamlBytes)

  // Or from a file, falling back to the compiled defaults
  table := factory.TableFromFileOrDefault("/etc/estate-engine/rates.yaml", logger)

SEE ALSO:
  - taxyear/constants.go: Constants types and DefaultTable
*/
package factory

import (
	"fmt"
	"log"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/estate-engine/money"
	"github.com/warp/estate-engine/taxyear"
)

// =============================================================================
// YAML SCHEMA TYPES
// =============================================================================

// TableYAML is the YAML representation of the full constants table.
type TableYAML struct {
	UK []UKYearYAML `yaml:"uk"`
	SA []SAYearYAML `yaml:"sa"`
}

// UKYearYAML represents one UK tax year. Amounts are GBP decimal
// strings.
type UKYearYAML struct {
	Year                     int    `yaml:"year"`
	NilRateBand              string `yaml:"nil_rate_band"`
	ResidenceNilRateBand     string `yaml:"residence_nil_rate_band"`
	RNRBTaperThreshold       string `yaml:"rnrb_taper_threshold"`
	IHTRate                  string `yaml:"iht_rate"`
	AnnualExemption          string `yaml:"annual_exemption,omitempty"`
	SmallGiftLimit           string `yaml:"small_gift_limit,omitempty"`
	MarriageExemptionChild   string `yaml:"marriage_exemption_child,omitempty"`
	MarriageExemptionGeneral string `yaml:"marriage_exemption_general,omitempty"`
}

// SAYearYAML represents one SA tax year. Amounts are ZAR decimal
// strings.
type SAYearYAML struct {
	Year                int    `yaml:"year"`
	Abatement           string `yaml:"abatement"`
	BaseRate            string `yaml:"base_rate"`
	HigherRate          string `yaml:"higher_rate"`
	HigherRateThreshold string `yaml:"higher_rate_threshold"`
}

// =============================================================================
// LOADING
// =============================================================================

// LoadTable parses YAML bytes into a validated constants table.
func LoadTable(data []byte) (*taxyear.Table, error) {
	var ty TableYAML
	if err := yaml.Unmarshal(data, &ty); err != nil {
		return nil, fmt.Errorf("failed to parse constants YAML: %w", err)
	}
	return FromYAML(ty)
}

// LoadTableFile reads and parses a YAML constants file.
func LoadTableFile(path string) (*taxyear.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read constants file: %w", err)
	}
	return LoadTable(data)
}

// TableFromFileOrDefault loads the file when the path is set and the
// file parses; otherwise returns the compiled-in defaults. Startup
// convenience for cmd/server.
func TableFromFileOrDefault(path string, logger *log.Logger) *taxyear.Table {
	if path == "" {
		return taxyear.DefaultTable()
	}
	table, err := LoadTableFile(path)
	if err != nil {
		logger.Printf("constants file %s rejected, using compiled defaults: %v", path, err)
		return taxyear.DefaultTable()
	}
	return table
}

// FromYAML converts TableYAML to a taxyear.Table.
func FromYAML(ty TableYAML) (*taxyear.Table, error) {
	if len(ty.UK) == 0 && len(ty.SA) == 0 {
		return nil, fmt.Errorf("constants YAML defines no tax years")
	}

	var uk []taxyear.Constants
	for _, y := range ty.UK {
		c, err := parseUKYear(y)
		if err != nil {
			return nil, fmt.Errorf("uk year %d: %w", y.Year, err)
		}
		uk = append(uk, c)
	}

	var sa []taxyear.SAConstants
	for _, y := range ty.SA {
		c, err := parseSAYear(y)
		if err != nil {
			return nil, fmt.Errorf("sa year %d: %w", y.Year, err)
		}
		sa = append(sa, c)
	}

	return taxyear.NewTable(uk, sa), nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// Statutory defaults for the optional gift-exemption fields.
const (
	defaultAnnualExemption = "3000"
	defaultSmallGiftLimit  = "250"
	defaultMarriageChild   = "5000"
	defaultMarriageGeneral = "1000"
)

func parseUKYear(y UKYearYAML) (taxyear.Constants, error) {
	c := taxyear.Constants{Year: taxyear.UKYear(y.Year)}

	var err error
	if c.NilRateBand, err = parseAmount(y.NilRateBand, "nil_rate_band", money.GBP); err != nil {
		return taxyear.Constants{}, err
	}
	if c.ResidenceNilRateBand, err = parseAmount(y.ResidenceNilRateBand, "residence_nil_rate_band", money.GBP); err != nil {
		return taxyear.Constants{}, err
	}
	if c.RNRBTaperThreshold, err = parseAmount(y.RNRBTaperThreshold, "rnrb_taper_threshold", money.GBP); err != nil {
		return taxyear.Constants{}, err
	}
	if c.IHTRate, err = parseRate(y.IHTRate, "iht_rate"); err != nil {
		return taxyear.Constants{}, err
	}

	if c.AnnualExemption, err = parseAmount(orDefault(y.AnnualExemption, defaultAnnualExemption), "annual_exemption", money.GBP); err != nil {
		return taxyear.Constants{}, err
	}
	if c.SmallGiftLimit, err = parseAmount(orDefault(y.SmallGiftLimit, defaultSmallGiftLimit), "small_gift_limit", money.GBP); err != nil {
		return taxyear.Constants{}, err
	}
	if c.MarriageExemptionChild, err = parseAmount(orDefault(y.MarriageExemptionChild, defaultMarriageChild), "marriage_exemption_child", money.GBP); err != nil {
		return taxyear.Constants{}, err
	}
	if c.MarriageExemptionGeneral, err = parseAmount(orDefault(y.MarriageExemptionGeneral, defaultMarriageGeneral), "marriage_exemption_general", money.GBP); err != nil {
		return taxyear.Constants{}, err
	}

	return c, nil
}

func parseSAYear(y SAYearYAML) (taxyear.SAConstants, error) {
	c := taxyear.SAConstants{Year: taxyear.SAYear(y.Year)}

	var err error
	if c.Abatement, err = parseAmount(y.Abatement, "abatement", money.ZAR); err != nil {
		return taxyear.SAConstants{}, err
	}
	if c.BaseRate, err = parseRate(y.BaseRate, "base_rate"); err != nil {
		return taxyear.SAConstants{}, err
	}
	if c.HigherRate, err = parseRate(y.HigherRate, "higher_rate"); err != nil {
		return taxyear.SAConstants{}, err
	}
	if c.HigherRateThreshold, err = parseAmount(y.HigherRateThreshold, "higher_rate_threshold", money.ZAR); err != nil {
		return taxyear.SAConstants{}, err
	}

	return c, nil
}

func parseAmount(s, field string, currency money.Currency) (money.Money, error) {
	if s == "" {
		return money.Money{}, fmt.Errorf("%s is required", field)
	}
	m, err := money.Parse(s, currency)
	if err != nil {
		return money.Money{}, fmt.Errorf("%s: %w", field, err)
	}
	if m.IsNegative() {
		return money.Money{}, fmt.Errorf("%s must not be negative: %s", field, s)
	}
	return m, nil
}

// parseRate accepts a fractional rate like "0.40". Percentages must be
// written as fractions; a value above 1 is rejected as a unit mistake.
func parseRate(s, field string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%s is required", field)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: invalid rate %q", field, s)
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Decimal{}, fmt.Errorf("%s out of range [0, 1]: %s", field, s)
	}
	return d, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
