package taxyear_test

import (
	"testing"

	"github.com/warp/estate-engine/taxyear"
)

func TestDefaultTable_KnownYears(t *testing.T) {
	table := taxyear.DefaultTable()

	c, err := table.UK(2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.NilRateBand.Amount.String() != "325000" {
		t.Errorf("2024/25 NRB = %v", c.NilRateBand)
	}
	if c.ResidenceNilRateBand.Amount.String() != "175000" {
		t.Errorf("2024/25 RNRB = %v", c.ResidenceNilRateBand)
	}
	if c.RNRBTaperThreshold.Amount.String() != "2000000" {
		t.Errorf("2024/25 taper threshold = %v", c.RNRBTaperThreshold)
	}
	if c.IHTRate.String() != "0.4" {
		t.Errorf("IHT rate = %v", c.IHTRate)
	}
}

func TestDefaultTable_RNRBPhaseIn(t *testing.T) {
	table := taxyear.DefaultTable()
	c, err := table.UK(2018)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ResidenceNilRateBand.Amount.String() != "125000" {
		t.Errorf("2018/19 RNRB = %v, want 125000", c.ResidenceNilRateBand)
	}
}

func TestDefaultTable_FutureYearFallsBackToLatest(t *testing.T) {
	table := taxyear.DefaultTable()
	c, err := table.UK(2030)
	if err != nil {
		t.Fatalf("expected fallback, got error: %v", err)
	}
	if c.Year != 2030 {
		t.Errorf("year = %v, want 2030", c.Year)
	}
	if c.NilRateBand.Amount.String() != "325000" {
		t.Errorf("projected NRB = %v", c.NilRateBand)
	}
}

func TestDefaultTable_BeforeEarliestYearFails(t *testing.T) {
	table := taxyear.DefaultTable()
	if _, err := table.UK(2010); err == nil {
		t.Fatal("expected error for year before table start")
	}
}

func TestDefaultTable_SA(t *testing.T) {
	table := taxyear.DefaultTable()
	c, err := table.SA(2025)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Abatement.Amount.String() != "3500000" {
		t.Errorf("abatement = %v", c.Abatement)
	}
	if c.BaseRate.String() != "0.2" || c.HigherRate.String() != "0.25" {
		t.Errorf("rates = %v / %v", c.BaseRate, c.HigherRate)
	}
}
