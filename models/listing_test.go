package models

import (
	"errors"
	"testing"
	"time"
)

func validRaw() RawListing {
	return RawListing{
		BuildingTitle:   "グランドメゾン渋谷",
		Address:         "東京都渋谷区神南１",
		Access:          "ＪＲ山手線/渋谷駅 歩5分",
		BuildingAgeArea: "築8年 10階建",
		Floor:           "3階",
		Rent:            "15万円",
		AdminFee:        "8000円",
		DepositKeyMoney: "15万円 / 15万円",
		Layout:          "1K",
		Area:            "30m²",
		DetailURL:       "https://suumo.jp/chintai/jnc_000012345/",
		SearchStation:   "渋谷",
		ScrapedAt:       time.Date(2025, 1, 17, 14, 30, 0, 0, time.UTC),
	}
}

func TestNewListingValid(t *testing.T) {
	l, err := NewListing(validRaw(), []string{"渋谷", "新宿"})
	if err != nil {
		t.Fatalf("NewListing returned error: %v", err)
	}

	if l.RentNumeric == nil || *l.RentNumeric != 150000 {
		t.Errorf("RentNumeric: got %v, want 150000", l.RentNumeric)
	}
	if l.AreaNumeric == nil || *l.AreaNumeric != 30 {
		t.Errorf("AreaNumeric: got %v, want 30", l.AreaNumeric)
	}
	if l.BuildingAge == nil || *l.BuildingAge != 8 {
		t.Errorf("BuildingAge: got %v, want 8", l.BuildingAge)
	}
	if l.AdminFeeNumeric == nil || *l.AdminFeeNumeric != 8000 {
		t.Errorf("AdminFeeNumeric: got %v, want 8000", l.AdminFeeNumeric)
	}
	if l.RentPerSqm == nil || *l.RentPerSqm != 5000 {
		t.Errorf("RentPerSqm: got %v, want 5000", l.RentPerSqm)
	}
	if l.AgeCategory != "6-10y" {
		t.Errorf("AgeCategory: got %q, want %q", l.AgeCategory, "6-10y")
	}
	if len(l.StationInfo) != 1 || l.StationInfo[0] != "渋谷駅" {
		t.Errorf("StationInfo: got %v, want [渋谷駅]", l.StationInfo)
	}
	if len(l.TargetStations) != 2 {
		t.Errorf("TargetStations: got %v, want two entries", l.TargetStations)
	}
}

func TestNewListingPartialFieldsKept(t *testing.T) {
	raw := validRaw()
	raw.Rent = "-"
	raw.AdminFee = ""
	raw.BuildingAgeArea = "木造"

	l, err := NewListing(raw, nil)
	if err != nil {
		t.Fatalf("partial record should validate, got error: %v", err)
	}
	if l.RentNumeric != nil {
		t.Errorf("RentNumeric: got %v, want nil", *l.RentNumeric)
	}
	if l.RentPerSqm != nil {
		t.Errorf("RentPerSqm should be nil without rent")
	}
	if l.BuildingAge != nil {
		t.Errorf("BuildingAge: got %v, want nil", *l.BuildingAge)
	}
	if l.AgeCategory != "" {
		t.Errorf("AgeCategory: got %q, want empty", l.AgeCategory)
	}
}

func TestNewListingRejectsBadURL(t *testing.T) {
	for _, badURL := range []string{"", "/chintai/jnc_000012345/", "ftp://suumo.jp/x"} {
		raw := validRaw()
		raw.DetailURL = badURL

		_, err := NewListing(raw, nil)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("DetailURL %q: want ValidationError, got %v", badURL, err)
		}
		if verr.Field != "detail_url" {
			t.Errorf("DetailURL %q: field got %q, want detail_url", badURL, verr.Field)
		}
	}
}

func TestNewListingRejectsWithoutRentAndArea(t *testing.T) {
	raw := validRaw()
	raw.Rent = "-"
	raw.Area = ""

	_, err := NewListing(raw, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if verr.Field != "rent_area" {
		t.Errorf("field: got %q, want rent_area", verr.Field)
	}
}

func TestNewListingStampsScrapedAt(t *testing.T) {
	raw := validRaw()
	raw.ScrapedAt = time.Time{}

	l, err := NewListing(raw, nil)
	if err != nil {
		t.Fatalf("NewListing returned error: %v", err)
	}
	if l.ScrapedAt.IsZero() {
		t.Error("ScrapedAt should be stamped when the raw record has none")
	}
}

func TestDeriveRecomputes(t *testing.T) {
	l, err := NewListing(validRaw(), nil)
	if err != nil {
		t.Fatalf("NewListing returned error: %v", err)
	}

	// Simulate stale derived values after an edit.
	newRent := 90000.0
	l.RentNumeric = &newRent
	l.Derive()

	if l.RentPerSqm == nil || *l.RentPerSqm != 3000 {
		t.Errorf("RentPerSqm after Derive: got %v, want 3000", l.RentPerSqm)
	}
}
