package ingestion

import (
	"errors"
	"testing"
	"time"

	"github.com/ccsdpt/hisweb/internal/domain"
)

func TestNormalizeAttachesShelterAndDate(t *testing.T) {
	date := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	raw := []RawRow{
		{Description: "Beds", Value: "12", Version: "1"},
		{Description: "Blankets", Value: "40.5", Version: "2"},
	}

	records, skipped, err := Normalize(raw, "North", date)
	if err != nil {
		t.Fatalf("normalize returned error: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("expected no skipped rows, got %d", skipped)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.Shelter != "North" || !rec.DateOfRpt.Equal(date) {
			t.Fatalf("shelter/date not attached: %+v", rec)
		}
	}
	if records[1].Value != 40.5 {
		t.Fatalf("expected value 40.5, got %v", records[1].Value)
	}
}

func TestNormalizeDropsNonNumericRows(t *testing.T) {
	date := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	raw := []RawRow{
		{Description: "Beds", Value: "12", Version: "1"},
		{Description: "Blankets", Value: "N/A", Version: "1"},
		{Description: "", Value: "3", Version: "1"},
	}

	records, skipped, err := Normalize(raw, "North", date)
	if err != nil {
		t.Fatalf("normalize returned error: %v", err)
	}
	if skipped != 2 {
		t.Fatalf("expected 2 skipped rows, got %d", skipped)
	}
	if len(records) != 1 || records[0].Description != "Beds" {
		t.Fatalf("unexpected surviving records: %+v", records)
	}
}

func TestNormalizeFailsWhenNothingSurvives(t *testing.T) {
	date := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	raw := []RawRow{
		{Description: "Beds", Value: "N/A", Version: "1"},
		{Description: "Cots", Value: "12", Version: "x"},
	}

	_, skipped, err := Normalize(raw, "North", date)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if skipped != 2 {
		t.Fatalf("expected 2 skipped rows, got %d", skipped)
	}
}
