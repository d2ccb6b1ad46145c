package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dirsync/internal/sync/config"
	"dirsync/internal/sync/models"
)

func TestApply(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	source := models.SourceRecord{
		ExternalID:    "ext-1",
		PrincipalName: "ada@corp.example",
		DisplayName:   "Ada Lovelace",
		GivenName:     "Ada",
		Surname:       "Lovelace",
		Email:         "ada@corp.example",
		JobTitle:      "Engineer",
		Department:    "R&D",
		Office:        "London",
		Phones:        []string{"+44 20 1234", "+44 20 5678"},
		EmployeeType:  "FTE",
		Company:       "Corp",
	}

	tests := []struct {
		name     string
		source   models.SourceRecord
		mappings []models.FieldMapping
		initial  models.TargetRecord
		check    func(t *testing.T, rec models.TargetRecord)
	}{
		{
			name:     "default mappings copy all fields",
			source:   source,
			mappings: config.DefaultMappings(),
			check: func(t *testing.T, rec models.TargetRecord) {
				assert.Equal(t, "Ada Lovelace", rec.Title)
				assert.Equal(t, "ada@corp.example", rec.Email)
				assert.Equal(t, "ada@corp.example", rec.PrincipalName)
				assert.Equal(t, "Ada", rec.GivenName)
				assert.Equal(t, "Lovelace", rec.Surname)
				assert.Equal(t, "Engineer", rec.JobTitle)
				assert.Equal(t, "R&D", rec.Department)
				assert.Equal(t, "London", rec.Office)
				assert.Equal(t, "FTE", rec.EmployeeType)
				assert.Equal(t, "Corp", rec.Company)
			},
		},
		{
			name:     "multi-valued field takes first element",
			source:   source,
			mappings: []models.FieldMapping{{SourceField: config.SourcePhones, TargetField: config.TargetPhone, Enabled: true}},
			check: func(t *testing.T, rec models.TargetRecord) {
				assert.Equal(t, "+44 20 1234", rec.Phone)
			},
		},
		{
			name:   "empty phone list maps to empty string",
			source: models.SourceRecord{Phones: []string{}},
			mappings: []models.FieldMapping{
				{SourceField: config.SourcePhones, TargetField: config.TargetPhone, Enabled: true},
			},
			initial: models.TargetRecord{Phone: "stale"},
			check: func(t *testing.T, rec models.TargetRecord) {
				assert.Equal(t, "", rec.Phone)
			},
		},
		{
			name:     "disabled mapping is skipped",
			source:   source,
			mappings: []models.FieldMapping{{SourceField: config.SourceJobTitle, TargetField: config.TargetJobTitle, Enabled: false}},
			check: func(t *testing.T, rec models.TargetRecord) {
				assert.Equal(t, "", rec.JobTitle)
			},
		},
		{
			name:   "absent source value keeps existing target value",
			source: models.SourceRecord{DisplayName: ""},
			mappings: []models.FieldMapping{
				{SourceField: config.SourceDisplayName, TargetField: config.TargetTitle, Enabled: true},
			},
			initial: models.TargetRecord{Title: "Existing Title"},
			check: func(t *testing.T, rec models.TargetRecord) {
				assert.Equal(t, "Existing Title", rec.Title)
			},
		},
		{
			name:     "status is never touched",
			source:   source,
			mappings: config.DefaultMappings(),
			initial:  models.TargetRecord{Status: models.StatusInactive},
			check: func(t *testing.T, rec models.TargetRecord) {
				assert.Equal(t, models.StatusInactive, rec.Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.initial
			Apply(&rec, tt.source, tt.mappings, now)
			assert.Equal(t, now, rec.LastSyncedAt)
			tt.check(t, rec)
		})
	}
}

func TestApplyIsPure(t *testing.T) {
	source := models.SourceRecord{Phones: []string{"1", "2"}, DisplayName: "X"}
	before := append([]string(nil), source.Phones...)

	var rec models.TargetRecord
	Apply(&rec, source, config.DefaultMappings(), time.Now())

	assert.Equal(t, before, source.Phones)
}
