// Package mapper copies directory attributes onto employee records according
// to the configured field mappings. It is pure: no I/O and no error paths.
package mapper

import (
	"time"

	"dirsync/internal/sync/config"
	"dirsync/internal/sync/models"
)

// Apply writes each enabled mapping's source value into the target record and
// stamps LastSyncedAt. Lifecycle status and external-id linkage are owned by
// the orchestrator and never touched here. Multi-valued source attributes
// collapse to their first element.
func Apply(target *models.TargetRecord, source models.SourceRecord, mappings []models.FieldMapping, now time.Time) {
	for _, m := range mappings {
		if !m.Enabled {
			continue
		}
		value, ok := sourceValue(source, m.SourceField)
		if !ok {
			continue
		}
		setTargetField(target, m.TargetField, value)
	}
	target.LastSyncedAt = now
}

// sourceValue resolves one source attribute. ok is false when the attribute
// is absent (empty), so disabled mappings and blank directory fields never
// blank out existing target values.
func sourceValue(source models.SourceRecord, field string) (string, bool) {
	var v string
	switch field {
	case config.SourceDisplayName:
		v = source.DisplayName
	case config.SourcePrincipalName:
		v = source.PrincipalName
	case config.SourceGivenName:
		v = source.GivenName
	case config.SourceSurname:
		v = source.Surname
	case config.SourceMail:
		v = source.Email
	case config.SourceJobTitle:
		v = source.JobTitle
	case config.SourceDepartment:
		v = source.Department
	case config.SourceOffice:
		v = source.Office
	case config.SourcePhones:
		// A present-but-empty list still maps, to the empty string.
		if source.Phones == nil {
			return "", false
		}
		if len(source.Phones) > 0 {
			v = source.Phones[0]
		}
		return v, true
	case config.SourceEmployeeType:
		v = source.EmployeeType
	case config.SourceCompany:
		v = source.Company
	default:
		return "", false
	}
	if v == "" {
		return "", false
	}
	return v, true
}

func setTargetField(target *models.TargetRecord, field, value string) {
	switch field {
	case config.TargetTitle:
		target.Title = value
	case config.TargetPrincipalName:
		target.PrincipalName = value
	case config.TargetGivenName:
		target.GivenName = value
	case config.TargetSurname:
		target.Surname = value
	case config.TargetEmail:
		target.Email = value
	case config.TargetJobTitle:
		target.JobTitle = value
	case config.TargetDepartment:
		target.Department = value
	case config.TargetOffice:
		target.Office = value
	case config.TargetPhone:
		target.Phone = value
	case config.TargetEmployeeType:
		target.EmployeeType = value
	case config.TargetCompany:
		target.Company = value
	}
}
