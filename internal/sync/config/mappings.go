package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"dirsync/internal/sync/models"
)

// Canonical source attribute names as the directory exposes them.
const (
	SourceDisplayName   = "displayName"
	SourcePrincipalName = "userPrincipalName"
	SourceGivenName     = "givenName"
	SourceSurname       = "surname"
	SourceMail          = "mail"
	SourceJobTitle      = "jobTitle"
	SourceDepartment    = "department"
	SourceOffice        = "officeLocation"
	SourcePhones        = "businessPhones"
	SourceEmployeeType  = "employeeType"
	SourceCompany       = "companyName"
)

// Target field names the mapper may write. Status, ExternalID, and
// LastSyncedAt are owned by the orchestrator and deliberately absent.
const (
	TargetTitle         = "Title"
	TargetPrincipalName = "PrincipalName"
	TargetGivenName     = "GivenName"
	TargetSurname       = "Surname"
	TargetEmail         = "Email"
	TargetJobTitle      = "JobTitle"
	TargetDepartment    = "Department"
	TargetOffice        = "Office"
	TargetPhone         = "Phone"
	TargetEmployeeType  = "EmployeeType"
	TargetCompany       = "Company"
)

var sourceFields = map[string]struct{}{
	SourceDisplayName:   {},
	SourcePrincipalName: {},
	SourceGivenName:     {},
	SourceSurname:       {},
	SourceMail:          {},
	SourceJobTitle:      {},
	SourceDepartment:    {},
	SourceOffice:        {},
	SourcePhones:        {},
	SourceEmployeeType:  {},
	SourceCompany:       {},
}

var targetFields = map[string]struct{}{
	TargetTitle:         {},
	TargetPrincipalName: {},
	TargetGivenName:     {},
	TargetSurname:       {},
	TargetEmail:         {},
	TargetJobTitle:      {},
	TargetDepartment:    {},
	TargetOffice:        {},
	TargetPhone:         {},
	TargetEmployeeType:  {},
	TargetCompany:       {},
}

// DefaultMappings covers every mappable field, enabled.
func DefaultMappings() []models.FieldMapping {
	return []models.FieldMapping{
		{SourceField: SourceDisplayName, TargetField: TargetTitle, Enabled: true},
		{SourceField: SourcePrincipalName, TargetField: TargetPrincipalName, Enabled: true},
		{SourceField: SourceGivenName, TargetField: TargetGivenName, Enabled: true},
		{SourceField: SourceSurname, TargetField: TargetSurname, Enabled: true},
		{SourceField: SourceMail, TargetField: TargetEmail, Enabled: true},
		{SourceField: SourceJobTitle, TargetField: TargetJobTitle, Enabled: true},
		{SourceField: SourceDepartment, TargetField: TargetDepartment, Enabled: true},
		{SourceField: SourceOffice, TargetField: TargetOffice, Enabled: true},
		{SourceField: SourcePhones, TargetField: TargetPhone, Enabled: true},
		{SourceField: SourceEmployeeType, TargetField: TargetEmployeeType, Enabled: true},
		{SourceField: SourceCompany, TargetField: TargetCompany, Enabled: true},
	}
}

// ValidateMappings rejects mappings that name unknown source or target
// fields. Validation happens at configuration load so the mapper can assume
// every mapping it sees is well-formed.
func ValidateMappings(mappings []models.FieldMapping) error {
	for i, m := range mappings {
		if _, ok := sourceFields[m.SourceField]; !ok {
			return fmt.Errorf("mapping %d: unknown source field %q", i, m.SourceField)
		}
		if _, ok := targetFields[m.TargetField]; !ok {
			return fmt.Errorf("mapping %d: unknown target field %q", i, m.TargetField)
		}
	}
	return nil
}

type mappingFile struct {
	Mappings []models.FieldMapping `yaml:"mappings"`
}

// LoadMappings reads an ordered mapping list from a YAML file and validates
// it against the field allow-lists. An empty path yields the defaults.
func LoadMappings(path string) ([]models.FieldMapping, error) {
	if path == "" {
		return DefaultMappings(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping file: %w", err)
	}
	var file mappingFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse mapping file: %w", err)
	}
	if len(file.Mappings) == 0 {
		return nil, fmt.Errorf("mapping file %s declares no mappings", path)
	}
	if err := ValidateMappings(file.Mappings); err != nil {
		return nil, fmt.Errorf("mapping file %s: %w", path, err)
	}
	return file.Mappings, nil
}
