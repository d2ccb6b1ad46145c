package service

import (
	"strings"

	"dirsync/internal/sync/models"
)

// filterRecords applies the configured pre-classification filters for full
// and group runs. Filters AND-combine; an empty list means no restriction.
// Records rejected here never appear in the run summary.
func (s *Service) filterRecords(in []models.SourceRecord) []models.SourceRecord {
	out := make([]models.SourceRecord, 0, len(in))
	for _, rec := range in {
		if s.admit(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func (s *Service) admit(rec models.SourceRecord) bool {
	if !s.cfg.IncludeDisabled && !rec.AccountEnabled {
		return false
	}
	if len(s.cfg.UserTypes) > 0 && !containsUserType(s.cfg.UserTypes, rec.UserType) {
		return false
	}
	// Departments and Exclusions are normalized to lower case at config load.
	if len(s.cfg.Departments) > 0 && !containsString(s.cfg.Departments, strings.ToLower(rec.Department)) {
		return false
	}
	if excluded(s.cfg.Exclusions, rec) {
		return false
	}
	return true
}

// excluded matches the exclusion list case-insensitively against principal
// name or email.
func excluded(exclusions []string, rec models.SourceRecord) bool {
	if len(exclusions) == 0 {
		return false
	}
	principal := strings.ToLower(rec.PrincipalName)
	email := strings.ToLower(rec.Email)
	for _, ex := range exclusions {
		if ex == principal || (email != "" && ex == email) {
			return true
		}
	}
	return false
}

func containsUserType(list []models.UserType, v models.UserType) bool {
	for _, t := range list {
		if t == v {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
