package models

import "time"

// LifecycleStatus is the lifecycle state of an employee record. Ordinary sync
// only ever moves a record Active -> Inactive; re-activation is a separate,
// explicit operation.
type LifecycleStatus string

const (
	StatusActive   LifecycleStatus = "Active"
	StatusInactive LifecycleStatus = "Inactive"
)

// UserType classifies a directory identity as an organization member or an
// invited guest.
type UserType string

const (
	UserTypeMember UserType = "member"
	UserTypeGuest  UserType = "guest"
)

// SourceRecord is an immutable snapshot of one directory identity at query
// time. The engine never mutates it.
type SourceRecord struct {
	ExternalID     string   `json:"externalId"`
	PrincipalName  string   `json:"principalName"`
	DisplayName    string   `json:"displayName"`
	GivenName      string   `json:"givenName"`
	Surname        string   `json:"surname"`
	Email          string   `json:"email"`
	JobTitle       string   `json:"jobTitle"`
	Department     string   `json:"department"`
	Office         string   `json:"office"`
	Phones         []string `json:"phones"`
	EmployeeType   string   `json:"employeeType"`
	AccountEnabled bool     `json:"accountEnabled"`
	UserType       UserType `json:"userType"`
	Company        string   `json:"company"`
}

// Identity returns the string used to identify this record in sync results:
// email when present, principal name otherwise.
func (r SourceRecord) Identity() string {
	if r.Email != "" {
		return r.Email
	}
	return r.PrincipalName
}

// TargetRecord is the internal employee record persisted in the record store.
// ID is assigned by the store on creation. ExternalID is empty for records
// that were never linked to a directory identity.
type TargetRecord struct {
	ID            int64           `json:"id"`
	Title         string          `json:"title"`
	Email         string          `json:"email"`
	ExternalID    string          `json:"externalId,omitempty"`
	Status        LifecycleStatus `json:"status"`
	PrincipalName string          `json:"principalName"`
	GivenName     string          `json:"givenName"`
	Surname       string          `json:"surname"`
	JobTitle      string          `json:"jobTitle"`
	Department    string          `json:"department"`
	Office        string          `json:"office"`
	Phone         string          `json:"phone"`
	EmployeeType  string          `json:"employeeType"`
	Company       string          `json:"company"`
	LastSyncedAt  time.Time       `json:"lastSyncedAt"`
}

// FieldMapping declares that one SourceRecord attribute propagates into one
// TargetRecord field. Mappings are ordered; disabled mappings are retained in
// configuration but skipped by the mapper.
type FieldMapping struct {
	SourceField string `json:"sourceField" yaml:"sourceField"`
	TargetField string `json:"targetField" yaml:"targetField"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
}

// DeltaEntry is one change-feed item: either an upsert candidate or a
// tombstone marking the identity as removed from the directory.
type DeltaEntry struct {
	Record  SourceRecord
	Removed bool
}

// DeltaPage is one page of the directory change feed. NextPage is non-empty
// while further pages remain in the current window; DeltaToken is set on the
// final page and resumes the feed on the next run.
type DeltaPage struct {
	Entries    []DeltaEntry
	NextPage   string
	DeltaToken string
}
