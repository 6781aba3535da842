package model

import "time"

// Evidence is a named document category owned by one factory. Its content
// lives entirely in its versions; the record itself never changes after
// creation.
type Evidence struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	DocType       string    `json:"docType"`
	FactoryUserID string    `json:"factoryUserId"`
	CreatedAt     time.Time `json:"createdAt"`
}

// EvidenceVersion is one immutable, numbered revision of an Evidence.
// Version numbers start at 1 and increase by one per evidence with no gaps.
type EvidenceVersion struct {
	ID            string     `json:"id"`
	EvidenceID    string     `json:"evidenceId"`
	VersionNumber int        `json:"versionNumber"`
	Notes         string     `json:"notes,omitempty"`
	ExpiryDate    *time.Time `json:"expiryDate,omitempty"`
	StoragePath   string     `json:"storagePath"`
	CreatedBy     string     `json:"createdBy"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// AccessGrant makes one EvidenceVersion visible to one non-owning user.
// The (VersionID, UserID) pair is unique; granting twice is a no-op.
type AccessGrant struct {
	VersionID string    `json:"versionId"`
	UserID    string    `json:"userId"`
	GrantedBy string    `json:"grantedBy"`
	GrantedAt time.Time `json:"grantedAt"`
}
