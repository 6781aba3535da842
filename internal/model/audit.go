package model

import "time"

// AuditAction is the raw action tag stored with an audit entry.
type AuditAction string

const (
	ActionLogin    AuditAction = "login"
	ActionLogout   AuditAction = "logout"
	ActionCreate   AuditAction = "create"
	ActionUpdate   AuditAction = "update"
	ActionDelete   AuditAction = "delete"
	ActionDownload AuditAction = "download"
	ActionUpload   AuditAction = "upload"
)

// AuditObjectType tags the kind of object an entry refers to. Objects are
// referenced by id+type only, so entries survive deletion of what they
// describe.
type AuditObjectType string

const (
	ObjectUser        AuditObjectType = "user"
	ObjectEvidence    AuditObjectType = "evidence"
	ObjectRequest     AuditObjectType = "request"
	ObjectRequestItem AuditObjectType = "request_item"
	ObjectVersion     AuditObjectType = "version"
)

// AuditLogEntry is one immutable record of a state-changing action. Entries
// are append-only; nothing in the system updates or deletes them.
type AuditLogEntry struct {
	ID             string          `json:"id"`
	Timestamp      time.Time       `json:"timestamp"`
	ActorUserID    string          `json:"actorUserId"`
	ActorRole      Role            `json:"actorRole"`
	ActorFactoryID string          `json:"actorFactoryId,omitempty"`
	Action         AuditAction     `json:"action"`
	ObjectType     AuditObjectType `json:"objectType"`
	ObjectID       string          `json:"objectId"`
	Metadata       map[string]any  `json:"metadata"`
}

// NormalizedEntry is the display-stable projection of an AuditLogEntry.
// Projection is pure: the same stored entry always yields the same view.
type NormalizedEntry struct {
	Timestamp   time.Time      `json:"timestamp"`
	ActorUserID string         `json:"actorUserId"`
	ActorRole   Role           `json:"actorRole"`
	Action      string         `json:"action"`
	ObjectType  string         `json:"objectType"`
	ObjectID    string         `json:"objectId"`
	Metadata    map[string]any `json:"metadata"`
}
