// Package models defines the vault data model: credentials, the plaintext
// vault payload, public vault metadata, the encrypted persisted record,
// application settings and the backup envelope.
package models

import "time"

// Credential is one stored login record. It belongs to exactly one vault's
// in-memory credential sequence; insertion order is preserved.
// ID and CreatedAt are immutable after creation, LastModified is bumped on
// every edit.
type Credential struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Username     string    `json:"username"`
	Password     string    `json:"password"`
	URL          string    `json:"url,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Category     string    `json:"category,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified"`
}

// CredentialInput carries the caller-supplied fields for a new credential.
// The service assigns ID, CreatedAt and LastModified.
type CredentialInput struct {
	Title    string
	Username string
	Password string
	URL      string
	Notes    string
	Category string
	Tags     []string
}

// CredentialPatch carries optional field overrides for an existing
// credential. Nil fields are left unchanged.
type CredentialPatch struct {
	Title    *string
	Username *string
	Password *string
	URL      *string
	Notes    *string
	Category *string
	Tags     *[]string
}
