// Copyright 2025 Certen Protocol
//
// Repositories - Convenience wrapper for all database repositories

package database

// Repositories holds all repository instances
type Repositories struct {
	Notarizations *NotarizationRepository
	Evidence      *EvidenceRepository
	Finalizations *FinalizationRepository
}

// NewRepositories creates all repositories with the given client
func NewRepositories(client *Client) *Repositories {
	return &Repositories{
		Notarizations: NewNotarizationRepository(client),
		Evidence:      NewEvidenceRepository(client),
		Finalizations: NewFinalizationRepository(client),
	}
}
