package repository

import "github.com/user/relay-service/internal/entity"

// CredentialsProvider supplies the account parameters used by login agents.
type CredentialsProvider interface {
	// Credentials returns the account for a channel, or false if none is configured.
	Credentials(channel entity.Channel) (entity.Credentials, bool)
}
