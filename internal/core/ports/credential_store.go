package ports

import "github.com/trekkers/tour-client/internal/core/domain"

// CredentialStore owns the one piece of durable client state: the current
// bearer token. Set and Clear return only after the write is durable, and
// listeners run after that write.
type CredentialStore interface {
	Get() domain.Credential
	Set(token domain.Credential) error
	Clear() error
	// CompareAndClear clears the store only while it still holds expected.
	CompareAndClear(expected domain.Credential) (bool, error)
	OnChange(fn func(domain.Credential)) (unsubscribe func())
}
