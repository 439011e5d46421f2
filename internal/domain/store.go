package domain

import "context"

// Keys of the local key-value store. Values are JSON documents.
const (
	KeyUsers             = "users"
	KeyLoginAttempts     = "login_attempts"
	KeySession           = "session"
	KeyGenerationRecords = "generation_records"
	KeyAccessGrantedAt   = "access_granted_at"
	KeyAccessAttempts    = "access_attempts"
	KeyAdminPassword     = "demo_admin_password"
	KeyUserPassword      = "demo_user_password"
)

// KVStore is the port for the local key-value store every client-side
// component persists through. Get returns (nil, nil) for a missing key.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
