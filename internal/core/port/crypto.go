package port

// PasswordHasher hashes and verifies secrets using a slow, salted algorithm.
// The same contract covers login passwords and refresh tokens: refresh
// tokens are never persisted in cleartext.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret string, encoded string) (bool, error)
}
