package models

// Principal is the identity being authenticated. It is owned by the
// external user storage; this core reads it and never mutates it.
//
// CredentialHash carries a versioned algorithm tag before the hash
// material, e.g. "bcrypt$2a$10$..." or "argon2id$<salt>$<hash>".
type Principal struct {
	ID             string
	CredentialHash string
	Disabled       bool
}
