// Package service provides technical services for authentication operations:
// JWT signing and verification, signing-secret loading, and password hashing.
package service

// PasswordService defines operations for password hashing and validation.
// Implementations must use industry-standard hashing algorithms (e.g.,
// bcrypt, argon2).
type PasswordService interface {
	// HashPassword hashes a plain text password using a secure hashing
	// algorithm.
	HashPassword(plainPassword string) (hashedPassword string, error error)

	// CompareSecret compares a plain text password against a stored hash.
	// Returns true if the password matches the hash, false otherwise.
	// This is constant-time to prevent timing attacks.
	CompareSecret(plainPassword string, hashedPassword string) bool
}
