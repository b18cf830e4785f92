// Package credential owns bearer credentials: one opaque key per principal,
// stamped with the time it was last issued.
//
// Expiry is lazy. Nothing sweeps old rows; Verify deletes a credential the
// moment it notices the credential has outlived the configured lifetime.
package credential
