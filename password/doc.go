// Package password hashes member passwords with argon2id.
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Registration stores such a hash inside the two-factor challenge so that the
// plaintext never outlives the request. [Argon2.NeedsUpgrade] lets the
// account store re-hash after a successful login when parameters change.
package password
