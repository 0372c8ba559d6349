// Package accounts stores member credentials in SQL and checks them during
// the password step of login.
//
// [Store] implements both the engine's credential verifier and its account
// registrar over github.com/jmoiron/sqlx. Two drivers are supported:
// "sqlite" (modernc.org/sqlite, no cgo) and "postgres" (github.com/lib/pq).
// Passwords are stored as argon2id PHC strings from the password package.
//
// [StaticVerifier] checks a fixed set of credentials, typically the admin
// account configured through the environment.
package accounts
