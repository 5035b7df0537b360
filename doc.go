// Package wiki implements the attributions wiki backend: users, factors,
// beliefs, and the attributions that tie them together.
//
// Accounts:
//   - Users sign up with an email and a bcrypt hashed password. Login issues a
//     short lived HS256 bearer token whose subject is the user's email.
//   - CurrentUser resolves a bearer token to an active user. The checks run in a
//     fixed order (signature and expiry, subject, lookup, disabled flag) so each
//     failure maps to exactly one HTTP status.
//
// Resources:
//   - Factor, Belief, and Attribution share one generic ResourceService. Store
//     failures are translated into the error taxonomy in errors.go before they
//     reach the HTTP layer, where HTTPStatus picks the response code.
//
// Persistence:
//   - Stores are bun repositories over either SQLite (default) or Postgres. The
//     dialect is chosen from the DSN and the schema is applied with goose from
//     the embedded migrations in data/sql/migrations.
package wiki
