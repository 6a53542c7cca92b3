// Package auth implements authentication for the store API.
//
// Two modes are supported, selected by AUTH_MODE:
//
//   - "none": every request runs as a default user. Meant for local
//     development and demos only.
//   - "local": users live in the database with bcrypt password hashes.
//     Browsers authenticate with server-side sessions (SQLite-backed),
//     API clients with Bearer tokens. Only SHA-256 hashes of tokens are
//     stored.
//
// Login attempts are rate limited per IP and username, and accounts
// lock after repeated failures.
package auth
