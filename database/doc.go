// Package database provides connection management, migrations, SQL seeding,
// configuration types, logging, health checks and error classification
// built on top of Bun.
package database
