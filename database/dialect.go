/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

const (
	sqliteMemory   = ":memory:"
	defaultTimeout = 30 * time.Second
)

// driverDialect knows how to reach one database type.
type driverDialect struct {
	driver string
	dsn    func(c *ConnectionConfig) string
	new    func() schema.Dialect
	// singleConn pins the pool to one connection.
	singleConn bool
}

var dialects = map[string]driverDialect{
	TypeMySQL: {
		driver: "mysql",
		dsn:    mysqlDSN,
		new:    func() schema.Dialect { return mysqldialect.New() },
	},
	TypePostgres: {
		driver: "postgres",
		dsn:    postgresDSN,
		new:    func() schema.Dialect { return pgdialect.New() },
	},
	TypeSQLite: {
		driver:     sqliteshim.ShimName,
		dsn:        func(c *ConnectionConfig) string { return sqliteDSN(c.DBName) },
		new:        func() schema.Dialect { return sqlitedialect.New() },
		singleConn: true,
	},
}

// dialectAliases maps alternative spellings onto a dialects key.
var dialectAliases = map[string]string{
	"postgresql": TypePostgres,
	"sqlite3":    TypeSQLite,
}

func lookupDialect(dbType string) (driverDialect, bool) {
	key := strings.ToLower(dbType)
	if alias, ok := dialectAliases[key]; ok {
		key = alias
	}
	d, ok := dialects[key]
	return d, ok
}

// open creates the pool for c without contacting the server.
func open(c *ConnectionConfig) (*sql.DB, *bun.DB, error) {
	d, ok := lookupDialect(c.Type)
	if !ok {
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.Type)
	}
	sqlDB, err := sql.Open(d.driver, d.dsn(c))
	if err != nil {
		return nil, nil, err
	}
	if d.singleConn {
		// An in-memory database lives only as long as its connection.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	} else {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(c.ConnMaxLifetime)
		sqlDB.SetConnMaxIdleTime(c.ConnMaxIdleTime)
	}
	return sqlDB, bun.NewDB(sqlDB, d.new()), nil
}

func mysqlDSN(c *ConnectionConfig) string {
	params := url.Values{}
	params.Set("charset", valueOr(c.Charset, "utf8mb4"))
	params.Set("parseTime", "true")
	params.Set("loc", "Local")
	// RowsAffected reports matched rows, so an update that changes nothing
	// is not mistaken for a missing record.
	params.Set("clientFoundRows", "true")
	params.Set("timeout", timeoutOr(c.ConnectTimeout).String())
	if c.ReadTimeout > 0 {
		params.Set("readTimeout", c.ReadTimeout.String())
	}
	if c.WriteTimeout > 0 {
		params.Set("writeTimeout", c.WriteTimeout.String())
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.Username, c.Password, c.Host, c.Port, c.DBName, params.Encode())
}

func postgresDSN(c *ConnectionConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.DBName,
	}
	q := url.Values{}
	q.Set("sslmode", valueOr(c.SSLMode, "disable"))
	q.Set("connect_timeout", fmt.Sprint(int(timeoutOr(c.ConnectTimeout).Seconds())))
	u.RawQuery = q.Encode()
	return u.String()
}

// sqliteDSN maps DBName onto a file name, appending ".db" when DBName has
// no extension.
func sqliteDSN(name string) string {
	switch {
	case name == "" || name == sqliteMemory:
		return "file::memory:?cache=shared"
	case strings.HasPrefix(name, "file:"), strings.Contains(name, "."):
		return name
	default:
		return name + ".db"
	}
}

func timeoutOr(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultTimeout
	}
	return d
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
