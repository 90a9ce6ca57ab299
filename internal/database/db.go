// Package database opens connections to the supported datastores.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

// DSN renders the MySQL connection string.  ClientFoundRows is required by
// the lesson store: an UPDATE that leaves a row unchanged must still count
// as matched.
func DSN(user, pass, host, port, name string) string {
	c := mysql.NewConfig()
	c.User = user
	c.Passwd = pass
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(host, port)
	c.DBName = name
	c.Collation = "utf8mb4_unicode_ci"
	c.ParseTime = true
	c.Loc = time.UTC
	c.ClientFoundRows = true
	return c.FormatDSN()
}

// Open builds a pooled *sql.DB and pings it.  When only the ping fails the
// pool is still returned alongside the error, so the server can start and
// recover once MySQL comes up.
func Open(ctx context.Context, user, pass, host, port, name string) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(user, pass, host, port, name))
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return db, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}
