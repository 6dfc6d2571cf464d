// Package db provides the embedded database schema.
package db

import _ "embed"

// Schema contains the DDL statements for the coupons table.
//
//go:embed migrations/001_coupons.sql
var Schema string
