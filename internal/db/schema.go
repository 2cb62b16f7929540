package db

import _ "embed"

// Schema is the DDL for the audit tables. Every statement is idempotent so it
// can run at each startup.
//
//go:embed sql/schema.sql
var Schema string
