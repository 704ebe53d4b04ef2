// Package migrations содержит SQL-схему, которая встраивается в бинарник.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
