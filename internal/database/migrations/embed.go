// Package migrations holds the versioned schema, named V<version>__<name>.sql.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
