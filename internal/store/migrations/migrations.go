// Package migrations embeds the SQL schema files applied by the migrate
// command and the integration test harness.
package migrations

import "embed"

// Files lists the migration files in apply order.
var Files = []string{
	"001_create_tasks.sql",
	"002_create_triggers.sql",
	"003_create_trigger_executions.sql",
}

//go:embed *.sql
var FS embed.FS
