package billingengine

import "embed"

//go:embed migrations/*.sql
var MigrationsFS embed.FS
