package partnerhub

import "embed"

// EmailFS holds the email templates, one directory per template with an
// html.tmpl and a plaintext.tmpl.
//
//go:embed templates/emails
var EmailFS embed.FS

// MigrationsFS holds the goose SQL migrations for the Postgres schema.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
