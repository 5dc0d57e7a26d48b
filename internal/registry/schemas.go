package registry

import "embed"

// sqlSchemas is the embedded set of golang-migrate migration files backing
// the actor-process registry, mirroring the teacher's embedded-schema
// convention.
//
//go:embed migrations/*.sql
var sqlSchemas embed.FS
