// Package database handles database connections, schema inspection and
// table-backed snapshot sources.
//
// # Connect
//
// Connect opens MySQL, PostgreSQL or SQLite through GORM depending on
// Config.Driver and pings the connection before returning it.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table for every supported dialect.
// MissingColumns is used by the schema check and ColumnSet by writers that
// must only touch columns the table actually has.
//
// # Table Sources
//
// TableSource implements reconcile.Source by selecting the identifier and
// tracked columns of a table.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	snapshot, err := database.NewTableSource(db, "comm_sci_vet").Snapshot(ctx, "id", fields)
package database
