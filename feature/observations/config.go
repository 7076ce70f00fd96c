package observations

import "time"

// Config holds configuration for observation reconciliation.
type Config struct {
	// Enabled registers the HTTP routes.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Table is the vetting feature table.
	Table string `mapstructure:"table" default:"comm_sci_vet"`
	// IdentifierField keys observations in the export and the table.
	IdentifierField string `mapstructure:"identifier_field" default:"id"`
	// TrackedFields are compared in this order.
	TrackedFields []string `mapstructure:"tracked_fields" default:"observed_on,quality_grade,scientific_name,common_name,taxon_id,place_guess,feature_latitude,feature_longitude,positional_accuracy,coordinates_obscured,image_url,description"`
	// ExportPath is a local export used when no file or object is given.
	ExportPath string `mapstructure:"export_path" default:""`
	// ExportPrefix is where exports are looked up in the bucket.
	ExportPrefix string `mapstructure:"export_prefix" default:"exports/observations"`
	// ImportDateLayout formats the import_date column.
	ImportDateLayout string `mapstructure:"import_date_layout" default:"01/02/06"`
	// ReportPrefix is where run reports are archived.
	ReportPrefix string `mapstructure:"report_prefix" default:"reports"`
	// ReportRetention is how many archived reports are kept. Zero keeps all.
	ReportRetention int `mapstructure:"report_retention" default:"30"`
	// CacheTTLSeconds caches snapshots for targeted lookups. Zero disables it.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"300"`
	// BatchSize bounds rows per insert statement.
	BatchSize int `mapstructure:"batch_size" default:"500"`
}

// CacheTTL returns the snapshot cache lifetime.
func (c Config) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// RequiredColumns lists the columns the feature table must have.
func (c Config) RequiredColumns() []string {
	cols := []string{c.IdentifierField}
	for _, f := range c.TrackedFields {
		if f != c.IdentifierField {
			cols = append(cols, f)
		}
	}
	return cols
}
