package tracking

// Config holds configuration for the species tracking diff.
type Config struct {
	// Enabled registers the HTTP routes.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// IdentifierField keys tracked species in both snapshots.
	IdentifierField string `mapstructure:"identifier_field" default:"ELSUBID"`
	// TrackedFields are compared in this order.
	TrackedFields []string `mapstructure:"tracked_fields" default:"ELCODE,SNAME,SCOMNAME,GRANK,SRANK,EO_Track,USESA,SPROT,PBSSTATUS,SGCN,SENSITV_SP,ER_RULE"`
	// OldTable holds the previous tracking export.
	OldTable string `mapstructure:"old_table" default:"et_old"`
	// NewTable holds the current tracking export.
	NewTable string `mapstructure:"new_table" default:"et_new"`
	// ReportPrefix is where xlsx reports are archived.
	ReportPrefix string `mapstructure:"report_prefix" default:"reports"`
}
