// Package config defines the application configuration structures.
//
// Separated from cmd so that other packages (db, ssh, tui) can depend on
// config without importing Cobra.
package config

import "strconv"

// Config holds the settings for one database session.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	SSH SSHConfig
}

// SSHConfig holds SSH tunnel settings.
type SSHConfig struct {
	Enabled       bool
	Host          string
	Port          int
	User          string
	Password      string
	KeyPath       string
	KeyPassphrase string
}

// DSN builds a pgx-compatible connection string. When an SSH tunnel is
// active, the caller overrides Host/Port with the local tunnel endpoint
// before calling this.
func (c Config) DSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Database +
		" sslmode=" + c.SSLMode
}
