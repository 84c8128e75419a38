// connections.go manages saved database connections.
//
// Connections are stored in ~/.nbsql/connections.json so users can
// reconnect without retyping credentials. A profile can also name a macro
// script that is loaded into the session's registry right after connecting.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Connection is a named, saveable database connection profile.
type Connection struct {
	Name      string   `json:"name"`
	Host      string   `json:"host"`
	Port      string   `json:"port"`
	User      string   `json:"user"`
	Password  string   `json:"password"`
	Database  string   `json:"database"`
	SSLMode   string   `json:"ssl_mode"`
	MacroFile string   `json:"macro_file,omitempty"` // macro script loaded on connect
	SSH       SSHEntry `json:"ssh,omitempty"`
}

// SSHEntry holds SSH tunnel settings for a saved connection.
type SSHEntry struct {
	Enabled       bool   `json:"enabled,omitempty"`
	Host          string `json:"host,omitempty"`
	Port          string `json:"port,omitempty"`
	User          string `json:"user,omitempty"`
	Password      string `json:"password,omitempty"`
	KeyPath       string `json:"key_path,omitempty"`
	KeyPassphrase string `json:"key_passphrase,omitempty"`
}

// ToConfig converts a saved profile to a session Config.
func (c Connection) ToConfig() Config {
	port, _ := strconv.Atoi(c.Port)
	sshPort, _ := strconv.Atoi(c.SSH.Port)
	return Config{
		Host:     c.Host,
		Port:     port,
		User:     c.User,
		Password: c.Password,
		Database: c.Database,
		SSLMode:  c.SSLMode,
		SSH: SSHConfig{
			Enabled:       c.SSH.Enabled,
			Host:          c.SSH.Host,
			Port:          sshPort,
			User:          c.SSH.User,
			Password:      c.SSH.Password,
			KeyPath:       c.SSH.KeyPath,
			KeyPassphrase: c.SSH.KeyPassphrase,
		},
	}
}

// ConnectionStore manages saved connections on disk.
type ConnectionStore struct {
	path        string
	Connections []Connection `json:"connections"`
}

// NewConnectionStore creates a store, loading from ~/.nbsql/connections.json.
func NewConnectionStore() (*ConnectionStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(homeDir, ".nbsql")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	store := &ConnectionStore{
		path: filepath.Join(dir, "connections.json"),
	}

	data, err := os.ReadFile(store.path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, store); err != nil {
		return nil, fmt.Errorf("parse connections: %w", err)
	}

	return store, nil
}

// Save writes all connections to disk.
func (s *ConnectionStore) Save() error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// Add adds or updates a connection by name.
func (s *ConnectionStore) Add(conn Connection) {
	for i, c := range s.Connections {
		if c.Name == conn.Name {
			s.Connections[i] = conn
			return
		}
	}
	s.Connections = append(s.Connections, conn)
}

// Delete removes a connection by name.
func (s *ConnectionStore) Delete(name string) {
	for i, c := range s.Connections {
		if c.Name == name {
			s.Connections = append(s.Connections[:i], s.Connections[i+1:]...)
			return
		}
	}
}

// Get retrieves a connection by name.
func (s *ConnectionStore) Get(name string) (Connection, bool) {
	for _, c := range s.Connections {
		if c.Name == name {
			return c, true
		}
	}
	return Connection{}, false
}

// DefaultConnection returns a connection with sensible defaults.
func DefaultConnection() Connection {
	return Connection{
		Host:     "localhost",
		Port:     "5432",
		User:     "postgres",
		Database: "postgres",
		SSLMode:  "disable",
		SSH: SSHEntry{
			Port: "22",
		},
	}
}
