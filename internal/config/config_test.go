package config

import (
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default bolt", func(c *Config) {}, false},
		{"firestore missing key", func(c *Config) {
			c.Store.Backend = BackendFirestore
			c.Store.Firestore.ProjectID = "demo"
		}, true},
		{"firestore complete", func(c *Config) {
			c.Store.Backend = BackendFirestore
			c.Store.Firestore = FirestoreConfig{ProjectID: "demo", APIKey: "k"}
		}, false},
		{"postgres without dsn", func(c *Config) { c.Store.Backend = BackendPostgres }, true},
		{"redis default addr", func(c *Config) { c.Store.Backend = BackendRedis }, false},
		{"unknown", func(c *Config) { c.Store.Backend = "mongo" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSession(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Session() != nil {
		t.Error("Session() on fresh config should be nil")
	}

	cfg.Auth = AuthConfig{UserID: "u1", Email: "me@example.com", RefreshToken: "r"}
	s := cfg.Session()
	if s == nil || s.UserID != "u1" || s.RefreshToken != "r" {
		t.Errorf("Session() = %+v", s)
	}
}

func TestUsesLocalAuth(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.UsesLocalAuth() {
		t.Error("bolt backend should use local auth")
	}
	cfg.Store.Backend = BackendFirestore
	if cfg.UsesLocalAuth() {
		t.Error("firestore backend should use firebase auth")
	}
}
