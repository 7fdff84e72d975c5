package config

import (
	"testing"
	"time"
)

// configEnvVars lists every variable Load reads.
var configEnvVars = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
	"DB_POOL_MIN", "DB_POOL_MAX", "DB_AUTO_MIGRATE",
	"CORS_ORIGINS",
	"INTAKE_DEFAULT_STATE", "INTAKE_DEFAULT_ZIP", "TAXONOMY_TTL",
}

// clearConfigEnv blanks every config variable for the duration of the test.
// Viper ignores empty environment values, so defaults apply.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		t.Setenv(key, "")
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Env: "development"},
		Database: DatabaseConfig{
			Host: "localhost", Port: "5432", Name: "casebridge",
			User: "postgres", Password: "postgres", PoolMin: 2, PoolMax: 10,
		},
		CORS:   CORSConfig{Origins: []string{"http://localhost:3000"}},
		Intake: IntakeConfig{DefaultState: "CA", DefaultZip: "00000"},
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DB_PASSWORD", "testpass")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Env != "development" {
		t.Errorf("Expected env development, got %s", cfg.Server.Env)
	}
	if cfg.Database.Name != "casebridge" {
		t.Errorf("Expected db name casebridge, got %s", cfg.Database.Name)
	}
	if cfg.Database.PoolMin != 2 || cfg.Database.PoolMax != 10 {
		t.Errorf("Expected pool 2..10, got %d..%d", cfg.Database.PoolMin, cfg.Database.PoolMax)
	}
	if !cfg.Database.AutoMigrate {
		t.Error("Expected auto migrate to default to true")
	}
	if len(cfg.CORS.Origins) != 2 {
		t.Errorf("Expected 2 CORS origins, got %d", len(cfg.CORS.Origins))
	}
	if cfg.Intake.DefaultState != "CA" {
		t.Errorf("Expected default state CA, got %s", cfg.Intake.DefaultState)
	}
	if cfg.Intake.DefaultZip != "00000" {
		t.Errorf("Expected default zip 00000, got %s", cfg.Intake.DefaultZip)
	}
	if cfg.Intake.TaxonomyTTL != 0 {
		t.Errorf("Expected taxonomy TTL 0, got %s", cfg.Intake.TaxonomyTTL)
	}
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_NAME", "testdb")
	t.Setenv("DB_USER", "testuser")
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("DB_POOL_MIN", "5")
	t.Setenv("DB_POOL_MAX", "20")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("CORS_ORIGINS", "http://example.com,https://app.example.com")
	t.Setenv("INTAKE_DEFAULT_STATE", " ny ")
	t.Setenv("INTAKE_DEFAULT_ZIP", "10001")
	t.Setenv("TAXONOMY_TTL", "15m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.LogLevel != "warn" {
		t.Errorf("Expected log level warn, got %s", cfg.Server.LogLevel)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != "5433" {
		t.Errorf("Expected localhost:5433, got %s:%s", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.PoolMin != 5 || cfg.Database.PoolMax != 20 {
		t.Errorf("Expected pool 5..20, got %d..%d", cfg.Database.PoolMin, cfg.Database.PoolMax)
	}
	if cfg.Database.AutoMigrate {
		t.Error("Expected auto migrate to be disabled")
	}
	if cfg.CORS.Origins[0] != "http://example.com" {
		t.Errorf("Expected first origin http://example.com, got %s", cfg.CORS.Origins[0])
	}
	if cfg.Intake.DefaultState != "NY" {
		t.Errorf("Expected normalized state NY, got %q", cfg.Intake.DefaultState)
	}
	if cfg.Intake.DefaultZip != "10001" {
		t.Errorf("Expected zip 10001, got %s", cfg.Intake.DefaultZip)
	}
	if cfg.Intake.TaxonomyTTL != 15*time.Minute {
		t.Errorf("Expected TTL 15m, got %s", cfg.Intake.TaxonomyTTL)
	}
}

func TestLoad_MissingPassword(t *testing.T) {
	clearConfigEnv(t)

	_, err := Load()
	if err == nil {
		t.Error("Expected error when DB_PASSWORD is missing")
	}
}

func TestLoad_InvalidDefaultState(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("INTAKE_DEFAULT_STATE", "California")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for a non 2-letter default state")
	}
}

func TestValidate_InvalidPoolSizes(t *testing.T) {
	tests := []struct {
		name    string
		poolMin int
		poolMax int
		wantErr bool
	}{
		{name: "negative pool min", poolMin: -1, poolMax: 10, wantErr: true},
		{name: "zero pool max", poolMin: 0, poolMax: 0, wantErr: true},
		{name: "pool min greater than max", poolMin: 15, poolMax: 10, wantErr: true},
		{name: "valid pool sizes", poolMin: 2, poolMax: 10, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Database.PoolMin = tt.poolMin
			cfg.Database.PoolMax = tt.poolMax

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }},
		{name: "missing db host", mutate: func(c *Config) { c.Database.Host = "" }},
		{name: "missing db password", mutate: func(c *Config) { c.Database.Password = "" }},
		{name: "missing CORS origins", mutate: func(c *Config) { c.CORS.Origins = []string{} }},
		{name: "missing default zip", mutate: func(c *Config) { c.Intake.DefaultZip = "" }},
		{name: "one letter state", mutate: func(c *Config) { c.Intake.DefaultState = "C" }},
		{name: "negative taxonomy ttl", mutate: func(c *Config) { c.Intake.TaxonomyTTL = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error but got none")
			}
		})
	}
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{name: "single origin", input: "http://localhost:3000", expect: []string{"http://localhost:3000"}},
		{name: "multiple origins", input: "http://localhost:3000,http://localhost:3001", expect: []string{"http://localhost:3000", "http://localhost:3001"}},
		{name: "origins with spaces", input: " http://localhost:3000 , http://localhost:3001 ", expect: []string{"http://localhost:3000", "http://localhost:3001"}},
		{name: "empty string", input: "", expect: []string{}},
		{name: "only commas", input: ",,,", expect: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseOrigins(tt.input)
			if len(result) != len(tt.expect) {
				t.Errorf("Expected %d origins, got %d", len(tt.expect), len(result))
				return
			}
			for i, origin := range result {
				if origin != tt.expect[i] {
					t.Errorf("Expected origin %s at index %d, got %s", tt.expect[i], i, origin)
				}
			}
		})
	}
}
