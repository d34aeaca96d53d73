package config

import "testing"

func validBase() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "receptionist", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
		Vapi:  VapiConfig{PrivateKey: "pk-live-123"},
	}
}

func TestLoad_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "issuer"
	c.Auth.JWTAudience = "aud"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestValidate_RequiresSomeVapiKey(t *testing.T) {
	c := validBase()
	c.Vapi.PrivateKey = ""
	c.Vapi.PublicKey = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error when no vendor key is configured")
	}
}

func TestValidate_RejectsPlaceholderKey(t *testing.T) {
	c := validBase()
	c.Vapi.PrivateKey = "your-vapi-private-key"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for placeholder vendor key")
	}
}

func TestValidate_VapiDefaults(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Vapi.BaseURL == "" || c.Vapi.APIVersion == "" {
		t.Fatalf("expected vendor base URL and API version defaults")
	}
}
