package main

import (
	"testing"

	"electropos/backend/internal/config"
)

func TestValidateSecurityConfigRejectsMissingSecret(t *testing.T) {
	t.Setenv("APP_ENV", "")

	if err := validateSecurityConfig(config.Config{}); err == nil {
		t.Fatal("expected empty AUTH_SECRET to be rejected")
	}
	if err := validateSecurityConfig(config.Config{AuthSecret: "short"}); err == nil {
		t.Fatal("expected short AUTH_SECRET to be rejected")
	}
	if err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef"}); err != nil {
		t.Fatalf("expected 32-byte secret to pass, got %v", err)
	}
}

func TestValidateSecurityConfigSkippedInDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	if err := validateSecurityConfig(config.Config{}); err != nil {
		t.Fatalf("development mode must not require a secret, got %v", err)
	}
}
