package main

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"testing"
)

func TestMigrationFilenamePattern(t *testing.T) {
	pattern := regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

	tests := []struct {
		filename string
		valid    bool
		version  string
		name     string
	}{
		{"0001_create_accounts.sql", true, "0001", "create_accounts"},
		{"0002_create_transactions.sql", true, "0002", "create_transactions"},
		{"001_invalid.sql", false, "", ""},
		{"0001_test", false, "", ""},
		{"0001.sql", false, "", ""},
		{"invalid_0001_test.sql", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			matches := pattern.FindStringSubmatch(tt.filename)
			if tt.valid {
				if matches == nil {
					t.Fatalf("%s should match", tt.filename)
				}
				if matches[1] != tt.version || matches[2] != tt.name {
					t.Errorf("got version %q name %q, want %q %q", matches[1], matches[2], tt.version, tt.name)
				}
			} else if matches != nil {
				t.Errorf("%s should not match", tt.filename)
			}
		})
	}
}

func TestMigrationChecksumConsistency(t *testing.T) {
	content := []byte("CREATE TABLE test (id INT64);")
	other := []byte("CREATE TABLE different (id INT64);")

	sum := fmt.Sprintf("%x", sha256.Sum256(content))
	if sum != fmt.Sprintf("%x", sha256.Sum256(content)) {
		t.Error("same content should produce the same checksum")
	}
	if sum == fmt.Sprintf("%x", sha256.Sum256(other)) {
		t.Error("different content should produce different checksums")
	}
}
