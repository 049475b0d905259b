package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGeoData = "geo/testdata/cities_sample.txt"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
domain = "dns.example.org"
geo_data = "`+sampleGeoData+`"
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "dns.example.org", cfg.Domain)
	assert.Equal(t, "127.0.0.1:8053", cfg.Listen)
	assert.Equal(t, 10, cfg.UUIDMax)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, `
domain = "dns.example.org"
geo_data = "`+sampleGeoData+`"
uuid_max = 5
`)

	t.Setenv("RDNS_DOMAIN", "other.example.org")
	t.Setenv("RDNS_UUID_MAX", "3")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "other.example.org", cfg.Domain)
	assert.Equal(t, 3, cfg.UUIDMax)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty domain", body: `
domain = ""
geo_data = "` + sampleGeoData + `"
`},
		{name: "missing geo data", body: `
domain = "dns.example.org"
geo_data = "no/such/file.txt"
`},
		{name: "bad uuid max", body: `
domain = "dns.example.org"
geo_data = "` + sampleGeoData + `"
uuid_max = 0
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigBadTOML(t *testing.T) {
	_, err := loadConfig(writeConfig(t, "domain = [broken"))
	assert.Error(t, err)
}
