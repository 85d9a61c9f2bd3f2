package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeout(t *testing.T) {
	viper.Set("REQ_TIMEOUT", "")
	timeout := GetRequestTimeout()
	assert.Equal(t, timeout, defaultRequestTimeout)

	viper.Set("REQ_TIMEOUT", "14s")
	timeout = GetRequestTimeout()
	assert.Equal(t, timeout, 14*time.Second)

	viper.Set("REQ_TIMEOUT", "soon")
	timeout = GetRequestTimeout()
	assert.Equal(t, timeout, defaultRequestTimeout)
}

func TestPort(t *testing.T) {
	viper.Set(KeyPort, "9090")
	assert.Equal(t, ":9090", GetPort())

	viper.Set(KeyPort, "127.0.0.1:9090")
	assert.Equal(t, "127.0.0.1:9090", GetPort())

	viper.Set(KeyPort, "")
	assert.Equal(t, defaultLocalPort, GetPort())
}

func TestEnvironmentOverridesDefault(t *testing.T) {
	assert.Equal(t, StoreBadger, GetStoreType())

	t.Setenv(KeyStore, "MongoDB")
	assert.Equal(t, StoreMongoDB, GetStoreType())
}

func TestValidatorEndpoint(t *testing.T) {
	viper.Set(KeyValidatorAddr, "validator:4004")
	assert.Equal(t, "tcp://validator:4004", GetValidatorEndpoint())

	viper.Set(KeyValidatorAddr, "tcp://10.0.0.2:4004")
	assert.Equal(t, "tcp://10.0.0.2:4004", GetValidatorEndpoint())
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "votingd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("JWT_ISSUER: elections\nDB_NAME: ballots\n"), 0o600))

	require.NoError(t, ReadFile(path))
	assert.Equal(t, "elections", GetJWTIssuer())
	assert.Equal(t, "ballots", GetDatabaseName())

	assert.Error(t, ReadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestCorsOrigins(t *testing.T) {
	viper.Set(KeyCorsOrigins, "")
	assert.Empty(t, GetCorsOrigins())

	viper.Set(KeyCorsOrigins, " http://ballot.example, ,https://admin.ballot.example")
	assert.Equal(t, []string{"http://ballot.example", "https://admin.ballot.example"}, GetCorsOrigins())

	viper.Set(KeyCorsOrigins, "")
}
