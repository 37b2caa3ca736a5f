package db

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/apiserver/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.internal",
		Port:     6543,
		User:     "taskhub",
		Password: "p@ss/word",
		DBName:   "taskhub_db",
	}

	u, err := url.Parse(DSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.internal:6543", u.Host)
	assert.Equal(t, "/taskhub_db", u.Path)
	assert.Equal(t, "taskhub", u.User.Username())
	password, _ := u.User.Password()
	assert.Equal(t, "p@ss/word", password)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))

	cfg.UseSSL = true
	u, err = url.Parse(DSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
}
