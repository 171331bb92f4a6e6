package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailConfigValidateGmailAuthPathWins(t *testing.T) {
	cfg := MailConfig{AuthPath: "/etc/stn/gmail"}
	assert.NoError(t, cfg.Validate())
}

func TestMailConfigValidateIMAPRequiresFullTriple(t *testing.T) {
	cfg := MailConfig{User: "reports@stn.ru", Password: "secret", Server: "imap.stn.ru"}
	assert.NoError(t, cfg.Validate())
}

func TestMailConfigValidateReportsEveryMissingSetting(t *testing.T) {
	err := MailConfig{User: "reports@stn.ru"}.Validate()
	require.Error(t, err)

	var creds *MissingCredentialsError
	require.True(t, errors.As(err, &creds))
	assert.ElementsMatch(t, []string{"EMAIL_PASSWORD", "EMAIL_SERVER"}, creds.Missing)
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "stn",
		Password: "pw",
		DBName:   "stn_dashboard",
		SSLMode:  "disable",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=stn_dashboard")
	assert.Contains(t, dsn, "sslmode=disable")
}
