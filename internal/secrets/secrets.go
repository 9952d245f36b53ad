package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"watchscout-engine/internal/config"
)

const (
	// KeyringService groups this app's secrets in the OS keychain.
	KeyringService = "watchscout"

	envOracleAPIKey = "ANTHROPIC_API_KEY"
	envSMTPPassword = "WATCHSCOUT_SMTP_PASSWORD"
)

// GetOracleAPIKey resolves the extraction-oracle API key: keyring first,
// environment fallback.
func GetOracleAPIKey(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		key, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(key) != "" {
			return key, nil
		}
	}
	if key := strings.TrimSpace(os.Getenv(envOracleAPIKey)); key != "" {
		return key, nil
	}
	return "", errors.New("oracle API key not found (set it in keychain or via " + envOracleAPIKey + ")")
}

func SetOracleAPIKey(keyringAccount, key string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("API key is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, key)
}

// GetSMTPPassword resolves the notification mailbox password: keyring first,
// environment fallback.
func GetSMTPPassword(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		pw, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	if pw := strings.TrimSpace(os.Getenv(envSMTPPassword)); pw != "" {
		return pw, nil
	}
	return "", errors.New("SMTP password not found (set it in keychain or via " + envSMTPPassword + ")")
}

func SetSMTPPassword(keyringAccount, password string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, password)
}

func SMTPKeyringAccount(cfg config.Config) string {
	if cfg.Email.KeyringAccount != "" {
		return cfg.Email.KeyringAccount
	}
	return fmt.Sprintf("watchscout:smtp:%s@%s", cfg.Email.Username, cfg.Email.SMTPHost)
}

func OracleKeyringAccount(cfg config.Config) string {
	if cfg.Oracle.KeyringAccount != "" {
		return cfg.Oracle.KeyringAccount
	}
	return "watchscout:oracle"
}
