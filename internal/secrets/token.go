package secrets

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"offersearch-engine/internal/config"
)

const (
	// “Service” groups the app's secrets in the OS keychain.
	KeyringService = "offersearch"

	// TokenEnv overrides the keychain, mostly for CI and containers.
	TokenEnv = "OFFERSEARCH_API_TOKEN"
)

var ErrTokenNotFound = errors.New("api token not found (set it in keychain or via " + TokenEnv + ")")

// GetAPIToken looks at the environment first, then the keychain.
func GetAPIToken(keyringAccount string) (string, error) {
	if tok := strings.TrimSpace(os.Getenv(TokenEnv)); tok != "" {
		return tok, nil
	}
	if strings.TrimSpace(keyringAccount) != "" {
		tok, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(tok) != "" {
			return tok, nil
		}
	}
	return "", ErrTokenNotFound
}

func SetAPIToken(keyringAccount string, token string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, token)
}

func DeleteAPIToken(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

// APIKeyringAccount is remote.keyring_account, or one derived from the remote host.
func APIKeyringAccount(cfg config.Config) string {
	if a := strings.TrimSpace(cfg.Remote.KeyringAccount); a != "" {
		return a
	}
	host := cfg.Remote.BaseURL
	if u, err := url.Parse(cfg.Remote.BaseURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return fmt.Sprintf("offersearch:api:%s", host)
}
