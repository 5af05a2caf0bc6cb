package secrets

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// “Service” groups the app’s secrets in the OS keychain.
	KeyringService = "jobwatch"
)

var ErrNoCookie = errors.New("cookie not found in keychain")

// SourceCookie returns the Cookie header stored for a source's keyring
// account. An empty account means the source sends no cookies.
func SourceCookie(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) == "" {
		return "", nil
	}
	c, err := keyring.Get(KeyringService, keyringAccount)
	if errors.Is(err, keyring.ErrNotFound) || (err == nil && strings.TrimSpace(c) == "") {
		return "", ErrNoCookie
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(c), nil
}

func SetSourceCookie(keyringAccount string, cookie string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(cookie) == "" {
		return errors.New("cookie is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, cookie)
}

func DeleteSourceCookie(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}
