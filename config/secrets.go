package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	EnvPrivateKey = "PRIVATE_KEY"
	EnvOwner      = "OWNER"
)

var ErrMissingSecret = errors.New("missing secret")

// LoadSecrets reads PRIVATE_KEY and OWNER from the environment. A .env file in any of
// dirs is loaded first, later directories win, and real environment variables win over files.
func LoadSecrets(dirs ...string) (Secrets, error) {
	v := viper.New()
	v.SetConfigType("env")

	for _, dir := range dirs {
		p := filepath.Join(os.ExpandEnv(dir), ".env")
		if _, err := os.Stat(p); err != nil {
			continue
		}
		v.SetConfigFile(p)
		if err := v.MergeInConfig(); err != nil {
			return Secrets{}, fmt.Errorf("cannot read %s: %w", p, err)
		}
		log.Debug().Str("file", p).Msg("loaded .env")
	}

	if err := v.BindEnv(EnvPrivateKey); err != nil {
		return Secrets{}, err
	}
	if err := v.BindEnv(EnvOwner); err != nil {
		return Secrets{}, err
	}

	s := Secrets{
		PrivateKey: v.GetString(EnvPrivateKey),
		Owner:      v.GetString(EnvOwner),
	}

	var missing []error
	if s.PrivateKey == "" {
		missing = append(missing, fmt.Errorf("%w: %s", ErrMissingSecret, EnvPrivateKey))
	}
	if s.Owner == "" {
		missing = append(missing, fmt.Errorf("%w: %s", ErrMissingSecret, EnvOwner))
	}
	return s, errors.Join(missing...)
}
