package config

import (
	"errors"
	"os"
	"path"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	ConfigName     = "config"
	ConfigType     = "yaml"
	ConfigFileName = ConfigName + "." + ConfigType
)

// Creates necessary directory and file if they do not exist
// Returns false if the file exists and true if the file does not exist
// If an error occurs, it returns false and the error
func createIfNotExists(directory string, fileName string, contents []byte) (bool, error) {
	err := os.MkdirAll(directory, 0o755)
	if err != nil {
		return false, err
	}

	filePath := path.Join(directory, fileName)
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		f, err := os.Create(filePath)
		if err != nil {
			return false, err
		}
		defer f.Close()

		_, err = f.Write(contents)
		if err != nil {
			return false, err
		}

		return true, nil
	}

	return false, nil
}

func createFiles(directory string) error {
	config, err := DefaultConfig().Export()
	if err != nil {
		return err
	}
	created, err := createIfNotExists(directory, ConfigFileName, config)
	if err != nil {
		return err
	}
	if created {
		log.Info().Str("file", path.Join(directory, ConfigFileName)).Msg("Created default config")
	}

	return nil
}

// Write replaces the config file in home with cfg.
func Write(home string, cfg *Config) error {
	data, err := cfg.Export()
	if err != nil {
		return err
	}

	filePath := path.Join(os.ExpandEnv(home), ConfigFileName)
	return os.WriteFile(filePath, data, 0o600)
}

// Init loads the config in home, creating a default one on first run.
func Init(home string) (*Config, error) {
	directory := os.ExpandEnv(home)

	err := os.MkdirAll(directory, os.ModePerm)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName(ConfigName)
	v.SetConfigType(ConfigType)
	v.AddConfigPath(directory)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		if err := createFiles(directory); err != nil {
			return nil, err
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, err
	}
	config.expand()

	log.Debug().Object("config", config).Msg("config loaded")

	// setup logger to use log file
	if config.LogFile != "" {
		_, err := createIfNotExists(filepath.Dir(config.LogFile), filepath.Base(config.LogFile), []byte{})
		if err != nil {
			return nil, errors.Join(errors.New("could not create log file"), err)
		}
	}
	return config, config.Validate()
}
