package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvFileFlagName = "env-file"
	envFileFlag     = "--" + EnvFileFlagName
	envFileEnvVar   = "ENV_FILE"
	defaultEnvFile  = ".env"
)

// LoadEnvFile loads the environment variables of an env file and returns the path of the file that was loaded, or an
// empty string when there was none. A missing default file is not an error.
// Priority: --env-file flag > ENV_FILE environment variable > .env in the working directory.
func LoadEnvFile(args []string) (string, error) {
	if envFilePath := determineEnvFilePath(args); envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			return "", fmt.Errorf("loading env file %s: %w", envFilePath, err)
		}
		return envFilePath, nil
	}

	err := godotenv.Load(defaultEnvFile)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("loading %s file: %w", defaultEnvFile, err)
	}
	return toAbsolutePath(defaultEnvFile), nil
}

func determineEnvFilePath(args []string) string {
	if path := parseEnvFileFlag(args); path != "" {
		return toAbsolutePath(path)
	}

	if path := os.Getenv(envFileEnvVar); path != "" {
		return toAbsolutePath(path)
	}

	return ""
}

// parseEnvFileFlag reads the --env-file flag before cobra parses the command line, so the variables of the file are
// visible to viper.
func parseEnvFileFlag(args []string) string {
	for i, arg := range args {
		if arg == envFileFlag && i+1 < len(args) {
			return args[i+1]
		}
		if value, found := strings.CutPrefix(arg, envFileFlag+"="); found {
			return value
		}
	}
	return ""
}

func toAbsolutePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}
