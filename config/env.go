package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Structs

// Env holds information specific to the system where
// entropy is deployed. This enables host adaptions
// without needing to maintain two different config
// files. Use the .env file to populate host-local
// values within the system.
type Env struct {
	LogLevel     string
	BlockLogRoot string
}

// Functions

// LoadEnv reads in all values defined in the .env file
// at supplied path.
func LoadEnv(envFile string) (*Env, error) {

	// Load environment file.
	err := godotenv.Load(envFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read in env file at '%s'", envFile)
	}

	env := new(Env)

	// Fill variables from .env into struct.
	env.LogLevel = os.Getenv("LOG_LEVEL")
	env.BlockLogRoot = os.Getenv("BLOCK_LOG_ROOT")

	return env, nil
}
