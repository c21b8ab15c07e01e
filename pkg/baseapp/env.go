package baseapp

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Environment is the process environment consulted before configuration is
// loaded.
type Environment struct {
	// RootPath anchors the default application directories.
	RootPath string `env:"APP_ROOT_PATH" envDefault:"/"`
}

// LoadEnvironment loads dotenv into the process environment when the file
// exists and parses the Environment from it.
func LoadEnvironment(dotenv string) (Environment, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Environment{}, fmt.Errorf("failed to load %s: %w", dotenv, err)
		}
	}
	var e Environment
	if err := env.Parse(&e); err != nil {
		return Environment{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return e, nil
}
