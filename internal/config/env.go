package config

import (
	stdErrors "errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// envFiles are loaded in order; earlier files and the process environment win.
var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads .env and .env.local when present. Existing process
// environment variables are never overwritten.
func loadEnvFile() error {
	for _, path := range envFiles {
		if _, err := os.Stat(path); stdErrors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}
