package utils

import (
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig reads an optional .env file from path and wires viper to the
// process environment. Missing .env is fine; explicit env vars win.
func LoadConfig(path string) {
	if err := godotenv.Load(filepath.Join(path, ".env")); err == nil {
		logrus.Debug("[CONFIG] .env file loaded")
	}
	viper.AutomaticEnv()
}
