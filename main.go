package main

import (
	"github.com/joho/godotenv"

	"biometric-device-console/cmd"
)

func main() {
	// Local development overrides; ignored when no .env file exists
	godotenv.Load()

	cmd.Execute()
}
