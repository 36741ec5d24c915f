package config

var defaults = map[string]any{
	"secret":      "",
	"session_ttl": 480, // 8 hours
	"log_level":   "info",

	"listen": ":5000",

	"allowed_networks": "",

	"bootstrap_password": "",
	"seed_file":          "",
	"base_url":           "",

	"storage.type":        "sqlite",
	"storage.sqlite.path": "./data/console.db",
}

func Defaults() map[string]any {
	values := make(map[string]any)
	for k, v := range defaults {
		values[k] = v
	}
	return values
}
