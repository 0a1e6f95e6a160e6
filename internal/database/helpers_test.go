package database

import "eterna/internal/config"

func configForTest() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     "db.local",
		Port:     "5433",
		User:     "eterna",
		Password: "s3cret",
		Database: "shop",
		Schema:   "public",
		SSLMode:  "disable",
	}
}
