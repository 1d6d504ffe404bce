// Package config provides simple, local configuration management for sift.
//
// All configuration lives in one JSON file in the user's data directory
// (~/.sift, or $SIFT_HOME):
//
//	~/.sift/
//	├── config.json        # Settings and the login token
//	├── .gitignore         # Ignores everything
//	└── logs/              # TUI logs
//
// The config.json file contains simple key-value settings:
//
//	{
//	  "api_url": "http://localhost:8080",
//	  "request_timeout_seconds": 30,
//	  "workers": 8,
//	  "default_analyzer": "python",
//	  "debounce_ms": 1000,
//	  "theme": "default",
//	  "debug": false,
//	  "log_level": "info"
//	}
//
// Environment Variable Support:
//
// Values can reference environment variables using $VAR or ${VAR} syntax.
// A .env file is loaded first (godotenv), and SIFT_API_URL, SIFT_ANALYZER
// and SIFT_TOKEN override the file. Overrides are applied in Get only and
// are never written back.
//
// Example usage:
//
//	dir, _ := config.DefaultDir()
//	manager := config.NewManager(dir)
//	if err := manager.Load(); err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := manager.Get()
//	fmt.Println("API:", cfg.APIURL)
package config
