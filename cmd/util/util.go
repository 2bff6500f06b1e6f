package util

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/orrlabs/prefstore/lib/kv"
	"github.com/orrlabs/prefstore/lib/kv/engines/filekv"
	"github.com/orrlabs/prefstore/lib/kv/engines/memkv"
	"github.com/orrlabs/prefstore/lib/kv/engines/sqlitekv"
	"github.com/orrlabs/prefstore/lib/logger"
	"github.com/orrlabs/prefstore/lib/settings"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupStorageFlags adds the common storage flags to a command
func SetupStorageFlags(cmd *cobra.Command) {
	key := "engine"
	cmd.PersistentFlags().String(key, "file", WrapString("storage engine to use (file, sqlite, memory)"))

	key = "data-dir"
	cmd.PersistentFlags().String(key, "./data", WrapString("directory holding the area snapshot files (file engine)"))

	key = "db"
	cmd.PersistentFlags().String(key, "", WrapString("path of the sqlite database file (sqlite engine, defaults to <data-dir>/prefstore.db)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warning", WrapString("log verbosity (error, warning, info, debug)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("prefstore")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	level, err := logger.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return err
	}
	logger.SetLevelAll(level)
	return nil
}

// OpenStore builds the settings store from the configured storage engine.
// The returned close function flushes file-backed areas to disk.
func OpenStore() (*settings.Store, func() error, error) {
	local, sync, err := openAreas()
	if err != nil {
		return nil, nil, err
	}

	store := settings.New(local, sync)
	closeAll := func() error {
		_ = store.Close()
		if err := local.Close(); err != nil {
			return err
		}
		return sync.Close()
	}
	return store, closeAll, nil
}

func openAreas() (local, sync kv.Area, err error) {
	dataDir := viper.GetString("data-dir")

	switch engine := viper.GetString("engine"); engine {
	case "file":
		local, err = filekv.Open(filepath.Join(dataDir, "local.kv"), kv.AreaLocal, kv.QuotaLocalBytes)
		if err != nil {
			return nil, nil, err
		}
		sync, err = filekv.Open(filepath.Join(dataDir, "sync.kv"), kv.AreaSync, kv.QuotaSyncBytes)
		if err != nil {
			local.Close()
			return nil, nil, err
		}
	case "sqlite":
		dbPath := viper.GetString("db")
		if dbPath == "" {
			dbPath = filepath.Join(dataDir, "prefstore.db")
		}
		local, err = sqlitekv.Open(dbPath, kv.AreaLocal, kv.QuotaLocalBytes)
		if err != nil {
			return nil, nil, err
		}
		sync, err = sqlitekv.Open(dbPath, kv.AreaSync, kv.QuotaSyncBytes)
		if err != nil {
			local.Close()
			return nil, nil, err
		}
	case "memory":
		local = memkv.New(kv.AreaLocal, kv.QuotaLocalBytes)
		sync = memkv.New(kv.AreaSync, kv.QuotaSyncBytes)
	default:
		return nil, nil, fmt.Errorf("invalid storage engine %s", engine)
	}

	return local, sync, nil
}
