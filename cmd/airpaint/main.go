package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ayusman/airpaint/internal/config"
	"github.com/ayusman/airpaint/internal/store"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "airpaint",
	Short: "Draw in the air with your index finger",
	Long: `airpaint tracks one hand through the webcam, draws glowing strokes
while you pinch, and takes voice commands from a browser client.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./airpaint.yaml or ~/.airpaint/airpaint.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (default ~/.airpaint/airpaint.db)")

	rootCmd.Flags().String("addr", ":8080", "HTTP listen address")
	rootCmd.Flags().String("static-dir", "", "directory of the browser client")
	rootCmd.Flags().Bool("advertise", false, "announce the service over mDNS")
	rootCmd.Flags().Bool("camera", true, "capture from the webcam")
	rootCmd.Flags().Int("device", 0, "camera device index")
	rootCmd.Flags().Bool("tray", false, "show a system tray menu")
	rootCmd.Flags().String("speech-command", "", "text-to-speech program, e.g. \"espeak -s 160\"")

	// Bind flags to viper
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("server.addr", rootCmd.Flags().Lookup("addr"))
	viper.BindPFlag("server.static_dir", rootCmd.Flags().Lookup("static-dir"))
	viper.BindPFlag("server.advertise", rootCmd.Flags().Lookup("advertise"))
	viper.BindPFlag("camera.enabled", rootCmd.Flags().Lookup("camera"))
	viper.BindPFlag("camera.device", rootCmd.Flags().Lookup("device"))
	viper.BindPFlag("tray.enabled", rootCmd.Flags().Lookup("tray"))
	viper.BindPFlag("speech.command", rootCmd.Flags().Lookup("speech-command"))

	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("airpaint")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if dir, err := dataDir(); err == nil {
			viper.AddConfigPath(dir)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			log.Warn("could not read config file", "error", err)
		}
	} else {
		log.Debug("using config file", "path", viper.ConfigFileUsed())
	}

	if level, err := log.ParseLevel(viper.GetString("log.level")); err == nil {
		log.SetLevel(level)
	} else {
		log.Warn("unknown log level, using info", "level", viper.GetString("log.level"))
	}
}

// dataDir is ~/.airpaint.
func dataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".airpaint"), nil
}

// openStore opens the database at path, or ~/.airpaint/airpaint.db.
func openStore(path string) (*store.Store, error) {
	if path == "" {
		dir, err := dataDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "airpaint.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return store.New(path)
}

// loadConfig layers stored settings over file, env and flags.
func loadConfig(st *store.Store) (config.Config, error) {
	unknown, err := config.ApplyStored(viper.GetViper(), st.Settings())
	if err != nil {
		return config.Config{}, err
	}
	for _, key := range unknown {
		log.Warn("ignoring unknown stored setting", "key", key)
	}
	return config.Load(viper.GetViper())
}

// findWebDir searches for the browser client in common locations.
// It checks: "web", "../web", "../../web", and ~/.airpaint/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dir, err := dataDir()
	if err != nil {
		return ""
	}
	homeWebDir := filepath.Join(dir, "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
