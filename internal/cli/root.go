package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/inspectra/internal/model"
)

// version is overridden at build time with -ldflags "-X ..."
var version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "inspectra",
	Short: "Inspectra - counts and groups violations in inspection reports",
	Long: `Inspectra reads inspection reports (PDF, HTML or plain text), finds every
mention of a violation key such as "С5" or "С10", attaches the description
written next to it and groups the mentions into categories defined by a
keyword rule set.

Counts are never guessed: each mention lands in exactly one category, and
mentions no rule claims are kept in a separate "other" bucket.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of Inspectra.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("inspectra %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.inspectra/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".inspectra"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// INSPECTRA_OUTPUT_TOP_N overrides output.top_n
	viper.SetEnvPrefix("INSPECTRA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every default so environment variables can override
// keys that appear in no config file
func setDefaults(cfg *model.Config) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return
	}
	setDefaultTree("", tree)

	// omitempty keys are missing from the marshaled tree
	viper.SetDefault("http.http_proxy", cfg.HTTP.HTTPProxy)
	viper.SetDefault("http.https_proxy", cfg.HTTP.HTTPSProxy)
}

func setDefaultTree(prefix string, tree map[string]interface{}) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]interface{}); ok {
			setDefaultTree(key, sub)
			continue
		}
		viper.SetDefault(key, v)
	}
}

// loadConfig merges defaults, config file, environment and bound flags.
// Defaults live in viper, so decoding starts from a zero config and lists
// such as keys are replaced rather than merged.
func loadConfig() (*model.Config, error) {
	cfg := &model.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Concurrency.Workers <= 0 {
		cfg.Concurrency.Workers = 1
	}
	return cfg, nil
}

// newLogger returns the stderr logger; --verbose enables debug events
func newLogger(cfg *model.Config) *slog.Logger {
	level := slog.LevelWarn
	if cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// applyRuleOverrides replaces or adds rule locations given as KEY=LOCATION
func applyRuleOverrides(cfg *model.Config, overrides []string) error {
	for _, o := range overrides {
		key, location, ok := strings.Cut(o, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("invalid --rules value %q (want KEY=LOCATION)", o)
		}
		location = strings.TrimSpace(location)

		replaced := false
		for i := range cfg.Keys {
			if strings.EqualFold(cfg.Keys[i].Key, key) {
				cfg.Keys[i].Rules = location
				replaced = true
			}
		}
		if !replaced {
			cfg.Keys = append(cfg.Keys, model.KeyConfig{Key: key, Rules: location})
		}
	}
	return nil
}

// commonFlags are the per-document settings shared by analyze, batch and watch,
// mapped to their config keys
var commonFlags = map[string]string{
	"top":          "output.top_n",
	"other-title":  "output.other_title",
	"details":      "output.include_details",
	"no-color":     "output.no_color",
	"max-pages":    "document.max_pages",
	"validate-pdf": "document.validate_pdf",
	"ua":           "http.user_agent",
	"http-proxy":   "http.http_proxy",
	"https-proxy":  "http.https_proxy",
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().Int("top", 3, "number of categories listed per key")
	cmd.Flags().String("other-title", model.DefaultOtherTitle, "title of the category for unmatched mentions")
	cmd.Flags().Bool("details", false, "include segments and unmatched items in reports")
	cmd.Flags().Bool("no-color", false, "disable colored terminal output")
	cmd.Flags().Int("max-pages", 0, "analyze at most this many pages (0 = all)")
	cmd.Flags().Bool("validate-pdf", false, "validate PDF structure before extracting text")
	cmd.Flags().String("ua", "", "HTTP User-Agent for remote documents and rules")
	cmd.Flags().String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	cmd.Flags().Bool("no-cache", false, "disable the page cache")
	cmd.Flags().StringArray("rules", nil, "rule set for a key as KEY=LOCATION (repeatable)")
}

// bindCommonFlags binds the running command's flags to viper. Binding happens at
// run time because several commands define the same flags.
func bindCommonFlags(cmd *cobra.Command, _ []string) error {
	for name, key := range commonFlags {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := viper.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind --%s: %w", name, err)
			}
		}
	}
	return nil
}

// commandConfig loads the config and applies flags that do not map to a single key
func commandConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	overrides, _ := cmd.Flags().GetStringArray("rules")
	if err := applyRuleOverrides(cfg, overrides); err != nil {
		return nil, err
	}
	return cfg, nil
}
