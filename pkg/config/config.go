package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StorageConfig struct {
	Type       string `mapstructure:"type"` // "postgres" or "sqlite"
	Host       string `mapstructure:"host"`
	Port       string `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name"`
	SSLMode    string `mapstructure:"sslmode"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DSN builds the postgres connection string.
func (s StorageConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		s.Host, s.User, s.Password, s.Name, s.Port, s.SSLMode)
}

type UploadsConfig struct {
	UploadDir    string `mapstructure:"upload_dir"`
	ExtractedDir string `mapstructure:"extracted_dir"`
	MaxBytes     int64  `mapstructure:"max_bytes"`
}

type AnalysisConfig struct {
	Interpreter        string        `mapstructure:"interpreter"`
	ScriptsDir         string        `mapstructure:"scripts_dir"`
	RequirementsScript string        `mapstructure:"requirements_script"`
	SourceCodeScript   string        `mapstructure:"source_code_script"`
	GitHubScript       string        `mapstructure:"github_script"`
	CompareScript      string        `mapstructure:"compare_script"`
	Timeout            time.Duration `mapstructure:"timeout"`
	MaxConcurrent      int64         `mapstructure:"max_concurrent"`
	RunLogPath         string        `mapstructure:"run_log_path"`
}

// ScriptPath resolves a script name against ScriptsDir.
func (a AnalysisConfig) ScriptPath(script string) string {
	if filepath.IsAbs(script) || a.ScriptsDir == "" {
		return script
	}
	return filepath.Join(a.ScriptsDir, script)
}

type GitHubConfig struct {
	Token     string `mapstructure:"token"`
	RateLimit int    `mapstructure:"rate_limit"` // requests per second
	Verify    bool   `mapstructure:"verify"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    15 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Type:       "postgres",
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", "password"),
			Name:       getEnv("DB_NAME", "srstracker"),
			SSLMode:    "disable",
			SQLitePath: filepath.Join("data", "srstracker.db"),
		},
		Uploads: UploadsConfig{
			UploadDir:    "uploads",
			ExtractedDir: "extracted",
			MaxBytes:     20 * 1024 * 1024,
		},
		Analysis: AnalysisConfig{
			Interpreter:        "python",
			ScriptsDir:         "scripts",
			RequirementsScript: "test_model.py",
			SourceCodeScript:   "gemini_ast.py",
			GitHubScript:       "github_analysis.py",
			CompareScript:      "compare_requirements.py",
			Timeout:            10 * time.Minute,
			MaxConcurrent:      4,
			RunLogPath:         filepath.Join("data", "runs.db"),
		},
		GitHub: GitHubConfig{
			RateLimit: 10,
			Verify:    false,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  true,
		},
	}
}

// Load reads .env files, then the optional config file, then SRSTRACKER_*
// environment variables, in increasing order of precedence.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix("SRSTRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath(".srstracker")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if token := os.Getenv("GITHUB_TOKEN"); token != "" && cfg.GitHub.Token == "" {
		cfg.GitHub.Token = token
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" && cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (or JWT_SECRET) is required")
	}
	switch c.Storage.Type {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported storage type %q", c.Storage.Type)
	}
	if c.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("uploads.max_bytes must be positive")
	}
	if c.Analysis.Timeout <= 0 {
		return fmt.Errorf("analysis.timeout must be positive")
	}
	if c.Analysis.MaxConcurrent <= 0 {
		return fmt.Errorf("analysis.max_concurrent must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.host", cfg.Storage.Host)
	v.SetDefault("storage.port", cfg.Storage.Port)
	v.SetDefault("storage.user", cfg.Storage.User)
	v.SetDefault("storage.password", cfg.Storage.Password)
	v.SetDefault("storage.name", cfg.Storage.Name)
	v.SetDefault("storage.sslmode", cfg.Storage.SSLMode)
	v.SetDefault("storage.sqlite_path", cfg.Storage.SQLitePath)

	v.SetDefault("uploads.upload_dir", cfg.Uploads.UploadDir)
	v.SetDefault("uploads.extracted_dir", cfg.Uploads.ExtractedDir)
	v.SetDefault("uploads.max_bytes", cfg.Uploads.MaxBytes)

	v.SetDefault("analysis.interpreter", cfg.Analysis.Interpreter)
	v.SetDefault("analysis.scripts_dir", cfg.Analysis.ScriptsDir)
	v.SetDefault("analysis.requirements_script", cfg.Analysis.RequirementsScript)
	v.SetDefault("analysis.source_code_script", cfg.Analysis.SourceCodeScript)
	v.SetDefault("analysis.github_script", cfg.Analysis.GitHubScript)
	v.SetDefault("analysis.compare_script", cfg.Analysis.CompareScript)
	v.SetDefault("analysis.timeout", cfg.Analysis.Timeout)
	v.SetDefault("analysis.max_concurrent", cfg.Analysis.MaxConcurrent)
	v.SetDefault("analysis.run_log_path", cfg.Analysis.RunLogPath)

	v.SetDefault("github.token", cfg.GitHub.Token)
	v.SetDefault("github.rate_limit", cfg.GitHub.RateLimit)
	v.SetDefault("github.verify", cfg.GitHub.Verify)

	v.SetDefault("auth.jwt_secret", cfg.Auth.JWTSecret)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.json", cfg.Log.JSON)
}

func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}

// Helper function to fetch environment variables with a fallback value
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
