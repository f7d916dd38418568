package config // package config loads application configuration from environment variables

import (
    "errors" // errors.Is separates missing files from malformed ones
    "io/fs"  // fs.ErrNotExist identifies a missing dotenv file
    "log"    // log reports which dotenv files were picked up
    "time"   // time is used for delays and timeouts

    "github.com/joho/godotenv" // godotenv loads .env files into the process environment
)

// envFiles are loaded in order before the environment is read. Values already
// present in the environment are never overridden, so earlier files win.
var envFiles = []string{".env.local", ".env"}

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable and every field has a default, so the service
// starts with an empty environment.
type Config struct {
    Env             string        // application environment (e.g. "dev", "prod")
    Port            string        // HTTP port to listen on
    Mode            string        // mode marker reported by the health check
    ListDelay       time.Duration // artificial latency before the list response
    CORSOrigins     []string      // origins allowed by the CORS middleware
    ShutdownTimeout time.Duration // grace period for in-flight requests on shutdown
}

// Load reads dotenv files (if present) and then builds a Config from the
// environment.
func Load() Config {
    LoadEnvFiles()
    return FromEnv()
}

// LoadEnvFiles loads every dotenv file in envFiles that exists. Missing files
// are skipped silently; malformed files are reported but do not stop startup.
func LoadEnvFiles() {
    for _, f := range envFiles {
        if err := godotenv.Load(f); err == nil {
            log.Printf("config: loaded %s", f)
        } else if !errors.Is(err, fs.ErrNotExist) {
            log.Printf("config: could not load %s: %v", f, err)
        }
    }
}

// FromEnv builds a Config from the current environment without touching
// dotenv files.
func FromEnv() Config {
    return Config{
        Env:             envStr("APP_ENV", "dev"),
        Port:            envStr("PORT", "3001"),
        Mode:            envStr("APP_MODE", "mock"),
        ListDelay:       envDur("LIST_DELAY", 100*time.Millisecond),
        CORSOrigins:     envList("CORS_ALLOW_ORIGINS", "*"),
        ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 5*time.Second),
    }
}
