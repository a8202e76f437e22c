package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// Storage drivers understood by STORE_DRIVER.
const (
    DriverMySQL  = "mysql"
    DriverMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Database settings are only required when the
// mysql driver is selected; the memory driver keeps everything in process.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    StoreDriver    string // "mysql" (default) or "memory"
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time‑to‑live in minutes
    RefreshTTLDays int    // refresh token time‑to‑live in days
    BcryptCost     int    // bcrypt cost for password hashing
    RabbitURL      string // AMQP broker URL; empty disables publishing
    CORSOrigins    []string
    Search         SearchConfig
    Assets         AssetConfig
}

// SearchConfig configures the client for the external event search API.
type SearchConfig struct {
    BaseURL  string
    APIKey   string
    Timeout  time.Duration
    PageSize int
}

// AssetConfig configures where uploaded event images are written and the
// public URL prefix they are served under.
type AssetConfig struct {
    Dir      string
    BaseURL  string
    MaxBytes int64
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is applied first when it
// exists; real environment variables win over it.  Required variables are
// enforced by must() and missing values cause the program to exit.
func Load() Config {
    _ = godotenv.Load() // a missing .env is not an error

    cfg := Config{
        Env:            must("APP_ENV"),
        Port:           must("APP_PORT"),
        StoreDriver:    strings.ToLower(envStr("STORE_DRIVER", DriverMySQL)),
        JWTSecret:      must("JWT_SECRET"),
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:     mustInt("BCRYPT_COST"),
        RabbitURL:      rabbitURL(),
        CORSOrigins:    splitList(envStr("CORS_ORIGINS", "*")),
        Search: SearchConfig{
            BaseURL:  envStr("SEARCH_API_URL", "https://app.ticketmaster.com/discovery/v2"),
            APIKey:   os.Getenv("SEARCH_API_KEY"),
            Timeout:  envDur("SEARCH_TIMEOUT", 5*time.Second),
            PageSize: envInt("SEARCH_PAGE_SIZE", 20),
        },
        Assets: AssetConfig{
            Dir:      envStr("ASSET_DIR", "uploads"),
            BaseURL:  envStr("ASSET_BASE_URL", "/uploads"),
            MaxBytes: int64(envInt("ASSET_MAX_BYTES", 5<<20)),
        },
    }
    switch cfg.StoreDriver {
    case DriverMySQL:
        cfg.DBUser = must("DB_USER")
        cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
        cfg.DBHost = must("DB_HOST")
        cfg.DBPort = must("DB_PORT")
        cfg.DBName = must("DB_NAME")
    case DriverMemory:
    default:
        log.Fatalf("unknown STORE_DRIVER: %q", cfg.StoreDriver)
    }
    return cfg
}

// IsProd reports whether the service runs in the production environment.
func (c Config) IsProd() bool { return strings.EqualFold(c.Env, "prod") }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

func rabbitURL() string {
    if v := os.Getenv("RABBITMQ_URL"); v != "" {
        return v
    }
    return os.Getenv("AMQP_URL")
}

func splitList(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
