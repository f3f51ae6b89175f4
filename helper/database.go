package helper

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/joho/godotenv"
)

// DatabaseConfiguration holds the PostgreSQL connection parameters
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// NewDatabaseConfiguration reads the database configuration from the
// environment (a .env file is loaded first if present).
// Required variables: DB_HOST, DB_PORT, DB_DATABASE, DB_USERNAME, DB_PASSWORD.
// DB_SCHEMA and DB_SSL_MODE are optional and default to "public" and "disable".
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	// Missing .env is fine, the variables may already be exported
	_ = godotenv.Load()

	config := &DatabaseConfiguration{
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		Database: os.Getenv("DB_DATABASE"),
		Username: os.Getenv("DB_USERNAME"),
		Password: os.Getenv("DB_PASSWORD"),
		Schema:   os.Getenv("DB_SCHEMA"),
		SSLMode:  os.Getenv("DB_SSL_MODE"),
	}

	if config.Host == "" || config.Port == "" || config.Database == "" || config.Username == "" || config.Password == "" {
		return nil, NewError("database configuration", fmt.Errorf("missing one of DB_HOST, DB_PORT, DB_DATABASE, DB_USERNAME, DB_PASSWORD"))
	}

	if config.Schema == "" {
		config.Schema = "public"
	}

	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	return config, nil
}

// Database wraps a PostgreSQL connection with a name and logger
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabase opens a connection to PostgreSQL and verifies it with a ping.
// It panics if the database is unreachable, as nothing works without it.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	if logger == nil {
		logger = slog.New(NewPrettyHandler(os.Stdout, PrettyHandlerOptions{}))
	}

	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	connStr := fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s search_path=%s sslmode=%s",
		config.Host,
		config.Port,
		config.Database,
		config.Username,
		config.Password,
		config.Schema,
		sslMode,
	)

	instance, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Panicf("error opening database connection: %#v", err)
	}

	instance.SetMaxOpenConns(25)
	instance.SetMaxIdleConns(25)
	instance.SetConnMaxLifetime(5 * time.Minute)

	err = instance.Ping()
	if err != nil {
		log.Panicf("error pinging database: %#v", err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host), slog.String("database", config.Database))

	return &Database{
		Name:     name,
		Instance: instance,
		Logger:   logger,
	}
}

// Close closes the underlying connection. Safe to call on a nil
// database or one without an open connection.
func (d *Database) Close() error {
	if d == nil || d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}
