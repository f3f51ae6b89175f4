package helper

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testDatabase = "linker_test"
	testUsername = "postgres"
	testPassword = "postgres"
)

// MustStartPostgresContainer starts a pgvector-enabled PostgreSQL container
// for tests and returns a teardown function plus the mapped host port.
func MustStartPostgresContainer() (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	ctx := context.Background()

	container, err := postgres.Run(
		ctx,
		"pgvector/pgvector:pg17",
		postgres.WithDatabase(testDatabase),
		postgres.WithUsername(testUsername),
		postgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", NewError("start postgres container", err)
	}

	mappedPort, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return container.Terminate, "", NewError("get mapped port", err)
	}

	return container.Terminate, mappedPort.Port(), nil
}

// SetTestDatabaseConfigEnvs sets the database environment variables for the
// test container, so NewDatabaseConfiguration picks them up.
func SetTestDatabaseConfigEnvs(t *testing.T, port string) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", port)
	t.Setenv("DB_DATABASE", testDatabase)
	t.Setenv("DB_USERNAME", testUsername)
	t.Setenv("DB_PASSWORD", testPassword)
}

// NewTestDatabase creates a Database for tests with a quiet logger
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	logger := slog.New(NewPrettyHandler(os.Stdout, PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: slog.LevelWarn},
	}))
	return NewDatabase("linker_test", config, logger)
}
