package ygggo_conn

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DockerTestHelper runs a disposable MySQL server and exposes it both as a
// Registry (for Pooled handles) and as a Config (for DirectURL handles).
type DockerTestHelper struct {
	container testcontainers.Container
	registry  *DBRegistry
	config    Config
}

// DockerTestConfig holds configuration for Docker test containers
type DockerTestConfig struct {
	MySQLVersion string
	Database     string
	Username     string
	Password     string
	RootPassword string
	RegistryName string
	StartTimeout time.Duration
}

// DefaultDockerTestConfig returns default configuration for Docker tests
func DefaultDockerTestConfig() DockerTestConfig {
	return DockerTestConfig{
		MySQLVersion: "8.0",
		Database:     "testdb",
		Username:     "testuser",
		Password:     "testpass",
		RootPassword: "rootpass",
		RegistryName: DefaultRegistryName,
		StartTimeout: 60 * time.Second,
	}
}

func NewDockerTestHelper(ctx context.Context) (*DockerTestHelper, error) {
	return NewDockerTestHelperWithConfig(ctx, DefaultDockerTestConfig())
}

// NewDockerTestHelperWithConfig starts the container, waits for the server
// and binds a pool for it under config.RegistryName.
func NewDockerTestHelperWithConfig(ctx context.Context, config DockerTestConfig) (*DockerTestHelper, error) {
	c, err := mysql.Run(ctx,
		"mysql:"+config.MySQLVersion,
		mysql.WithDatabase(config.Database),
		mysql.WithUsername(config.Username),
		mysql.WithPassword(config.Password),
		testcontainers.WithEnv(map[string]string{
			"MYSQL_ROOT_PASSWORD": config.RootPassword,
		}),
		testcontainers.WithWaitStrategy(
			wait.ForLog("port: 3306  MySQL Community Server").
				WithOccurrence(1).
				WithStartupTimeout(config.StartTimeout),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start MySQL container: %w", err)
	}
	h := &DockerTestHelper{container: c}

	host, err := c.Host(ctx)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	mapped, err := c.MappedPort(ctx, "3306")
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	port, err := strconv.Atoi(mapped.Port())
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("failed to parse port: %w", err)
	}

	h.config = DefaultConfig()
	h.config.Host = host
	h.config.Port = port
	h.config.Database = config.Database
	h.config.Username = config.Username
	h.config.Password = config.Password
	h.config.RegistryName = config.RegistryName
	h.config.Params = map[string]string{"parseTime": "true"}

	connector, err := MySQL.Connector(h.config.ConnectionString())
	if err != nil {
		h.Close()
		return nil, err
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		h.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	h.registry = NewDBRegistry()
	h.registry.Register(config.RegistryName, db)
	h.config.Registry = h.registry
	return h, nil
}

// Registry returns the registry holding the container's pool.
func (h *DockerTestHelper) Registry() *DBRegistry { return h.registry }

// Config returns a Config usable with either strategy.
func (h *DockerTestHelper) Config() Config { return h.config }

func (h *DockerTestHelper) Container() testcontainers.Container { return h.container }

// Close closes the pool and terminates the container.
func (h *DockerTestHelper) Close() error {
	var errs *multierror.Error
	if h.registry != nil {
		if err := h.registry.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("close registry: %w", err))
		}
	}
	if h.container != nil {
		if err := h.container.Terminate(context.Background()); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("terminate container: %w", err))
		}
	}
	return errs.ErrorOrNil()
}

// Reset drops every table in the test database through a pooled handle.
func (h *DockerTestHelper) Reset(ctx context.Context) error {
	conn, err := New(ctx, Pooled, h.config)
	if err != nil {
		return err
	}
	defer conn.Close()

	cur, err := conn.ExecuteQuery(ctx, Direct("SHOW TABLES"))
	if err != nil {
		return err
	}
	var tables []string
	for cur.Next() {
		var name string
		if err := cur.Scan(&name); err != nil {
			return err
		}
		tables = append(tables, name)
	}
	if err := cur.Err(); err != nil {
		return err
	}

	if _, err := conn.ExecuteUpdate(ctx, Direct("SET FOREIGN_KEY_CHECKS = 0")); err != nil {
		return err
	}
	for _, table := range tables {
		if _, err := conn.ExecuteUpdate(ctx, Direct("DROP TABLE IF EXISTS `"+table+"`")); err != nil {
			return err
		}
	}
	_, err = conn.ExecuteUpdate(ctx, Direct("SET FOREIGN_KEY_CHECKS = 1"))
	return err
}
