package startup

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/redis"
)

const (
	DependencyDatabase   = "database"
	DependencyMigrations = "migrations"
	DependencyRedis      = "redis"
	DependencyKafka      = "kafka"
)

// DatabaseDependency owns the Postgres connection pool
type DatabaseDependency struct {
	cfg    *config.Config
	logger ectologger.Logger
	DB     *database.DatabaseInstance
}

func NewDatabaseDependency(cfg *config.Config, logger ectologger.Logger) *DatabaseDependency {
	return &DatabaseDependency{cfg: cfg, logger: logger}
}

func (d *DatabaseDependency) GetName() string     { return DependencyDatabase }
func (d *DatabaseDependency) DependsOn() []string { return nil }

func (d *DatabaseDependency) Start(ctx context.Context) error {
	db, err := database.Connect(ctx, DatabaseConfig(d.cfg), d.logger)
	if err != nil {
		return err
	}
	d.DB = db
	return nil
}

func (d *DatabaseDependency) Stop(context.Context) error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

// MigrationDependency applies the schema once the database is reachable
type MigrationDependency struct {
	cfg      *config.Config
	logger   ectologger.Logger
	database *DatabaseDependency
}

func NewMigrationDependency(cfg *config.Config, logger ectologger.Logger, db *DatabaseDependency) *MigrationDependency {
	return &MigrationDependency{cfg: cfg, logger: logger, database: db}
}

func (m *MigrationDependency) GetName() string     { return DependencyMigrations }
func (m *MigrationDependency) DependsOn() []string { return []string{DependencyDatabase} }

func (m *MigrationDependency) Start(context.Context) error {
	return Migrate(m.cfg, m.logger, m.database.DB)
}

func (m *MigrationDependency) Stop(context.Context) error { return nil }

// RedisDependency owns the master cache connection
type RedisDependency struct {
	cfg    *config.Config
	logger ectologger.Logger
	Client *redis.Client
}

func NewRedisDependency(cfg *config.Config, logger ectologger.Logger) *RedisDependency {
	return &RedisDependency{cfg: cfg, logger: logger}
}

func (r *RedisDependency) GetName() string     { return DependencyRedis }
func (r *RedisDependency) DependsOn() []string { return nil }

func (r *RedisDependency) Start(ctx context.Context) error {
	client, err := redis.NewClient(ctx, redis.Config{
		Host:     r.cfg.RedisHost,
		Port:     r.cfg.RedisPort,
		Password: r.cfg.RedisPassword,
		DB:       r.cfg.RedisDB,
	}, r.logger)
	if err != nil {
		return err
	}
	r.Client = client
	return nil
}

func (r *RedisDependency) Stop(context.Context) error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

// KafkaDependency owns the identity event producer. The writer connects lazily, so Start
// never blocks on the brokers.
type KafkaDependency struct {
	cfg      *config.Config
	logger   ectologger.Logger
	Producer *kafka.Producer
}

func NewKafkaDependency(cfg *config.Config, logger ectologger.Logger) *KafkaDependency {
	return &KafkaDependency{cfg: cfg, logger: logger}
}

func (k *KafkaDependency) GetName() string     { return DependencyKafka }
func (k *KafkaDependency) DependsOn() []string { return nil }

func (k *KafkaDependency) Start(context.Context) error {
	if k.Producer == nil {
		k.Producer = kafka.NewProducer(kafka.ParseConfig(k.cfg.KafkaBrokers, k.cfg.KafkaEventTopic), k.logger)
	}
	return nil
}

func (k *KafkaDependency) Stop(context.Context) error {
	if k.Producer == nil {
		return nil
	}
	return k.Producer.Close()
}

// DatabaseConfig maps the service configuration onto the connection settings
func DatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		UserName:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}
}

// Migrate applies the db/pg migrations to an open database
func Migrate(cfg *config.Config, logger ectologger.Logger, db *database.DatabaseInstance) error {
	service := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(max(cfg.DatabaseMigrationVersion, 0)),
		Force:               cfg.DatabaseMigrationForce,
	})
	return service.Migrate(db.DB.DB, cfg.DatabaseName)
}
