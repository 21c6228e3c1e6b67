package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pliu/estate/internal/logging"
	"github.com/pliu/estate/internal/models"
	"github.com/pliu/estate/internal/store"
)

type SQLStore struct {
	db         *gorm.DB
	driverName string
}

var _ store.Store = (*SQLStore)(nil)

// New opens driverName ("sqlite3" or "postgres") and migrates the schema.
func New(driverName, dataSourceName string) (*SQLStore, error) {
	if driverName == "sqlite3" {
		dataSourceName = withForeignKeys(dataSourceName)
	}
	sqlDB, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	var dialector gorm.Dialector
	switch driverName {
	case "sqlite3":
		// An in-memory database lives and dies with its connection.
		sqlDB.SetMaxOpenConns(1)
		dialector = sqlite.Dialector{Conn: sqlDB}
	case "postgres":
		dialector = postgres.New(postgres.Config{Conn: sqlDB})
	default:
		sqlDB.Close()
		return nil, fmt.Errorf("unsupported database driver %q", driverName)
	}

	s, err := open(dialector, driverName, true)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// withForeignKeys turns on SQLite foreign key enforcement, which is off per
// connection unless the DSN asks for it.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

func open(dialector gorm.Dialector, driverName string, migrate bool) (*SQLStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(gormWriter{}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}

	s := &SQLStore{db: db, driverName: driverName}
	if migrate {
		if err := s.createTables(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *SQLStore) createTables() error {
	return s.db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.PostDetail{},
		&models.SavedPost{},
		&models.Chat{},
		&models.ChatParticipant{},
		&models.Message{},
	)
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps driver and ORM errors onto the store sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) &&
		(liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}

type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logger := logging.WithComponent("gorm")
	logger.Warn().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
