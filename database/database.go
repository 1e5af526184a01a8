package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	mysqldrv "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/freelance-app/config"
	"github.com/yeremiapane/freelance-app/utils"
)

var ErrUnknownDriver = errors.New("cannot determine database driver")

// DetectDriver picks the engine from the connection string's scheme.
func DetectDriver(databaseURL string) (string, error) {
	u := strings.ToLower(strings.TrimSpace(databaseURL))

	switch {
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return config.DriverPostgres, nil
	case strings.HasPrefix(u, "mysql://"), strings.Contains(u, "@tcp("), strings.Contains(u, "@unix("):
		return config.DriverMySQL, nil
	case strings.HasPrefix(u, "file:"), strings.HasPrefix(u, "sqlite:"), u == ":memory:",
		strings.HasSuffix(u, ".db"), strings.HasSuffix(u, ".sqlite"), strings.HasSuffix(u, ".sqlite3"):
		return config.DriverSQLite, nil
	}

	return "", fmt.Errorf("%w from %q", ErrUnknownDriver, redact(databaseURL))
}

// Dialector returns the gorm dialector for driver, normalising dsn on the way.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case config.DriverPostgres:
		return postgres.Open(dsn), nil
	case config.DriverMySQL:
		normalised, err := MySQLDSN(dsn)
		if err != nil {
			return nil, err
		}
		return mysql.Open(normalised), nil
	case config.DriverSQLite:
		return sqlite.Open(SQLiteDSN(dsn)), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
}

// MySQLDSN accepts either a mysql:// URL or a go-sql-driver DSN and returns a
// go-sql-driver DSN with parseTime enabled, needed to scan DATETIME columns
// into time.Time.
func MySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(strings.ToLower(dsn), "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parsing mysql url: %w", err)
		}

		userInfo := u.User.Username()
		if password, ok := u.User.Password(); ok {
			userInfo += ":" + password
		}

		dsn = fmt.Sprintf("%s@tcp(%s)/%s", userInfo, u.Host, strings.TrimPrefix(u.Path, "/"))
		if u.RawQuery != "" {
			dsn += "?" + u.RawQuery
		}
	}

	cfg, err := mysqldrv.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parsing mysql dsn: %w", err)
	}
	cfg.ParseTime = true

	return cfg.FormatDSN(), nil
}

// SQLiteDSN strips a sqlite:// scheme and switches foreign key enforcement on,
// SQLite leaves it off per connection by default and the cascades rely on it.
func SQLiteDSN(dsn string) string {
	for _, prefix := range []string{"sqlite://", "sqlite:"} {
		if strings.HasPrefix(strings.ToLower(dsn), prefix) {
			dsn = dsn[len(prefix):]
			break
		}
	}

	if dsn == ":memory:" {
		dsn = "file::memory:?cache=shared"
	}

	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=1"
}

// Open connects to the configured database, tunes the pool and pings it.
func Open(cfg *config.Config) (*gorm.DB, error) {
	driver := cfg.DatabaseDriver
	if driver == "" {
		detected, err := DetectDriver(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		driver = detected
	}

	dialector, err := Dialector(driver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: utils.NewGormLogger(cfg.LogSQL),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	ctx := context.Background()
	if timeout := cfg.PingTimeoutDuration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	utils.InfoLogger.Printf("Connected to %s database", driver)

	return db, nil
}

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	utils.InfoLogger.Println("Closing database connection pool")
	return sqlDB.Close()
}

// redact hides the password in a connection string before it is logged.
func redact(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil || u.User == nil {
		return databaseURL
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
