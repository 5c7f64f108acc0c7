package config

import (
	"fmt"
	stdlog "log"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func mysqlDSNFromURL(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "UTC")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode())
	return dsn, dbName, nil
}

// ResolveMySQLDSN prefers the URL and falls back to the individual parts.
func ResolveMySQLDSN(cfg DatabaseConfig) (string, string, error) {
	if cfg.URL != "" {
		if strings.HasPrefix(cfg.URL, "mysql://") {
			return mysqlDSNFromURL(cfg.URL)
		}
		return cfg.URL, cfg.Name, nil
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.User, cfg.Pass, cfg.Host, cfg.Port, cfg.Name,
	)
	return dsn, cfg.Name, nil
}

// ConnectDatabase opens MySQL through gorm with its logger routed to zerolog.
func ConnectDatabase(cfg DatabaseConfig, debug bool) (*gorm.DB, error) {
	dsn, dbName, err := ResolveMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if debug {
		level = logger.Info
	}
	gormLogger := logger.New(
		stdlog.New(log.Logger, "", 0),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info().Str("database", dbName).Msg("✅ database connection established")
	return db, nil
}
