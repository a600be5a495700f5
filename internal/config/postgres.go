package config

import (
	"fmt"
	"net"
	"net/url"
)

// Postgres describes the store connection. URL wins over the individual parts.
type Postgres struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Database string
	MaxConns int
}

// LoadPostgres reads POSTGRES_URL or POSTGRES_HOST/PORT/USER/PASSWORD/DB.
func LoadPostgres() (Postgres, error) {
	maxConns, err := GetEnvInt("POSTGRES_MAX_CONNS", 4)
	if err != nil {
		return Postgres{}, err
	}

	return Postgres{
		URL:      GetEnv("POSTGRES_URL", ""),
		Host:     GetEnv("POSTGRES_HOST", "timescaledb"),
		Port:     GetEnv("POSTGRES_PORT", "5432"),
		User:     GetEnv("POSTGRES_USER", "postgres"),
		Password: GetEnv("POSTGRES_PASSWORD", "postgres"),
		Database: GetEnv("POSTGRES_DB", "skyva"),
		MaxConns: maxConns,
	}, nil
}

// ConnString returns a postgres:// URL with credentials escaped.
func (p Postgres) ConnString() string {
	if p.URL != "" {
		return p.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   net.JoinHostPort(p.Host, p.Port),
		Path:   "/" + p.Database,
	}
	return u.String()
}

// String hides the password so the config can be logged.
func (p Postgres) String() string {
	if p.URL != "" {
		if u, err := url.Parse(p.URL); err == nil {
			return u.Redacted()
		}
		return "postgres://***"
	}
	return fmt.Sprintf("postgres://%s:***@%s/%s", p.User, net.JoinHostPort(p.Host, p.Port), p.Database)
}
