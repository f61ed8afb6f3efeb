package main

import (
	"context"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"salonbook/internal/database"
	"salonbook/internal/domain/session"
	"salonbook/internal/pkg/clock"
	"salonbook/internal/pkg/logger"
)

var (
	version = "dev"
	cli     struct {
		AppEnv   string `help:"Runtime environment." default:"dev" env:"APP_ENV"`
		LogLevel string `help:"Log level." default:"info" env:"LOG_LEVEL"`
		Version  kong.VersionFlag

		Sweep SweepCmd `cmd:"" default:"1" help:"Delete visitor sessions idle for longer than --max-age."`
	}
)

type SweepCmd struct {
	DatabaseURL string        `help:"Database DSN (postgres:// or a SQLite path)." default:"salon.db" env:"DATABASE_URL"`
	MaxAge      time.Duration `help:"Idle time after which a session is removed." default:"720h" env:"SESSION_MAX_AGE"`
}

func (s *SweepCmd) Run(ctx context.Context) error {
	db, err := database.Connect(s.DatabaseURL)
	if err != nil {
		return err
	}

	clk := clock.System()
	cutoff := clk.Now().Add(-s.MaxAge)

	n, err := session.NewStore(db, clk).DeleteInactive(ctx, cutoff)
	if err != nil {
		return err
	}
	log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("session cleanup completed")
	return nil
}

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Description("Remove stale visitor sessions."),
		kong.Vars{"version": version},
		kong.BindTo(ctx, (*context.Context)(nil)))
	logger.Setup(cli.AppEnv, cli.LogLevel)
	cmd.FatalIfErrorf(cmd.Run())
}
