package main

import (
	"context"
	_ "time/tzdata"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"salonbook/internal/database"
	"salonbook/internal/domain/admin"
	"salonbook/internal/domain/catalog"
	"salonbook/internal/domain/security"
	"salonbook/internal/pkg/clock"
	"salonbook/internal/pkg/logger"
	"salonbook/internal/schema"
)

var (
	version = "dev"
	cli     struct {
		AppEnv   string `help:"Runtime environment." default:"dev" env:"APP_ENV"`
		LogLevel string `help:"Log level." default:"info" env:"LOG_LEVEL"`
		Version  kong.VersionFlag

		Seed SeedCmd `cmd:"" default:"1" help:"Migrate the schema, seed the service menu and upsert the admin user."`
	}
)

type SeedCmd struct {
	DatabaseURL   string `help:"Database DSN (postgres:// or a SQLite path)." default:"salon.db" env:"DATABASE_URL"`
	AdminUsername string `help:"Admin login name." default:"admin" env:"ADMIN_USERNAME"`
	AdminPassword string `help:"Admin password." required:"" env:"ADMIN_PASSWORD"`
	BcryptCost    int    `help:"bcrypt cost for the admin password." default:"12" env:"BCRYPT_COST"`
	SkipServices  bool   `help:"Do not touch the service menu." default:"false"`
}

func (s *SeedCmd) Run(ctx context.Context) error {
	db, err := database.Connect(s.DatabaseURL)
	if err != nil {
		return err
	}
	if err := schema.Migrate(db); err != nil {
		return err
	}

	if !s.SkipServices {
		n, err := catalog.NewRepository(db).Upsert(ctx, catalog.DefaultServices())
		if err != nil {
			return err
		}
		log.Info().Int("services", n).Msg("service menu seeded")
	}

	clk := clock.System()
	svc := admin.NewService(admin.NewAdminRepository(db), nil, security.NewLog(db, clk), nil, clk, admin.LoginPolicy{})
	user, created, err := svc.EnsureAdmin(ctx, s.AdminUsername, s.AdminPassword, s.BcryptCost)
	if err != nil {
		return err
	}
	log.Info().Int64("id", user.ID).Str("username", user.Username).Bool("created", created).Msg("admin user ready")

	return nil
}

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Description("Seed the salon booking database."),
		kong.Vars{"version": version},
		kong.BindTo(ctx, (*context.Context)(nil)))
	logger.Setup(cli.AppEnv, cli.LogLevel)
	cmd.FatalIfErrorf(cmd.Run())
}
