// modguard-api serves the archive-backed read/write api: detections and
// statistics from clickhouse, settings from postgres
package main

import (
	"context"
	"os/signal"
	"syscall"

	"modguard/internal/platform/config"
	"modguard/internal/platform/logger"
	phttp "modguard/internal/platform/net/http"
	"modguard/internal/platform/net/middleware"
	"modguard/internal/platform/store"

	apihttp "modguard/internal/services/api/http"
	detrepo "modguard/internal/services/detections/repo"
	setrepo "modguard/internal/services/settings/repo"
	setsvc "modguard/internal/services/settings/service"
)

func main() {
	root := config.New()
	apiCfg := root.Prefix("API_")
	pgCfg := root.Prefix("PGSQL_")
	chCfg := root.Prefix("CLICKHOUSE_")

	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		AppName: "modguard-api",
		PG: store.PGConfig{
			Enabled:  true,
			URL:      pgCfg.MustString("DBURL"),
			MaxConns: int32(pgCfg.MayInt("MAX_CONNS", 4)),
		},
		CH: store.CHConfig{
			Enabled: true,
			Addr:    chCfg.MustString("ADDR"),
			DB:      chCfg.MayString("DB", "modguard"),
			User:    chCfg.MayString("USER", "default"),
			Pass:    chCfg.MayString("PASS", ""),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("store close")
		}
	}()
	if err := st.Guard(ctx); err != nil {
		l.Warn().Err(err).Msg("store ping failed, continuing degraded")
	}

	settings := setsvc.New(setrepo.NewPG(st.PG))
	settings.Start(ctx)

	srv := phttp.NewServer(apiCfg)
	r := srv.Router()
	r.Use(middleware.Defaults()...)
	if origins := apiCfg.MayCSV("CORS_ORIGINS", nil); len(origins) > 0 {
		r.Use(middleware.CORS(middleware.CORSOptions{AllowedOrigins: origins}))
	}
	apihttp.Mount(r, apihttp.Deps{
		Detections: detrepo.NewCH(st.CH),
		Settings:   settings,
	})

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
