// modguard-engine ingests chat events, runs the detection pipeline and
// serves the query api over its in-memory state
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"modguard/internal/platform/clock"
	"modguard/internal/platform/config"
	"modguard/internal/platform/logger"
	phttp "modguard/internal/platform/net/http"
	"modguard/internal/platform/net/middleware"
	"modguard/internal/platform/store"

	"modguard/internal/adapters/discord"
	"modguard/internal/adapters/replay"
	apihttp "modguard/internal/services/api/http"
	detdom "modguard/internal/services/detections/domain"
	detrepo "modguard/internal/services/detections/repo"
	detsvc "modguard/internal/services/detections/service"
	dispatchsvc "modguard/internal/services/dispatch/service"
	engdom "modguard/internal/services/engine/domain"
	engsvc "modguard/internal/services/engine/service"
	setdom "modguard/internal/services/settings/domain"
	setrepo "modguard/internal/services/settings/repo"
	setsvc "modguard/internal/services/settings/service"
)

func main() {
	root := config.New()
	engCfg := root.Prefix("ENGINE_")
	pgCfg := root.Prefix("PGSQL_")
	chCfg := root.Prefix("CLICKHOUSE_")
	dcCfg := root.Prefix("DISCORD_")

	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		AppName: "modguard-engine",
		PG: store.PGConfig{
			Enabled:  pgCfg.MayBool("ENABLED", false),
			URL:      pgCfg.MayString("DBURL", ""),
			MaxConns: int32(pgCfg.MayInt("MAX_CONNS", 4)),
		},
		CH: store.CHConfig{
			Enabled: chCfg.MayBool("ENABLED", false),
			Addr:    chCfg.MayString("ADDR", ""),
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

	var setStore setdom.StorePort
	if st.PG != nil {
		setStore = setrepo.NewPG(st.PG)
	}
	settings := setsvc.New(setStore)
	settings.Start(ctx)

	clk := clock.New()
	var archive detdom.ArchivePort
	if st.CH != nil {
		archive = detrepo.NewCH(st.CH)
	}
	detections := detsvc.New(clk, archive)

	var (
		source   engdom.SourcePort
		alert    engdom.AlertPort
		dispatch *dispatchsvc.Svc
	)
	switch mode := engCfg.MayString("SOURCE", "discord"); mode {
	case "stdin":
		source = replay.New(os.Stdin)
		dispatch = dispatchsvc.New(nil)
		l.Info().Msg("replaying events from stdin, actions disabled")
	case "discord":
		dc, err := discord.New(discord.Config{
			Token:          dcCfg.MustString("TOKEN"),
			AlertChannelID: dcCfg.MayString("ALERT_CHANNEL", ""),
		})
		if err != nil {
			l.Panic().Err(err).Msg("discord client")
		}
		source = dc
		alert = dc
		dispatch = dispatchsvc.New(dc)
	default:
		l.Panic().Str("source", mode).Msg("unknown event source")
	}

	engine := engsvc.New(engsvc.Deps{
		Settings: settings,
		Log:      detections,
		Dispatch: dispatch,
		Source:   source,
		Alert:    alert,
		Clock:    clk,
	})

	srv := phttp.NewServer(engCfg)
	r := srv.Router()
	r.Use(middleware.Defaults()...)
	apihttp.Mount(r, apihttp.Deps{
		Detections: apihttp.MemoryDetections{Log: detections},
		Settings:   settings,
		Health:     engine,
	})

	errc := make(chan error, 2)
	go func() { errc <- srv.Run(ctx) }()
	go func() { errc <- engine.Run(ctx) }()

	err = <-errc
	stop()
	if err != nil && err != context.Canceled {
		l.Error().Err(err).Msg("engine stopped")
		os.Exit(1)
	}
	l.Info().Msg("engine shut down")
}
