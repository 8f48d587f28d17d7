// Package main library management API.
//
// @title           Library Management API
// @version         1.0
// @description     Library service (books, loans, fines, activity logs).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/XuanHung225/library-management/app/echoServer"
	adminctrl "github.com/XuanHung225/library-management/app/echoServer/controller/admin"
	authctrl "github.com/XuanHung225/library-management/app/echoServer/controller/auth"
	bookctrl "github.com/XuanHung225/library-management/app/echoServer/controller/book"
	finectrl "github.com/XuanHung225/library-management/app/echoServer/controller/fine"
	loanctrl "github.com/XuanHung225/library-management/app/echoServer/controller/loan"
	userctrl "github.com/XuanHung225/library-management/app/echoServer/controller/user"
	"github.com/XuanHung225/library-management/app/echoServer/validation"
	"github.com/XuanHung225/library-management/config"
	bookrepo "github.com/XuanHung225/library-management/repository/book"
	finerepo "github.com/XuanHung225/library-management/repository/fine"
	loanrepo "github.com/XuanHung225/library-management/repository/loan"
	logrepo "github.com/XuanHung225/library-management/repository/log"
	userrepo "github.com/XuanHung225/library-management/repository/user"
	authsvc "github.com/XuanHung225/library-management/service/auth"
	booksvc "github.com/XuanHung225/library-management/service/book"
	finesvc "github.com/XuanHung225/library-management/service/fine"
	loansvc "github.com/XuanHung225/library-management/service/loan"
	logsvc "github.com/XuanHung225/library-management/service/log"
	statssvc "github.com/XuanHung225/library-management/service/stats"
	usersvc "github.com/XuanHung225/library-management/service/user"
	"github.com/XuanHung225/library-management/util/database"
	"github.com/XuanHung225/library-management/util/revoke"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	// DB: *sql.DB over the pgx stdlib driver
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// token revocation store
	rev, err := revoke.Open(cfg.RevokePath)
	if err != nil {
		log.Error("revocation store open failed", "err", err, "path", cfg.RevokePath)
		os.Exit(1)
	}
	defer rev.Close()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Error("bad timezone, falling back to UTC", "tz", cfg.Timezone, "err", err)
		loc = time.UTC
	}

	// repos
	ur := userrepo.New(db)
	br := bookrepo.New(db)
	lr := loanrepo.New(db)
	fr := finerepo.New(db)
	gr := logrepo.New(db)

	// services
	as := authsvc.New(ur, cfg.JWTSecret, rev)
	bs := booksvc.New(br)
	gs := logsvc.New(gr, log)
	ls := loansvc.New(db, lr, gs, loansvc.Policy{
		FinePerDay: cfg.FinePerDay,
		LostFine:   cfg.LostFine,
		LoanLimit:  cfg.LoanLimit,
		Loc:        loc,
	})
	fs := finesvc.New(fr)
	ss := statssvc.New(gr)
	us := usersvc.New(ur, gs)

	// controllers
	val := validation.New()
	v := val.Underlying() // carries the custom date rules
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	loanC := &loanctrl.Controller{Svc: ls, V: v, Log: log, Loc: loc}
	fineC := &finectrl.Controller{Svc: fs, Log: log}
	adminC := &adminctrl.Controller{Logs: gs, Stats: ss, Log: log}
	userC := &userctrl.Controller{Svc: us, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = val

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:      authC,
		Book:      bookC,
		Loan:      loanC,
		Fine:      fineC,
		Admin:     adminC,
		User:      userC,
		Revoker:   rev,
		JWTSecret: cfg.JWTSecret,
	})

	// Optional pickup-deadline sweep: rejects approved loans never picked up.
	if cfg.PickupSweep != "" {
		cr := cron.New(cron.WithLocation(loc))
		_, err := cr.AddFunc(cfg.PickupSweep, func() {
			n, err := ls.SweepPickupDeadlines(context.Background(), 0)
			if err != nil {
				log.Error("pickup sweep failed", "err", err)
				return
			}
			if n > 0 {
				log.Info("pickup sweep done", "rejected", n)
			}
		})
		if err != nil {
			log.Error("bad sweep schedule", "cron", cfg.PickupSweep, "err", err)
			os.Exit(1)
		}
		cr.Start()
		defer cr.Stop()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
