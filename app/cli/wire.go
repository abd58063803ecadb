package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/hgarciaospina/library-management/app/echoServer"
	bookctrl "github.com/hgarciaospina/library-management/app/echoServer/controller/book"
	libraryctrl "github.com/hgarciaospina/library-management/app/echoServer/controller/library"
	loanctrl "github.com/hgarciaospina/library-management/app/echoServer/controller/loan"
	memberctrl "github.com/hgarciaospina/library-management/app/echoServer/controller/member"
	"github.com/hgarciaospina/library-management/config"
	"github.com/hgarciaospina/library-management/repository"
	"github.com/hgarciaospina/library-management/repository/memory"
	"github.com/hgarciaospina/library-management/repository/postgres"
	booksvc "github.com/hgarciaospina/library-management/service/book"
	librarysvc "github.com/hgarciaospina/library-management/service/library"
	"github.com/hgarciaospina/library-management/service/listing"
	loansvc "github.com/hgarciaospina/library-management/service/loan"
	membersvc "github.com/hgarciaospina/library-management/service/member"
	"github.com/hgarciaospina/library-management/util/database"
	"github.com/hgarciaospina/library-management/util/validation"
)

func openPostgres(ctx context.Context, cfg config.App, log *slog.Logger) (*postgres.Store, error) {
	db, err := database.New(ctx, cfg.DatabaseURL, database.Options{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	return postgres.New(db, postgres.WithLogger(log)), nil
}

func openStore(ctx context.Context, cfg config.App, log *slog.Logger, migrate bool) (repository.Store, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("using in-memory storage; data is lost on exit")
		return memory.New(), nil
	}
	s, err := openPostgres(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func buildHTTP(store repository.Store, cfg config.App, log *slog.Logger, tel *telemetry) *echo.Echo {
	v := validation.New()

	loanOpts := append([]loansvc.Option{loansvc.WithLogger(log), loansvc.WithValidator(v)}, tel.loanOptions()...)
	loans := loansvc.New(store, loanOpts...)
	lists := listing.New(store, tel.listingOptions()...)
	libraries := librarysvc.New(store, v)
	books := booksvc.New(store, v)
	members := membersvc.New(store, v, nil)

	e := echoServer.New(echoServer.C{
		Loan:      &loanctrl.Controller{Svc: loans, Listing: lists, Log: log},
		Library:   &libraryctrl.Controller{Svc: libraries, Log: log},
		Book:      &bookctrl.Controller{Svc: books, Log: log},
		Member:    &memberctrl.Controller{Svc: members, Log: log},
		Store:     store,
		Log:       log,
		JWTSecret: cfg.JWTSecret,
	})
	echoServer.RegisterMiddlewares(e, log, cfg.RequestTimeout)
	return e
}
