package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	internalApp "github.com/felixgeelhaar/studio/internal/app"
	coachApp "github.com/felixgeelhaar/studio/internal/coaches/application"
	memberApp "github.com/felixgeelhaar/studio/internal/members/application"
	planApp "github.com/felixgeelhaar/studio/internal/plans/application"
	sharedApplication "github.com/felixgeelhaar/studio/internal/shared/application"
)

// ErrNoApp is returned by commands that need the database when the
// container could not be built.
var ErrNoApp = errors.New("this command requires a database connection; check DATABASE_URL or SQLITE_PATH")

// App holds the CLI application dependencies.
type App struct {
	Members *memberApp.Service
	Coaches *coachApp.Service
	Plans   *planApp.Service

	Container *internalApp.Container
}

// NewApp creates a CLI application backed by the container.
func NewApp(container *internalApp.Container) *App {
	return &App{
		Members:   container.Members,
		Coaches:   container.Coaches,
		Plans:     container.Plans,
		Container: container,
	}
}

// InTransaction runs fn as one unit of work.
func (a *App) InTransaction(ctx context.Context, fn sharedApplication.UnitOfWorkFunc) error {
	return a.Container.InTransaction(ctx, fn)
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// RequireApp returns the application or ErrNoApp.
func RequireApp() (*App, error) {
	if app == nil {
		return nil, ErrNoApp
	}
	return app, nil
}

// ParseID parses a positive numeric identifier argument.
func ParseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}
