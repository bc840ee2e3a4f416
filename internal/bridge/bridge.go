package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ghaggin/smartsplit/internal/config"
	"github.com/ghaggin/smartsplit/internal/membership"
	"github.com/ghaggin/smartsplit/internal/middleware"
	"github.com/ghaggin/smartsplit/internal/model"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Sessions is the part of the session manager the bridge drives.
type Sessions interface {
	Snapshot() model.Session
	LoggedIn() bool
	Login(ctx context.Context, creds model.Credentials) (*model.User, error)
	Register(ctx context.Context, profile model.Profile) (*model.User, error)
	Logout(ctx context.Context) error
}

type Batch interface {
	Submit(ctx context.Context, groupID int64, req *membership.Request, leftover string) (*membership.Result, error)
}

// Ledger is the remote ledger the views read and write.
type Ledger interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)

	CreateGroup(ctx context.Context, name string, creatorID int64) (*model.Group, error)
	GetGroupByID(ctx context.Context, groupID int64) (*model.Group, error)
	GetUserGroups(ctx context.Context, userID int64) ([]model.Group, error)

	AddExpense(ctx context.Context, groupID int64, payerID int64, e model.NewExpense) (*model.Expense, error)
	GetGroupExpenses(ctx context.Context, groupID int64) ([]model.Expense, error)
	GetUserExpenses(ctx context.Context, userID int64) ([]model.Expense, error)
	DeleteExpense(ctx context.Context, expenseID int64) error

	GetGroupSettlements(ctx context.Context, groupID int64) ([]model.Settlement, error)
	GetUserSettlements(ctx context.Context, userID int64) ([]model.Settlement, error)
	MarkSettlementPaid(ctx context.Context, settlementID int64) error
}

// Bridge is the local JSON server that presentation code talks to.
type Bridge struct {
	log    *zap.Logger
	server *http.Server
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Config   *config.Config
	Sessions Sessions
	Batch    Batch
	Ledger   Ledger
	View     *middleware.ViewState
}

func New(p Params) (*Bridge, error) {
	h := &handlers{
		log:      p.Log,
		sessions: p.Sessions,
		batch:    p.Batch,
		ledger:   p.Ledger,
		view:     p.View,
	}

	return &Bridge{
		log: p.Log,
		server: &http.Server{
			Addr:    fmt.Sprintf("localhost:%d", p.Config.Bridge.Port),
			Handler: h.routes(),
		},
	}, nil
}

// RegisterHooks should be invoked by fx
func RegisterHooks(lc fx.Lifecycle, b *Bridge) {
	lc.Append(fx.Hook{
		OnStart: b.Start,
		OnStop:  b.server.Shutdown,
	})
}

func (b *Bridge) Start(_ context.Context) error {
	b.log.Info("starting bridge", zap.String("addr", b.server.Addr))
	go func() {
		err := b.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.log.Error("error running bridge server", zap.Error(err))
		}
	}()
	return nil
}
