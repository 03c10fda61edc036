// Package capability gives commands least-privilege access to services.
//
// A command declares the capability names it needs. The Provider binds
// exactly those names to functions that talk to the owning services over
// the bus; every other field of the Set stays nil.
package capability

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/nnoitra/terminal/internal/bus"
	"github.com/nnoitra/terminal/internal/shared/types"
)

// Name identifies one capability.
type Name string

const (
	GetAllCategorizedVariables Name = "getAllCategorizedVariables"
	GetCommandList             Name = "getCommandList"
	GetCommandMeta             Name = "getCommandMeta"
	GetHistory                 Name = "getHistory"
	ClearScreen                Name = "clearScreen"
	Prompt                     Name = "prompt"
	AddUser                    Name = "addUser"
	Login                      Name = "login"
	Logout                     Name = "logout"
	ChangePassword             Name = "changePassword"
	GetAliases                 Name = "getAliases"
	SetAliases                 Name = "setAliases"
	ExportVariable             Name = "exportVariable"
	DeleteUserspaceVariable    Name = "deleteUserspaceVariable"
	CurrentUser                Name = "currentUser"
)

var known = []Name{
	GetAllCategorizedVariables, GetCommandList, GetCommandMeta, GetHistory,
	ClearScreen, Prompt, AddUser, Login, Logout, ChangePassword,
	GetAliases, SetAliases, ExportVariable, DeleteUserspaceVariable, CurrentUser,
}

// Known reports whether n is a capability the Provider can bind.
func Known(n Name) bool {
	return slices.Contains(known, n)
}

// Set holds the bound capabilities of one command instance. Fields the
// command did not request are nil.
type Set struct {
	GetAllCategorizedVariables func(ctx context.Context) (types.CategorizedVars, error)
	GetCommandList             func(ctx context.Context) ([]string, error)
	GetCommandMeta             func(ctx context.Context, name, key string) (string, bool, error)
	GetHistory                 func(ctx context.Context) ([]string, error)
	ClearScreen                func()
	Prompt                     func(ctx context.Context, req types.InputRequest) (string, error)
	AddUser                    func(ctx context.Context, username, password string) error
	Login                      func(ctx context.Context, username, password string) error
	Logout                     func(ctx context.Context) error
	ChangePassword             func(ctx context.Context, oldPassword, newPassword string) error
	GetAliases                 func(ctx context.Context) (map[string]string, error)
	SetAliases                 func(aliases map[string]string)
	ExportVariable             func(key, value string)
	DeleteUserspaceVariable    func(key string)
	CurrentUser                func(ctx context.Context) (types.UserStatus, error)
}

// Provider binds capability names to bus-backed functions.
type Provider struct {
	bus     *bus.Bus
	log     *zap.Logger
	timeout time.Duration
}

// NewProvider creates a provider. timeout bounds every bus request except
// Prompt, which waits for the user.
func NewProvider(b *bus.Bus, log *zap.Logger, timeout time.Duration) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{bus: b, log: log, timeout: timeout}
}

// Bind returns a Set with only the requested capabilities. Unknown names
// are logged and skipped.
func (p *Provider) Bind(command string, names []Name) Set {
	var s Set
	for _, n := range names {
		if !p.bind(&s, n) {
			p.log.Warn("unknown capability requested",
				zap.String("command", command),
				zap.String("capability", string(n)))
		}
	}
	return s
}

func (p *Provider) bind(s *Set, n Name) bool {
	switch n {
	case GetAllCategorizedVariables:
		s.GetAllCategorizedVariables = func(ctx context.Context) (types.CategorizedVars, error) {
			return bus.CallAs[types.CategorizedVars](ctx, p.bus, types.TopicGetAllCategorizedVar, nil, p.timeout)
		}
	case GetCommandList:
		s.GetCommandList = func(ctx context.Context) ([]string, error) {
			resp, err := bus.CallAs[types.CommandListResponse](ctx, p.bus, types.TopicGetCommandList, nil, p.timeout)
			return resp.Commands, err
		}
	case GetCommandMeta:
		s.GetCommandMeta = func(ctx context.Context, name, key string) (string, bool, error) {
			resp, err := bus.CallAs[types.CommandMetaResponse](ctx, p.bus, types.TopicGetCommandMeta,
				types.CommandMetaRequest{Name: name, Key: key}, p.timeout)
			return resp.Value, resp.Found, err
		}
	case GetHistory:
		s.GetHistory = func(ctx context.Context) ([]string, error) {
			resp, err := bus.CallAs[types.HistoryEntries](ctx, p.bus, types.TopicHistoryGetAll, nil, p.timeout)
			return resp.Entries, err
		}
	case ClearScreen:
		s.ClearScreen = func() {
			p.bus.Publish(types.TopicClearScreen, nil)
		}
	case Prompt:
		s.Prompt = func(ctx context.Context, req types.InputRequest) (string, error) {
			resp, err := bus.CallAs[types.InputResponse](ctx, p.bus, types.TopicInputRequest, req, 0)
			return resp.Value, err
		}
	case AddUser:
		s.AddUser = p.credentials(types.TopicAddUser)
	case Login:
		s.Login = p.credentials(types.TopicLogin)
	case Logout:
		s.Logout = func(ctx context.Context) error {
			_, err := p.bus.Call(ctx, types.TopicLogout, nil, p.timeout)
			return err
		}
	case ChangePassword:
		s.ChangePassword = func(ctx context.Context, oldPassword, newPassword string) error {
			_, err := p.bus.Call(ctx, types.TopicPasswordChange,
				types.PasswordChange{OldPassword: oldPassword, NewPassword: newPassword}, p.timeout)
			return err
		}
	case GetAliases:
		s.GetAliases = func(ctx context.Context) (map[string]string, error) {
			resp, err := bus.CallAs[types.AliasesResponse](ctx, p.bus, types.TopicGetAliases, nil, p.timeout)
			return resp.Aliases, err
		}
	case SetAliases:
		s.SetAliases = func(aliases map[string]string) {
			p.bus.Publish(types.TopicSetAliases, types.SetAliases{Aliases: aliases})
		}
	case ExportVariable:
		s.ExportVariable = func(key, value string) {
			p.bus.Publish(types.TopicVarSet, types.VarRequest{Key: key, Value: value, Category: types.CategoryUserspace})
		}
	case DeleteUserspaceVariable:
		s.DeleteUserspaceVariable = func(key string) {
			p.bus.Publish(types.TopicVarDelete, types.VarRequest{Key: key, Category: types.CategoryUserspace})
		}
	case CurrentUser:
		s.CurrentUser = func(ctx context.Context) (types.UserStatus, error) {
			return bus.CallAs[types.UserStatus](ctx, p.bus, types.TopicIsLoggedIn, nil, p.timeout)
		}
	default:
		return false
	}
	return true
}

func (p *Provider) credentials(topic string) func(ctx context.Context, username, password string) error {
	return func(ctx context.Context, username, password string) error {
		_, err := p.bus.Call(ctx, topic, types.Credentials{Username: username, Password: password}, p.timeout)
		return err
	}
}
