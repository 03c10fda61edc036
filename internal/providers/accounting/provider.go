// Package accounting manages users and the logged-in state of a terminal.
//
// Users and login tokens live in shared account storage, so every terminal
// sees the same users. The token of the current terminal is kept in its
// LOCAL TOKEN variable and the user name in LOCAL USER; a terminal is
// logged in when its token resolves to an unexpired token record.
package accounting

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nnoitra/terminal/internal/bus"
	"github.com/nnoitra/terminal/internal/shared/id"
	"github.com/nnoitra/terminal/internal/shared/types"
	"github.com/nnoitra/terminal/internal/shared/utils"
	"github.com/nnoitra/terminal/internal/storage"
)

// GuestUser is the user of a logged-out terminal.
const GuestUser = "guest"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrUserExists         = errors.New("user already exists")
)

// User is a stored account.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Token is a stored login.
type Token struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Config tunes a provider.
type Config struct {
	TokenTTL   time.Duration
	BcryptCost int
}

// Provider answers accounting requests for one terminal.
type Provider struct {
	bus      *bus.Bus
	accounts *storage.Client
	log      *zap.Logger
	timeout  time.Duration
	cfg      Config
	now      func() time.Time
}

// NewProvider creates an accounting provider. accounts is the shared
// account storage.
func NewProvider(b *bus.Bus, accounts *storage.Client, cfg Config, log *zap.Logger, timeout time.Duration) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Provider{
		bus:      b,
		accounts: accounts,
		log:      log.With(zap.String("provider", "accounting")),
		timeout:  timeout,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Listen registers the provider's handlers.
func (p *Provider) Listen() {
	p.bus.Listen(types.TopicLogin, "accounting.login", p.credentials(p.Login))
	p.bus.Listen(types.TopicAddUser, "accounting.adduser", p.credentials(p.AddUser))
	p.bus.Listen(types.TopicLogout, "accounting.logout", func(ctx context.Context, msg *bus.Message) {
		respond(msg, p.Logout(ctx))
	})
	p.bus.Listen(types.TopicPasswordChange, "accounting.passwd", func(ctx context.Context, msg *bus.Message) {
		req, _ := bus.PayloadAs[types.PasswordChange](msg)
		respond(msg, p.ChangePassword(ctx, req.OldPassword, req.NewPassword))
	})
	p.bus.Listen(types.TopicIsLoggedIn, "accounting.status", func(ctx context.Context, msg *bus.Message) {
		msg.Respond(p.Status(ctx))
	})
	p.bus.Listen(types.TopicVarDefault, "accounting.default", p.handleDefault)
}

// Start announces the initial login state so listeners can load user data.
func (p *Provider) Start(ctx context.Context) {
	p.bus.Publish(types.TopicUserChanged, p.Status(ctx))
}

func (p *Provider) credentials(fn func(ctx context.Context, username, password string) error) bus.Handler {
	return func(ctx context.Context, msg *bus.Message) {
		req, ok := bus.PayloadAs[types.Credentials](msg)
		if !ok {
			msg.Respond(fmt.Errorf("malformed credentials: %T", msg.Payload))
			return
		}
		respond(msg, fn(ctx, req.Username, req.Password))
	}
}

func respond(msg *bus.Message, err error) {
	if err != nil {
		msg.Respond(err)
		return
	}
	msg.Respond(struct{}{})
}

func userKey(username string) string { return "users/" + strings.ToLower(username) }
func tokenKey(token string) string   { return "tokens/" + token }

// AddUser creates an account.
func (p *Provider) AddUser(ctx context.Context, username, password string) error {
	if err := utils.ValidateUsername(username); err != nil {
		return err
	}
	if err := utils.ValidatePassword(password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	key := userKey(username)
	return p.accounts.WithLock(ctx, key, func(lockID id.LockID) error {
		_, exists, err := storage.Load[User](ctx, p.accounts, key, lockID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrUserExists, username)
		}
		p.log.Info("user created", zap.String("user", username))
		return storage.Store(ctx, p.accounts, key,
			User{Username: username, PasswordHash: string(hash), CreatedAt: p.now()}, lockID)
	})
}

// Login verifies credentials and makes username the terminal's user.
func (p *Provider) Login(ctx context.Context, username, password string) error {
	if utils.ValidateUsername(username) != nil || utils.ValidatePassword(password) != nil {
		return ErrInvalidCredentials
	}
	user, found, err := storage.Load[User](ctx, p.accounts, userKey(username), "")
	if err != nil {
		return err
	}
	if !found || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		p.log.Info("login rejected", zap.String("user", username))
		return ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return err
	}
	record := Token{Username: user.Username, ExpiresAt: p.now().Add(p.cfg.TokenTTL)}
	if err := storage.Store(ctx, p.accounts, tokenKey(token), record, ""); err != nil {
		return err
	}

	if err := p.setVar(ctx, types.VarToken, token); err != nil {
		return err
	}
	if err := p.setVar(ctx, types.VarUser, user.Username); err != nil {
		return err
	}
	p.log.Info("user logged in", zap.String("user", user.Username))
	p.bus.Publish(types.TopicUserChanged, types.UserStatus{User: user.Username, LoggedIn: true})
	return nil
}

// Logout ends the terminal's login. The token record is removed even
// when it already expired.
func (p *Provider) Logout(ctx context.Context) error {
	token := p.token(ctx)
	if token == "" {
		return ErrNotLoggedIn
	}
	if err := p.accounts.Delete(ctx, tokenKey(token), ""); err != nil {
		p.log.Warn("deleting token failed", zap.Error(err))
	}

	if _, err := p.bus.Call(ctx, types.TopicVarDelete,
		types.VarRequest{Key: types.VarToken, Category: types.CategoryLocal}, p.timeout); err != nil {
		return err
	}
	if err := p.setVar(ctx, types.VarUser, GuestUser); err != nil {
		return err
	}
	p.log.Info("user logged out")
	p.bus.Publish(types.TopicUserChanged, types.UserStatus{User: GuestUser})
	return nil
}

// ChangePassword replaces the current user's password.
func (p *Provider) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	status := p.Status(ctx)
	if !status.LoggedIn {
		return ErrNotLoggedIn
	}
	if err := utils.ValidatePassword(newPassword); err != nil {
		return err
	}

	key := userKey(status.User)
	return p.accounts.WithLock(ctx, key, func(lockID id.LockID) error {
		user, found, err := storage.Load[User](ctx, p.accounts, key, lockID)
		if err != nil {
			return err
		}
		if !found || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
			return ErrIncorrectPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), p.cfg.BcryptCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		user.PasswordHash = string(hash)
		p.log.Info("password changed", zap.String("user", user.Username))
		return storage.Store(ctx, p.accounts, key, user, lockID)
	})
}

// Status reports the terminal's user. Any failure reads as logged out.
func (p *Provider) Status(ctx context.Context) types.UserStatus {
	guest := types.UserStatus{User: GuestUser}

	token := p.token(ctx)
	if token == "" {
		return guest
	}
	record, found, err := storage.Load[Token](ctx, p.accounts, tokenKey(token), "")
	if err != nil || !found || p.now().After(record.ExpiresAt) {
		return guest
	}
	return types.UserStatus{User: record.Username, LoggedIn: true}
}

func (p *Provider) token(ctx context.Context) string {
	resp, err := bus.CallAs[types.VarResponse](ctx, p.bus, types.TopicVarGet,
		types.VarRequest{Key: types.VarToken, Category: types.CategoryLocal}, p.timeout)
	if err != nil {
		p.log.Debug("reading token failed", zap.Error(err))
		return ""
	}
	return resp.Value
}

func (p *Provider) setVar(ctx context.Context, key, value string) error {
	_, err := p.bus.Call(ctx, types.TopicVarSet,
		types.VarRequest{Key: key, Value: value, Category: types.CategoryLocal}, p.timeout)
	return err
}

func (p *Provider) handleDefault(ctx context.Context, msg *bus.Message) {
	req, _ := bus.PayloadAs[types.VarRequest](msg)
	switch strings.ToUpper(req.Key) {
	case types.VarUser:
		msg.Respond(types.VarResponse{Value: GuestUser, Found: true})
	case types.VarToken:
		msg.Respond(types.VarResponse{Value: "", Found: true})
	case types.VarHome:
		msg.Respond(types.VarResponse{Value: "/home/" + p.Status(ctx).User, Found: true})
	}
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
