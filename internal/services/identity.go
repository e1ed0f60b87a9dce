package services

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tastebookapp/tastebook/internal/backend"
	"github.com/tastebookapp/tastebook/internal/common"
	"github.com/tastebookapp/tastebook/internal/cryptox"
	"github.com/tastebookapp/tastebook/internal/logging"
	"github.com/tastebookapp/tastebook/internal/repositories/metadata"
)

// ProviderEmail is the built-in identifier/secret provider name.
const ProviderEmail = "email"

// Provider is one external identity source the account can be linked to.
// SignIn yields a provider token the backend exchanges for a session;
// SignOut invalidates the provider-side session and is best effort.
type Provider interface {
	Name() string
	SignIn(ctx context.Context) (string, error)
	SignOut(ctx context.Context) error
}

// Session is the locally persisted view of the signed-in account.
type Session struct {
	Account   string   `json:"account"`
	Providers []string `json:"providers"`
}

// IdentityService links the local journal to a backend account through one
// or more identity providers. Local session state is authoritative: logout
// always succeeds locally even when remote teardown fails.
type IdentityService struct {
	db        *sql.DB
	backend   backend.Client
	validate  *validator.Validate
	providers map[string]Provider
	log       logging.Logger
}

// NewIdentityService wires the identity layer. External providers are
// registered up front; the email provider is built in.
func NewIdentityService(db *sql.DB, be backend.Client, providers []Provider, log logging.Logger) *IdentityService {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &IdentityService{
		db:        db,
		backend:   be,
		validate:  validator.New(),
		providers: byName,
		log:       log,
	}
}

// emailVerifier derives the credential material sent to the backend. The
// identifier doubles as the salt so the same password yields distinct
// verifiers per account.
func emailVerifier(email, password string) []byte {
	key := cryptox.DeriveKey([]byte(password), []byte(strings.ToLower(email)))
	return cryptox.MakeVerifier(key)
}

func (s *IdentityService) checkEmailCredential(email, password string) error {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("%w: %q", common.ErrInvalidIdentifier, email)
	}
	if len(password) < 8 {
		return common.ErrWeakCredential
	}
	return nil
}

// RegisterEmail creates a backend account from an email identifier and a
// password and signs the device in. The password never leaves the device;
// only a derived verifier does.
func (s *IdentityService) RegisterEmail(ctx context.Context, email, password string) (*Session, error) {
	if err := s.checkEmailCredential(email, password); err != nil {
		return nil, err
	}

	cred, err := s.backend.SignUp(ctx, email, emailVerifier(email, password))
	if err != nil {
		return nil, err
	}
	return s.storeSession(ctx, cred, ProviderEmail)
}

// SignInEmail signs in to an existing email-linked account.
func (s *IdentityService) SignInEmail(ctx context.Context, email, password string) (*Session, error) {
	if err := s.checkEmailCredential(email, password); err != nil {
		return nil, err
	}

	token := email + ":" + hex.EncodeToString(emailVerifier(email, password))
	cred, err := s.backend.SignIn(ctx, ProviderEmail, token)
	if err != nil {
		return nil, err
	}
	return s.storeSession(ctx, cred, ProviderEmail)
}

// LinkProvider signs in through a registered external provider and links it
// to the account. Linking an already-linked provider refreshes the session
// and leaves the provider list unchanged.
func (s *IdentityService) LinkProvider(ctx context.Context, name string) (*Session, error) {
	p, ok := s.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown provider %q", common.ErrNotFound, name)
	}

	token, err := p.SignIn(ctx)
	if err != nil {
		return nil, fmt.Errorf("provider %s sign-in failed: %w", name, err)
	}

	cred, err := s.backend.SignIn(ctx, name, token)
	if err != nil {
		return nil, err
	}
	return s.storeSession(ctx, cred, name)
}

// storeSession persists the credential and the linked-provider set, and
// hands the token to the backend client for subsequent calls.
func (s *IdentityService) storeSession(ctx context.Context, cred *backend.Credential, provider string) (*Session, error) {
	repo := metadata.NewSQLiteRepository(s.db)

	session, err := s.Session(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil || session.Account != cred.AccountID {
		session = &Session{Account: cred.AccountID}
	}

	linked := false
	for _, name := range session.Providers {
		if name == provider {
			linked = true
			break
		}
	}
	if !linked {
		session.Providers = append(session.Providers, provider)
	}

	if err := repo.Set(ctx, metadata.KeySessionToken, []byte(cred.Token)); err != nil {
		return nil, err
	}
	if err := repo.Set(ctx, metadata.KeySessionAccount, []byte(session.Account)); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(session.Providers)
	if err != nil {
		return nil, err
	}
	if err := repo.Set(ctx, metadata.KeySessionProviders, raw); err != nil {
		return nil, err
	}

	s.backend.SetToken(cred.Token)
	return session, nil
}

// Session returns the locally stored session, nil when signed out.
func (s *IdentityService) Session(ctx context.Context) (*Session, error) {
	repo := metadata.NewSQLiteRepository(s.db)

	account, err := repo.Get(ctx, metadata.KeySessionAccount)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, nil
	}

	session := &Session{Account: string(account)}
	if raw, err := repo.Get(ctx, metadata.KeySessionProviders); err == nil && raw != nil {
		if err := json.Unmarshal(raw, &session.Providers); err != nil {
			s.log.Warn(ctx, "stored provider list unreadable", "error", err)
		}
	}
	return session, nil
}

// Logout signs the device out. Provider and backend teardown are best
// effort; the local session is cleared regardless, so the device always
// ends up signed out.
func (s *IdentityService) Logout(ctx context.Context) error {
	session, err := s.Session(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	for _, name := range session.Providers {
		p, ok := s.providers[name]
		if !ok {
			continue
		}
		if err := p.SignOut(ctx); err != nil {
			s.log.Warn(ctx, "provider sign-out failed", "provider", name, "error", err)
		}
	}

	repo := metadata.NewSQLiteRepository(s.db)
	if raw, err := repo.Get(ctx, metadata.KeySessionToken); err == nil && raw != nil {
		if err := s.backend.SignOut(ctx, string(raw)); err != nil {
			s.log.Warn(ctx, "backend sign-out failed", "error", err)
		}
	}

	for _, key := range []string{
		metadata.KeySessionToken,
		metadata.KeySessionAccount,
		metadata.KeySessionProviders,
	} {
		if err := repo.Delete(ctx, key); err != nil {
			return err
		}
	}

	s.backend.SetToken("")
	return nil
}
