package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"foodcourt/app-svc/internal/domain"
	"foodcourt/app-svc/internal/service"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// Account is the credential record behind an identity.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
}

type AccountStore interface {
	// InsertAccount fails with domain.ErrEmailTaken for a duplicate email.
	InsertAccount(ctx context.Context, account Account) error
	FindAccountByEmail(ctx context.Context, email string) (*Account, error)
}

// PasswordIdentityProvider authenticates email/password accounts and
// broadcasts the current credential to every watcher.
type PasswordIdentityProvider struct {
	accounts AccountStore
	cost     int
	newID    func() string

	mu       sync.Mutex
	current  *domain.Credential
	watchers map[int]chan *domain.Credential
	nextID   int
}

func NewPasswordIdentityProvider(accounts AccountStore) *PasswordIdentityProvider {
	return &PasswordIdentityProvider{
		accounts: accounts,
		cost:     bcrypt.DefaultCost,
		newID:    uuid.NewString,
		watchers: make(map[int]chan *domain.Credential),
	}
}

// WithCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (p *PasswordIdentityProvider) WithCost(cost int) *PasswordIdentityProvider {
	p.cost = cost
	return p
}

func (p *PasswordIdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (*domain.Credential, error) {
	account, err := p.accounts.FindAccountByEmail(ctx, strings.ToLower(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	cred := &domain.Credential{ID: account.ID, Email: account.Email}
	p.setCurrent(cred)
	return cred, nil
}

func (p *PasswordIdentityProvider) CreateAccount(ctx context.Context, email, password string) (*domain.Credential, error) {
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password should be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := Account{ID: p.newID(), Email: strings.ToLower(email), PasswordHash: string(hash)}
	if err := p.accounts.InsertAccount(ctx, account); err != nil {
		return nil, err
	}

	cred := &domain.Credential{ID: account.ID, Email: account.Email}
	p.setCurrent(cred)
	return cred, nil
}

func (p *PasswordIdentityProvider) SignOut(ctx context.Context) error {
	p.setCurrent(nil)
	return nil
}

func (p *PasswordIdentityProvider) CurrentIdentityChanges(ctx context.Context) <-chan *domain.Credential {
	ch := make(chan *domain.Credential, 1)

	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.watchers[id] = ch
	ch <- copyCredential(p.current)
	p.mu.Unlock()

	context.AfterFunc(ctx, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.watchers, id)
		close(ch)
	})
	return ch
}

// setCurrent replaces any undelivered value so slow watchers only see the latest.
func (p *PasswordIdentityProvider) setCurrent(cred *domain.Credential) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = copyCredential(cred)
	for _, ch := range p.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- copyCredential(cred)
	}
}

func copyCredential(cred *domain.Credential) *domain.Credential {
	if cred == nil {
		return nil
	}
	c := *cred
	return &c
}

var _ service.IdentityProvider = (*PasswordIdentityProvider)(nil)
