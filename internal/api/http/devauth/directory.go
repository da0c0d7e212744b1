package devauth

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/electrobill-session/internal/model"
)

// Seed describes one account loaded into a Directory.
type Seed struct {
	ID          string   `json:"id,omitempty"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Username    string   `json:"username,omitempty"`
	FirstName   string   `json:"firstName,omitempty"`
	LastName    string   `json:"lastName,omitempty"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// DefaultSeeds is the account set used when no users file is configured.
var DefaultSeeds = []Seed{
	{
		Email:     "admin@electrobill.local",
		Password:  "admin",
		Username:  "admin",
		FirstName: "Store",
		LastName:  "Admin",
		Role:      "ADMIN",
		Permissions: []string{
			"USERS_READ", "USERS_CREATE", "USERS_UPDATE", "USERS_DELETE",
			"CUSTOMERS_READ", "CUSTOMERS_CREATE", "CUSTOMERS_UPDATE",
			"PRODUCTS_READ", "PRODUCTS_CREATE", "PRODUCTS_UPDATE",
			"INVOICES_READ", "INVOICES_CREATE",
			"PAYMENTS_READ", "PAYMENTS_CREATE",
		},
	},
	{
		Email:       "cashier@electrobill.local",
		Password:    "cashier",
		Username:    "cashier",
		Role:        "CASHIER",
		Permissions: []string{"CUSTOMERS_READ", "INVOICES_READ", "INVOICES_CREATE", "PAYMENTS_CREATE"},
	},
}

type account struct {
	user model.User
	hash []byte
}

// Directory holds accounts keyed by lower-cased email.
type Directory struct {
	cost int

	mu       sync.RWMutex
	accounts map[string]account
	emails   map[string]string // user id -> account key
	// dummy is compared against for unknown emails so both paths cost a hash.
	dummy []byte
}

// NewDirectory creates an empty Directory hashing passwords at cost.
func NewDirectory(cost int) (*Directory, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare directory: %w", err)
	}
	return &Directory{
		cost:     cost,
		accounts: make(map[string]account),
		emails:   make(map[string]string),
		dummy:    dummy,
	}, nil
}

// Add hashes the seed password and stores the account. A seed without an ID
// gets a random one. The stored user is returned.
func (d *Directory) Add(s Seed) (model.User, error) {
	email := normalizeEmail(s.Email)
	if email == "" || s.Password == "" {
		return model.User{}, fmt.Errorf("account needs an email and a password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), d.cost)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	id := s.ID
	if id == "" {
		id = uuid.NewString()
	}
	user := model.User{
		ID:          id,
		Email:       strings.TrimSpace(s.Email),
		Username:    s.Username,
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		Role:        s.Role,
		Permissions: append([]string{}, s.Permissions...),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.accounts[email]; ok {
		return model.User{}, fmt.Errorf("account %s already exists", email)
	}
	if _, ok := d.emails[id]; ok {
		return model.User{}, fmt.Errorf("account id %s already exists", id)
	}
	d.accounts[email] = account{user: user, hash: hash}
	d.emails[id] = email

	return user.Clone(), nil
}

// Verify returns the user when password matches, ErrInvalidCredentials
// otherwise.
func (d *Directory) Verify(email, password string) (model.User, error) {
	d.mu.RLock()
	acc, ok := d.accounts[normalizeEmail(email)]
	d.mu.RUnlock()

	if !ok {
		_ = bcrypt.CompareHashAndPassword(d.dummy, []byte(password))
		return model.User{}, model.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return model.User{}, model.ErrInvalidCredentials
	}
	return acc.user.Clone(), nil
}

// Lookup returns the user with the given id.
func (d *Directory) Lookup(id string) (model.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	email, ok := d.emails[id]
	if !ok {
		return model.User{}, false
	}
	return d.accounts[email].user.Clone(), true
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.accounts)
}

// LoadSeeds reads a JSON array of seeds from path.
func LoadSeeds(path string) ([]Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}
	var seeds []Seed
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return nil, fmt.Errorf("failed to decode users file: %w", err)
	}
	return seeds, nil
}

// Populate adds every seed to d.
func (d *Directory) Populate(seeds []Seed) error {
	for _, s := range seeds {
		if _, err := d.Add(s); err != nil {
			return err
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
