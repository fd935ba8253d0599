package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var ErrEmailTaken = errors.New("auth: email already registered")

const maxBcryptInput = 72

type account struct {
	user         User
	passwordHash []byte
}

// Directory is the in-memory user directory consulted by login and signup.
// Email lookup is exact.
type Directory struct {
	mu       sync.RWMutex
	accounts []account
	cost     int
}

// NewDirectory returns an empty directory hashing passwords at cost.
// A cost outside bcrypt's range falls back to bcrypt.DefaultCost.
func NewDirectory(cost int) *Directory {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Directory{cost: cost}
}

// FindByEmail returns a copy of the user registered under email.
func (d *Directory) FindByEmail(email string) (User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i := d.index(email); i >= 0 {
		return d.accounts[i].user, true
	}
	return User{}, false
}

func (d *Directory) passwordHash(email string) ([]byte, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i := d.index(email); i >= 0 {
		return d.accounts[i].passwordHash, true
	}
	return nil, false
}

// Add registers u with password. It fails with ErrEmailTaken and leaves the
// directory unchanged when the email exists.
func (d *Directory) Add(u User, password string) error {
	hash, err := bcrypt.GenerateFromPassword(bcryptInput(password), d.cost)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.index(u.Email) >= 0 {
		return ErrEmailTaken
	}
	d.accounts = append(d.accounts, account{user: u, passwordHash: hash})
	return nil
}

// bcryptInput maps password onto bcrypt's 72-byte input limit. Longer
// passwords are replaced by their hex SHA-256 digest so every byte counts.
func bcryptInput(password string) []byte {
	if len(password) <= maxBcryptInput {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.accounts)
}

func (d *Directory) index(email string) int {
	for i, a := range d.accounts {
		if a.user.Email == email {
			return i
		}
	}
	return -1
}

// SeedDemo registers the demo customers, all with password.
func SeedDemo(d *Directory, password string) error {
	demo := []User{
		{
			ID:        "user-1",
			Email:     "sarah@example.com",
			FirstName: "Sarah",
			LastName:  "Johnson",
			JoinDate:  "2023-03-15",
			IsInsider: true,
			Orders: []Order{
				{
					ID:     "ORD-1001",
					Date:   "2024-01-12",
					Total:  31.97,
					Status: StatusDelivered,
					Items: []OrderItem{
						{ProductID: "gentle-foaming-cleanser", ProductName: "Gentle Foaming Cleanser", Quantity: 2, Price: 7.99},
						{ProductID: "niacinamide-10-serum", ProductName: "Niacinamide 10% Serum", Quantity: 1, Price: 15.99},
					},
				},
				{
					ID:     "ORD-1042",
					Date:   "2024-02-20",
					Total:  19.99,
					Status: StatusShipped,
					Items: []OrderItem{
						{ProductID: "daily-mineral-sunscreen-spf50", ProductName: "Daily Mineral Sunscreen SPF 50", Quantity: 1, Price: 19.99},
					},
				},
			},
		},
		{
			ID:        "user-2",
			Email:     "mike@example.com",
			FirstName: "Mike",
			LastName:  "Chen",
			JoinDate:  "2023-08-02",
			IsInsider: false,
			Orders: []Order{
				{
					ID:     "ORD-1077",
					Date:   "2024-03-05",
					Total:  18.99,
					Status: StatusProcessing,
					Items: []OrderItem{
						{ProductID: "barrier-repair-moisturizer", ProductName: "Barrier Repair Moisturizer", Quantity: 1, Price: 18.99},
					},
				},
			},
		},
	}
	for _, u := range demo {
		if err := d.Add(u, password); err != nil && !errors.Is(err, ErrEmailTaken) {
			return err
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// emailDomain is the part of email after the last @, for logs that must
// not carry the address itself.
func emailDomain(email string) string {
	if i := strings.LastIndexByte(email, '@'); i >= 0 {
		return email[i+1:]
	}
	return ""
}
