package backendfake

import (
	"golang.org/x/crypto/bcrypt"
)

// Role separates the two principal kinds the backend knows about.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Account is a registered principal.
type Account struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone,omitempty"`
	Role         Role    `json:"role"`
	Balance      float64 `json:"balance"`
	Verified     bool    `json:"verified"`
	PasswordHash string  `json:"-"`
}

// Public is the profile returned on login.
func (a Account) Public() map[string]any {
	profile := map[string]any{
		"id":    a.ID,
		"name":  a.Name,
		"email": a.Email,
		"role":  string(a.Role),
	}
	if a.Phone != "" {
		profile["phone"] = a.Phone
	}
	return profile
}

// Transaction is one wallet movement.
type Transaction struct {
	ID         int64   `json:"id"`
	UserID     int64   `json:"user_id"`
	Kind       string  `json:"kind"`
	Receipt    string  `json:"receipt"`
	Reference  string  `json:"reference"`
	Operator   string  `json:"operator,omitempty"`
	Amount     float64 `json:"amount"`
	Commission float64 `json:"commission"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"created_at"`
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
