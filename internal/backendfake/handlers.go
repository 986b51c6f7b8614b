package backendfake

import (
	"math"
	"net/http"
	"sort"
	"strings"
)

// LoginHandler verifies email and password for role and issues a login key.
func (b *Backend) LoginHandler(role Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields := fieldsFrom(r)
		email := strings.ToLower(stringField(fields, "email"))
		password := stringField(fields, "password")
		if email == "" || password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		b.mu.Lock()
		account, ok := b.accounts[b.byEmail[email]]
		b.mu.Unlock()
		// A wrong role is reported like a wrong password.
		if !ok || account.Role != role || !checkPasswordHash(password, account.PasswordHash) {
			writeError(w, http.StatusBadRequest, "Invalid email or password")
			return
		}

		key, err := b.issueKey(account)
		if err != nil {
			b.logger.Error().Err(err).Msg("issuing login key")
			writeError(w, http.StatusInternalServerError, "could not create session")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"login_key": key,
			"user_id":   account.ID,
			"user":      account.Public(),
		})
	}
}

func (b *Backend) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields := fieldsFrom(r)
		name := stringField(fields, "name")
		email := stringField(fields, "email")
		phone := stringField(fields, "phone")
		password := stringField(fields, "password")
		if name == "" || email == "" || len(password) < 6 {
			writeError(w, http.StatusBadRequest, "name, email and a password of at least 6 characters are required")
			return
		}

		account, err := b.AddAccount(RoleCustomer, name, email, phone, password, 0)
		if err != nil {
			writeError(w, http.StatusConflict, "An account with this email already exists")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"message": "Registered", "user_id": account.ID})
	}
}

func (b *Backend) SendOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phone := stringField(fieldsFrom(r), "phone")
		if phone == "" {
			writeError(w, http.StatusBadRequest, "phone is required")
			return
		}
		b.mu.Lock()
		b.otps[phone] = FixedOTP
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"message": "OTP sent"})
	}
}

func (b *Backend) VerifyOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields := fieldsFrom(r)
		phone := stringField(fields, "phone")
		otp := stringField(fields, "otp")

		b.mu.Lock()
		expected, ok := b.otps[phone]
		if ok && expected == otp {
			delete(b.otps, phone)
			for id, account := range b.accounts {
				if account.Phone == phone {
					account.Verified = true
					b.accounts[id] = account
				}
			}
		}
		b.mu.Unlock()

		if !ok || expected != otp {
			writeError(w, http.StatusBadRequest, "Invalid OTP")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "OTP verified", "verified": true})
	}
}

// ForgotPasswordHandler always answers the same way so it cannot be used to probe accounts.
func (b *Backend) ForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := strings.ToLower(stringField(fieldsFrom(r), "email"))
		if email == "" {
			writeError(w, http.StatusBadRequest, "email is required")
			return
		}
		b.mu.Lock()
		b.otps[email] = FixedOTP
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"message": "If the account exists, a reset code has been sent"})
	}
}

func (b *Backend) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields := fieldsFrom(r)
		email := strings.ToLower(stringField(fields, "email"))
		otp := stringField(fields, "otp")
		password := stringField(fields, "password")
		if len(password) < 6 {
			writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
			return
		}

		hash, err := hashPassword(password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not reset password")
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		id, exists := b.byEmail[email]
		if expected, ok := b.otps[email]; !ok || expected != otp || !exists {
			writeError(w, http.StatusBadRequest, "Invalid reset code")
			return
		}
		delete(b.otps, email)
		account := b.accounts[id]
		account.PasswordHash = hash
		b.accounts[id] = account
		writeJSON(w, http.StatusOK, map[string]any{"message": "Password updated"})
	}
}

// LogoutHandler revokes the presented login key.
func (b *Backend) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.revoke(stringField(fieldsFrom(r), "login_key"))
		writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
	}
}

func (b *Backend) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"user": accountFrom(r).Public()})
	}
}

func (b *Backend) BalanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"balance": accountFrom(r).Balance})
	}
}

func (b *Backend) OperatorsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		operators := make([]string, 0, len(b.commission))
		for name := range b.commission {
			operators = append(operators, name)
		}
		b.mu.Unlock()
		sort.Strings(operators)
		writeJSON(w, http.StatusOK, map[string]any{"operators": operators})
	}
}

func (b *Backend) RechargeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields := fieldsFrom(r)
		mobile := stringField(fields, "mobile")
		operator := strings.ToLower(stringField(fields, "operator"))
		amount, ok := numberField(fields, "amount")
		if mobile == "" || !ok || amount <= 0 {
			writeError(w, http.StatusBadRequest, "mobile and a positive amount are required")
			return
		}

		b.mu.Lock()
		rate, known := b.commission[operator]
		b.mu.Unlock()
		if !known {
			writeError(w, http.StatusBadRequest, "Unknown operator")
			return
		}

		b.debit(w, accountFrom(r).ID, Transaction{
			Kind:       "recharge",
			Reference:  mobile,
			Operator:   operator,
			Amount:     amount,
			Commission: roundCents(amount * rate / 100),
		})
	}
}

func (b *Backend) BillPayHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields := fieldsFrom(r)
		biller := stringField(fields, "biller")
		accountNumber := stringField(fields, "account_number")
		amount, ok := numberField(fields, "amount")
		if biller == "" || accountNumber == "" || !ok || amount <= 0 {
			writeError(w, http.StatusBadRequest, "biller, account_number and a positive amount are required")
			return
		}

		b.debit(w, accountFrom(r).ID, Transaction{
			Kind:      "bill",
			Reference: biller + ":" + accountNumber,
			Amount:    amount,
		})
	}
}

func (b *Backend) debit(w http.ResponseWriter, userID int64, tx Transaction) {
	b.mu.Lock()
	defer b.mu.Unlock()

	account := b.accounts[userID]
	if account.Balance < tx.Amount {
		writeError(w, http.StatusPaymentRequired, "Insufficient wallet balance")
		return
	}
	account.Balance = roundCents(account.Balance - tx.Amount + tx.Commission)
	b.accounts[userID] = account

	tx.UserID = userID
	tx = b.record(tx)
	writeJSON(w, http.StatusOK, map[string]any{"transaction": tx, "balance": account.Balance})
}

// TransactionsHandler lists the caller's transactions, or everybody's for admins. An optional
// customer_id field narrows the admin view to one customer.
func (b *Backend) TransactionsHandler(all bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := accountFrom(r)
		filter, hasFilter := numberField(fieldsFrom(r), "customer_id")

		b.mu.Lock()
		list := make([]Transaction, 0, len(b.transactions))
		for _, tx := range b.transactions {
			switch {
			case !all && tx.UserID != caller.ID:
				continue
			case all && hasFilter && tx.UserID != int64(filter):
				continue
			}
			list = append(list, tx)
		}
		b.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]any{"transactions": list})
	}
}

func (b *Backend) AdminCustomersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"customers": b.customers()})
	}
}

func (b *Backend) AdminDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customers := b.customers()

		b.mu.Lock()
		var volume, commission float64
		for _, tx := range b.transactions {
			volume += tx.Amount
			commission += tx.Commission
		}
		count := len(b.transactions)
		b.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]any{
			"customers":    len(customers),
			"transactions": count,
			"volume":       roundCents(volume),
			"commission":   roundCents(commission),
		})
	}
}

func (b *Backend) CommissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields := fieldsFrom(r)
		operator := strings.ToLower(stringField(fields, "operator"))
		percent, ok := numberField(fields, "percent")
		if operator == "" || !ok || percent < 0 || percent > 100 {
			writeError(w, http.StatusBadRequest, "operator and a percent between 0 and 100 are required")
			return
		}

		b.mu.Lock()
		b.commission[operator] = percent
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"message": "Commission updated", "operator": operator, "percent": percent})
	}
}

func (b *Backend) customers() []Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := make([]Account, 0, len(b.accounts))
	for _, account := range b.accounts {
		if account.Role == RoleCustomer {
			list = append(list, account)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
