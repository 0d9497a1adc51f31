package domain

// AccountDetails is a point-in-time snapshot of one user_account row.
type AccountDetails struct {
	FirstName           string `json:"firstName"`
	LastName            string `json:"lastName"`
	Enabled             bool   `json:"enabled"`
	Locked              bool   `json:"locked"`
	FailedLoginAttempts int    `json:"failedLoginAttempts"`
}

// AccountStatus aggregates the yes/no probes for one email.
type AccountStatus struct {
	Exists                bool `json:"exists"`
	Enabled               bool `json:"enabled"`
	Locked                bool `json:"locked"`
	HasVerificationToken  bool `json:"hasVerificationToken"`
	HasPasswordResetToken bool `json:"hasPasswordResetToken"`
}

// NewAccount describes a fixture account inserted directly into storage,
// bypassing the registration endpoint.
type NewAccount struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	Enabled   bool
	Locked    bool
	Roles     []Role
}

// AccountRow is the persisted form of a fixture account.
type AccountRow struct {
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Enabled      bool
	Locked       bool
}
