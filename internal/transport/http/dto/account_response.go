package dto

type AccountCreated struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type AccountStatusView struct {
	Email                 string `json:"email"`
	Exists                bool   `json:"exists"`
	Enabled               bool   `json:"enabled"`
	Locked                bool   `json:"locked"`
	HasVerificationToken  bool   `json:"hasVerificationToken"`
	HasPasswordResetToken bool   `json:"hasPasswordResetToken"`
}

type URLView struct {
	URL string `json:"url"`
}

type PasswordResetView struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

type VerifiedView struct {
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

type ResetView struct {
	Truncated bool `json:"truncated"`
}
