package harness

import (
	"context"
	"errors"
	"maps"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
)

// fakeState is the in-memory "database" behind fakeStore.
type fakeState struct {
	accounts map[string]domain.AccountDetails
	ids      map[string]int64
	roles    map[int64][]string
	verify   map[string]string
	reset    map[string]string
	nextID   int64
}

func newFakeState() *fakeState {
	return &fakeState{
		accounts: map[string]domain.AccountDetails{},
		ids:      map[string]int64{},
		roles:    map[int64][]string{},
		verify:   map[string]string{},
		reset:    map[string]string{},
	}
}

func (s *fakeState) clone() *fakeState {
	c := &fakeState{
		accounts: maps.Clone(s.accounts),
		ids:      maps.Clone(s.ids),
		roles:    map[int64][]string{},
		verify:   maps.Clone(s.verify),
		reset:    maps.Clone(s.reset),
		nextID:   s.nextID,
	}
	for k, v := range s.roles {
		c.roles[k] = append([]string(nil), v...)
	}
	return c
}

func (s *fakeState) emailByID(id int64) string {
	for e, i := range s.ids {
		if i == id {
			return e
		}
	}
	return ""
}

// fakeStore implements Store over fakeState. InTx runs fn against a copy and
// publishes it only when fn succeeds.
type fakeStore struct {
	state **fakeState

	// error injection
	queryErr  error
	deleteErr error
	enableErr error

	txCalls int
}

func newFakeStore() *fakeStore {
	st := newFakeState()
	return &fakeStore{state: &st}
}

func (f *fakeStore) s() *fakeState { return *f.state }

func (f *fakeStore) Accounts() AccountPort { return fakeAccounts{f} }
func (f *fakeStore) Tokens() TokenPort     { return fakeTokens{f} }
func (f *fakeStore) Fixtures() FixturePort { return fakeFixtures{f} }

func (f *fakeStore) InTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	f.txCalls++
	work := f.s().clone()
	tx := &fakeStore{
		state:    &work,
		queryErr: f.queryErr, deleteErr: f.deleteErr, enableErr: f.enableErr,
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	*f.state = work
	return nil
}

// seed adds an account directly.
func (f *fakeStore) seed(email string, d domain.AccountDetails, verifyToken string) {
	st := f.s()
	st.nextID++
	st.accounts[email] = d
	st.ids[email] = st.nextID
	if verifyToken != "" {
		st.verify[email] = verifyToken
	}
}

type fakeAccounts struct{ f *fakeStore }

func (a fakeAccounts) CountByEmail(ctx context.Context, email string) (int, error) {
	if a.f.queryErr != nil {
		return 0, domain.ErrQueryFailed("count_accounts", email, a.f.queryErr)
	}
	if _, ok := a.f.s().accounts[email]; ok {
		return 1, nil
	}
	return 0, nil
}

func (a fakeAccounts) Enabled(ctx context.Context, email string) (bool, error) {
	if a.f.queryErr != nil {
		return false, domain.ErrQueryFailed("is_enabled", email, a.f.queryErr)
	}
	return a.f.s().accounts[email].Enabled, nil
}

func (a fakeAccounts) Locked(ctx context.Context, email string) (bool, error) {
	if a.f.queryErr != nil {
		return false, domain.ErrQueryFailed("is_locked", email, a.f.queryErr)
	}
	return a.f.s().accounts[email].Locked, nil
}

func (a fakeAccounts) Details(ctx context.Context, email string) (domain.AccountDetails, bool, error) {
	if a.f.queryErr != nil {
		return domain.AccountDetails{}, false, domain.ErrQueryFailed("account_details", email, a.f.queryErr)
	}
	d, ok := a.f.s().accounts[email]
	return d, ok, nil
}

func (a fakeAccounts) Enable(ctx context.Context, email string) error {
	if a.f.enableErr != nil {
		return domain.ErrQueryFailed("enable_account", email, a.f.enableErr)
	}
	st := a.f.s()
	if d, ok := st.accounts[email]; ok {
		d.Enabled = true
		st.accounts[email] = d
	}
	return nil
}

type fakeTokens struct{ f *fakeStore }

func (t fakeTokens) HasVerificationToken(ctx context.Context, email string) (bool, error) {
	if t.f.queryErr != nil {
		return false, domain.ErrQueryFailed("has_verification_token", email, t.f.queryErr)
	}
	_, ok := t.f.s().verify[email]
	return ok, nil
}

func (t fakeTokens) HasPasswordResetToken(ctx context.Context, email string) (bool, error) {
	if t.f.queryErr != nil {
		return false, domain.ErrQueryFailed("has_password_reset_token", email, t.f.queryErr)
	}
	_, ok := t.f.s().reset[email]
	return ok, nil
}

func (t fakeTokens) VerificationToken(ctx context.Context, email string) (string, bool, error) {
	if t.f.queryErr != nil {
		return "", false, domain.ErrQueryFailed("verification_token", email, t.f.queryErr)
	}
	tok, ok := t.f.s().verify[email]
	return tok, ok, nil
}

func (t fakeTokens) DeleteVerificationToken(ctx context.Context, email string) error {
	if t.f.deleteErr != nil {
		return domain.ErrQueryFailed("delete_verification_token", email, t.f.deleteErr)
	}
	delete(t.f.s().verify, email)
	return nil
}

func (t fakeTokens) CreatePasswordResetToken(ctx context.Context, email, token string) (bool, error) {
	if t.f.queryErr != nil {
		return false, domain.ErrQueryFailed("create_password_reset_token", email, t.f.queryErr)
	}
	st := t.f.s()
	if _, ok := st.accounts[email]; !ok {
		return false, nil
	}
	st.reset[email] = token
	return true, nil
}

type fakeFixtures struct{ f *fakeStore }

func (x fakeFixtures) InsertAccount(ctx context.Context, row domain.AccountRow) (int64, error) {
	st := x.f.s()
	if _, ok := st.accounts[row.Email]; ok {
		return 0, domain.ErrQueryFailed("insert_account", row.Email, errors.New("duplicate key"))
	}
	st.nextID++
	st.accounts[row.Email] = domain.AccountDetails{
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Enabled:   row.Enabled,
		Locked:    row.Locked,
	}
	st.ids[row.Email] = st.nextID
	return st.nextID, nil
}

func (x fakeFixtures) GrantRole(ctx context.Context, accountID int64, authority string) error {
	st := x.f.s()
	st.roles[accountID] = append(st.roles[accountID], authority)
	return nil
}

func (x fakeFixtures) InsertVerificationToken(ctx context.Context, accountID int64, token string) error {
	st := x.f.s()
	email := st.emailByID(accountID)
	if email == "" {
		return errors.New("no such account")
	}
	st.verify[email] = token
	return nil
}

func (x fakeFixtures) Truncate(ctx context.Context) error {
	*x.f.state = newFakeState()
	return nil
}

type fakeHasher struct{ err error }

func (h fakeHasher) Hash(pw string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "HASH(" + pw + ")", nil
}

type recordingNotifier struct {
	sent []PasswordResetMail
	err  error
}

func (n *recordingNotifier) NotifyPasswordReset(ctx context.Context, msg PasswordResetMail) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func sequentialTokens(prefix string) TokenGenerator {
	n := 0
	return func() string {
		n++
		return prefix + string(rune('0'+n))
	}
}
