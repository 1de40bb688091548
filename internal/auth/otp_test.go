package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/notes-api/internal/apperror"
	"github.com/redmonkez12/notes-api/internal/user"
)

type sentOTP struct {
	to   string
	code string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentOTP
	err  error
}

func (m *fakeMailer) SendOTP(_ context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentOTP{to: to, code: code})
	return nil
}

func (m *fakeMailer) last() sentOTP {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

type otpFixture struct {
	svc    *OTPService
	users  *user.MemoryStore
	mailer *fakeMailer
	tokens *PasetoService
	now    time.Time
}

func newOTPFixture(t *testing.T) *otpFixture {
	t.Helper()

	tokens, err := NewPasetoService(testKey)
	require.NoError(t, err)

	f := &otpFixture{
		users:  user.NewMemoryStore(),
		mailer: &fakeMailer{},
		tokens: tokens,
		now:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewOTPService(f.users, tokens, f.mailer, 10*time.Minute, 7*24*time.Hour)
	f.svc.now = func() time.Time { return f.now }

	return f
}

// sequence makes generate return the given codes in order.
func (f *otpFixture) sequence(codes ...string) {
	var i int
	f.svc.generate = func() (string, error) {
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}

func TestOTPService_IssueStoresCodeAndMails(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()
	dob := time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC)

	msg, err := f.svc.Issue(ctx, IssueRequest{Name: " Ada ", DateOfBirth: &dob, Email: "Ada@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, OTPSentMessage, msg)

	u, err := f.users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, dob, *u.DateOfBirth)
	require.NotNil(t, u.OTP)
	assert.Len(t, *u.OTP, 6)
	n, err := strconv.Atoi(*u.OTP)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, otpMin)
	assert.LessOrEqual(t, n, otpMax)
	require.NotNil(t, u.OTPExpiry)
	assert.Equal(t, f.now.Add(10*time.Minute), *u.OTPExpiry)

	sent := f.mailer.last()
	assert.Equal(t, "ada@example.com", sent.to)
	assert.Equal(t, *u.OTP, sent.code)
	assert.NotContains(t, msg, sent.code)
}

func TestOTPService_IssueKeepsExistingProfile(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, IssueRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	dob := time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC)
	_, err = f.svc.Resend(ctx, IssueRequest{Name: "Someone Else", DateOfBirth: &dob, Email: "ada@example.com"})
	require.NoError(t, err)

	u, err := f.users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name, "existing name is not overwritten")
	require.NotNil(t, u.DateOfBirth, "missing dob is filled")
	assert.Equal(t, dob, *u.DateOfBirth)
}

func TestOTPService_IssueValidatesEmail(t *testing.T) {
	f := newOTPFixture(t)

	for _, email := range []string{"", "   ", "not-an-email", "Ada <ada@example.com>"} {
		_, err := f.svc.Issue(context.Background(), IssueRequest{Email: email})
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err), "email %q", email)
	}
	assert.Empty(t, f.mailer.sent)
}

func TestOTPService_ReissueInvalidatesPreviousCode(t *testing.T) {
	f := newOTPFixture(t)
	f.sequence("111111", "222222")
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, IssueRequest{Email: "a@x.com"})
	require.NoError(t, err)
	_, err = f.svc.Issue(ctx, IssueRequest{Email: "a@x.com"})
	require.NoError(t, err)

	_, err = f.svc.Verify(ctx, "a@x.com", "111111")
	assert.ErrorIs(t, err, ErrInvalidOTP)

	result, err := f.svc.Verify(ctx, "a@x.com", "222222")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestOTPService_VerifyExpiryBoundary(t *testing.T) {
	ctx := context.Background()

	t.Run("at expiry", func(t *testing.T) {
		f := newOTPFixture(t)
		f.sequence("123456")
		_, err := f.svc.Issue(ctx, IssueRequest{Email: "a@x.com"})
		require.NoError(t, err)

		f.now = f.now.Add(10 * time.Minute)
		_, err = f.svc.Verify(ctx, "a@x.com", "123456")
		assert.ErrorIs(t, err, ErrInvalidOTP)
	})

	t.Run("just before expiry", func(t *testing.T) {
		f := newOTPFixture(t)
		f.sequence("123456")
		_, err := f.svc.Issue(ctx, IssueRequest{Email: "a@x.com"})
		require.NoError(t, err)

		f.now = f.now.Add(10*time.Minute - time.Nanosecond)
		_, err = f.svc.Verify(ctx, "a@x.com", "123456")
		require.NoError(t, err)

		_, err = f.svc.Verify(ctx, "a@x.com", "123456")
		assert.ErrorIs(t, err, ErrInvalidOTP)
	})
}

func TestOTPService_SignupVerifyScenario(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, IssueRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	code := f.mailer.last().code

	wrong := "000000"
	if code == wrong {
		wrong = "999999"
	}
	_, err = f.svc.Verify(ctx, "ada@example.com", wrong)
	assert.ErrorIs(t, err, ErrInvalidOTP)

	result, err := f.svc.Verify(ctx, "ada@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", result.User.Email)
	assert.Nil(t, result.User.OTP)

	claims, err := f.tokens.VerifyToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID.String(), claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.WithinDuration(t, claims.IssuedAt.Add(7*24*time.Hour), claims.ExpiresAt, time.Second)

	stored, err := f.users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Nil(t, stored.OTP)
	assert.Nil(t, stored.OTPExpiry)

	_, err = f.svc.Verify(ctx, "ada@example.com", code)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestOTPService_VerifyFailuresAreIndistinguishable(t *testing.T) {
	f := newOTPFixture(t)
	f.sequence("123456")
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, IssueRequest{Email: "a@x.com"})
	require.NoError(t, err)

	cases := []struct{ email, code string }{
		{"nobody@x.com", "123456"},
		{"a@x.com", "654321"},
		{"a@x.com", ""},
		{"", "123456"},
	}
	for _, c := range cases {
		_, err := f.svc.Verify(ctx, c.email, c.code)
		assert.Same(t, ErrInvalidOTP, err, "email=%q code=%q", c.email, c.code)
	}
}

func TestOTPService_ConcurrentVerifyRedeemsOnce(t *testing.T) {
	f := newOTPFixture(t)
	f.sequence("123456")
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, IssueRequest{Email: "a@x.com"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Verify(ctx, "a@x.com", "123456"); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestOTPService_MailFailureRollsBack(t *testing.T) {
	f := newOTPFixture(t)
	f.sequence("123456")
	f.mailer.err = errors.New("smtp: connection refused")
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, IssueRequest{Email: "a@x.com"})
	require.Error(t, err)
	assert.Equal(t, apperror.KindTransport, apperror.KindOf(err))
	assert.ErrorIs(t, err, ErrEmailDelivery)
	assert.ErrorIs(t, err, f.mailer.err)
	assert.Equal(t, ErrEmailDelivery.Message, apperror.MessageOf(err, ""))

	u, err := f.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Nil(t, u.OTP)
	assert.Nil(t, u.OTPExpiry)

	_, err = f.svc.Verify(ctx, "a@x.com", "123456")
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestGenerateOTP_Range(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code, err := generateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.True(t, n >= otpMin && n <= otpMax, fmt.Sprintf("code %d out of range", n))
	}
}
