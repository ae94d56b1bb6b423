package otp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jevencare/api/pkg/metrics"
	"github.com/jevencare/api/pkg/security"
)

type recordingSender struct {
	mu       sync.Mutex
	messages map[string]string
	err      error
}

func (r *recordingSender) Send(_ context.Context, phone, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.messages == nil {
		r.messages = make(map[string]string)
	}
	r.messages[phone] = message
	return nil
}

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

func (r *recordingSender) code(phone string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := codePattern.FindStringSubmatch(r.messages[phone])
	if m == nil {
		return ""
	}
	return m[1]
}

type fixture struct {
	svc    *Service
	sender *recordingSender
	now    time.Time
}

func newFixture(t *testing.T, testMode bool) *fixture {
	t.Helper()
	f := &fixture{
		sender: &recordingSender{},
		now:    time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(
		Config{TestMode: testMode},
		NewMemoryStore(time.Minute),
		f.sender,
		security.NewBcryptHasher(bcrypt.MinCost),
		metrics.New("test"),
		WithClock(func() time.Time { return f.now }),
	)
	return f
}

func TestNormalize(t *testing.T) {
	svc := newFixture(t, true).svc
	assert.Equal(t, "+919876543210", svc.Normalize("9876543210"))
	assert.Equal(t, "+14155550100", svc.Normalize("+14155550100"))
}

func TestTestModeUsesFixedCode(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	require.NoError(t, f.svc.Issue(ctx, "9000000001"))
	assert.Equal(t, "123456", f.sender.code("+919000000001"))

	ok, err := f.svc.Verify(ctx, "9000000001", "123456")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCodeIsSingleUse(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	require.NoError(t, f.svc.Issue(ctx, "9000000001"))

	ok, err := f.svc.Verify(ctx, "9000000001", "123456")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = f.svc.Verify(ctx, "9000000001", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMismatchKeepsCode(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	require.NoError(t, f.svc.Issue(ctx, "9000000001"))

	ok, err := f.svc.Verify(ctx, "9000000001", "000000")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.Verify(ctx, "9000000001", "123456")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExpiredCodeIsPurged(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	require.NoError(t, f.svc.Issue(ctx, "9000000001"))

	f.now = f.now.Add(DefaultTTL + time.Second)
	ok, err := f.svc.Verify(ctx, "9000000001", "123456")
	require.NoError(t, err)
	assert.False(t, ok)

	f.now = f.now.Add(-DefaultTTL)
	ok, err = f.svc.Verify(ctx, "9000000001", "123456")
	require.NoError(t, err)
	assert.False(t, ok, "expired code must not come back")
}

func TestMissingCode(t *testing.T) {
	f := newFixture(t, true)
	ok, err := f.svc.Verify(context.Background(), "9000000001", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReissueReplacesCode(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	require.NoError(t, f.svc.Issue(ctx, "9000000001"))
	first := f.sender.code("+919000000001")
	require.NoError(t, f.svc.Issue(ctx, "9000000001"))
	second := f.sender.code("+919000000001")
	require.Len(t, second, 6)

	if first != second {
		ok, err := f.svc.Verify(ctx, "9000000001", first)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	ok, err := f.svc.Verify(ctx, "9000000001", second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeliveryFailure(t *testing.T) {
	f := newFixture(t, true)
	f.sender.err = errors.New("carrier down")

	err := f.svc.Issue(context.Background(), "9000000001")
	assert.ErrorIs(t, err, ErrDelivery)
}

func TestTwilioSender(t *testing.T) {
	var gotPath, gotTo, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotTo = r.PostForm.Get("To")
		gotUser, _, _ = r.BasicAuth()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := NewTwilioSender(TwilioConfig{
		AccountSID:  "AC123",
		AuthToken:   "secret",
		PhoneNumber: "+15550000000",
		BaseURL:     srv.URL,
	})

	require.NoError(t, sender.Send(context.Background(), "+919000000001", "hello"))
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", gotPath)
	assert.Equal(t, "+919000000001", gotTo)
	assert.Equal(t, "AC123", gotUser)
}

func TestTwilioSenderOpensBreaker(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sender := NewTwilioSender(TwilioConfig{AccountSID: "AC1", AuthToken: "t", PhoneNumber: "+1", BaseURL: srv.URL})
	for i := 0; i < 5; i++ {
		assert.Error(t, sender.Send(context.Background(), "+919000000001", "x"))
	}

	err := sender.Send(context.Background(), "+919000000001", "x")
	assert.ErrorContains(t, err, "unavailable")
	assert.Equal(t, 5, calls)
}
