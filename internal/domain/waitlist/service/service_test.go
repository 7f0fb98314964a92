package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/income-tracker/internal/domain/waitlist/repository"
)

type fakeRepo struct {
	entries  map[string]*repository.Entry
	position int
	statsErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{entries: make(map[string]*repository.Entry), position: 1}
}

func (f *fakeRepo) Add(_ context.Context, email string) (*repository.Entry, error) {
	if e, ok := f.entries[email]; ok {
		return e, nil
	}
	e := &repository.Entry{ID: uuid.New(), Email: email, Status: repository.StatusPending, CreatedAt: time.Now()}
	f.entries[email] = e
	return e, nil
}

func (f *fakeRepo) GetByEmail(_ context.Context, email string) (*repository.Entry, error) {
	return f.entries[email], nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*repository.Entry, error) {
	for _, e := range f.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) GetByInviteCode(_ context.Context, code string) (*repository.Entry, error) {
	for _, e := range f.entries {
		if e.InviteCode != nil && *e.InviteCode == code {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id uuid.UUID, status repository.Status, code *string) error {
	for _, e := range f.entries {
		if e.ID == id {
			e.Status = status
			if code != nil {
				e.InviteCode = code
			}
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeRepo) Position(_ context.Context, _ uuid.UUID) (int, error) {
	return f.position, nil
}

func (f *fakeRepo) Stats(_ context.Context) (*repository.Stats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return &repository.Stats{TotalSignups: len(f.entries)}, nil
}

type fakeMailer struct {
	sent chan *resend.SendEmailRequest
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(chan *resend.SendEmailRequest, 8)}
}

func (f *fakeMailer) Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.sent <- params
	return &resend.SendEmailResponse{Id: "email-1"}, nil
}

func (f *fakeMailer) waitForEmail(t *testing.T) *resend.SendEmailRequest {
	t.Helper()
	select {
	case req := <-f.sent:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("no email sent")
		return nil
	}
}

func newService(repo repository.WaitlistRepository, mailer Mailer) *WaitlistService {
	svc := NewWaitlistService(repo, "", "", slog.New(slog.DiscardHandler))
	svc.mailer = mailer
	return svc
}

func TestJoin(t *testing.T) {
	repo := newFakeRepo()
	repo.position = 42
	mailer := newFakeMailer()
	svc := newService(repo, mailer)

	entry, position, already, err := svc.Join(context.Background(), "creator@example.com")
	require.NoError(t, err)
	assert.Equal(t, "creator@example.com", entry.Email)
	assert.Equal(t, 42, position)
	assert.False(t, already)

	email := mailer.waitForEmail(t)
	assert.Equal(t, []string{"creator@example.com"}, email.To)
	assert.Contains(t, email.Html, "#42")
}

func TestJoin_AlreadySignedUp(t *testing.T) {
	repo := newFakeRepo()
	mailer := newFakeMailer()
	svc := newService(repo, mailer)

	_, _, _, err := svc.Join(context.Background(), "creator@example.com")
	require.NoError(t, err)
	mailer.waitForEmail(t)

	_, _, already, err := svc.Join(context.Background(), "creator@example.com")
	require.NoError(t, err)
	assert.True(t, already)

	// No second welcome email.
	select {
	case <-mailer.sent:
		t.Fatal("unexpected email for repeat signup")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestJoin_InvalidEmail(t *testing.T) {
	svc := newService(newFakeRepo(), newFakeMailer())

	for _, email := range []string{"", "not-an-email", "a b@example.com", "creator@"} {
		_, _, _, err := svc.Join(context.Background(), email)
		assert.ErrorIs(t, err, ErrInvalidEmail, email)
	}
}

func TestJoin_NoMailerConfigured(t *testing.T) {
	svc := NewWaitlistService(newFakeRepo(), "", "", slog.New(slog.DiscardHandler))

	_, _, _, err := svc.Join(context.Background(), "creator@example.com")
	require.NoError(t, err)
}

func TestInvite(t *testing.T) {
	repo := newFakeRepo()
	mailer := newFakeMailer()
	svc := newService(repo, mailer)

	entry, _, _, err := svc.Join(context.Background(), "creator@example.com")
	require.NoError(t, err)
	mailer.waitForEmail(t)

	code, err := svc.Invite(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Len(t, code, 8)

	email := mailer.waitForEmail(t)
	assert.Contains(t, email.Html, code)

	stored, err := repo.GetByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.StatusInvited, stored.Status)
}

func TestInvite_NotFound(t *testing.T) {
	svc := newService(newFakeRepo(), newFakeMailer())

	_, err := svc.Invite(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestActivate(t *testing.T) {
	repo := newFakeRepo()
	mailer := newFakeMailer()
	svc := newService(repo, mailer)

	entry, _, _, err := svc.Join(context.Background(), "creator@example.com")
	require.NoError(t, err)
	mailer.waitForEmail(t)

	code, err := svc.Invite(context.Background(), entry.ID)
	require.NoError(t, err)
	mailer.waitForEmail(t)

	activated, err := svc.Activate(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, activated.ID)

	// A second redemption fails.
	_, err = svc.Activate(context.Background(), code)
	assert.ErrorIs(t, err, ErrCodeAlreadyUsed)
}

func TestActivate_UnknownCode(t *testing.T) {
	svc := newService(newFakeRepo(), newFakeMailer())

	_, err := svc.Activate(context.Background(), "ffffffff")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestStats(t *testing.T) {
	repo := newFakeRepo()
	mailer := newFakeMailer()
	svc := newService(repo, mailer)

	_, _, _, err := svc.Join(context.Background(), "creator@example.com")
	require.NoError(t, err)
	mailer.waitForEmail(t)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalSignups)
}
