package services

import (
	"context"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/linkup/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOtpService_IssueAndVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.otp.Issue(ctx, "s1", "A@Acme.Test", models.PurposeSignup)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), issued.Code)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), issued.ExpiresAt, 5*time.Second)

	res, err := f.otp.Verify(ctx, "a@acme.test", models.PurposeSignup, issued.Code)
	require.NoError(t, err)
	assert.Equal(t, OtpResult{Valid: true}, res)

	res, err = f.otp.Verify(ctx, "a@acme.test", models.PurposeSignup, issued.Code)
	require.NoError(t, err)
	assert.Equal(t, OtpResult{Reason: ReasonNotFound}, res)
}

func TestOtpService_WrongCodeDoesNotConsume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.otp.Issue(ctx, "s1", "a@acme.test", models.PurposeLogin)
	require.NoError(t, err)

	wrong := "000000"
	if issued.Code == wrong {
		wrong = "111111"
	}
	res, err := f.otp.Verify(ctx, "a@acme.test", models.PurposeLogin, wrong)
	require.NoError(t, err)
	assert.Equal(t, OtpResult{Reason: ReasonInvalid}, res)

	res, err = f.otp.Verify(ctx, "a@acme.test", models.PurposeLogin, issued.Code)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestOtpService_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.otp.Issue(ctx, "s1", "a@acme.test", models.PurposeLogin)
	require.NoError(t, err)

	f.otp.now = func() time.Time { return issued.ExpiresAt }
	res, err := f.otp.Verify(ctx, "a@acme.test", models.PurposeLogin, issued.Code)
	require.NoError(t, err)
	assert.Equal(t, OtpResult{Reason: ReasonExpired}, res)

	n, err := f.otp.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestOtpService_PurposeIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.otp.Issue(ctx, "s1", "a@acme.test", models.PurposeSignup)
	require.NoError(t, err)

	for _, p := range []models.Purpose{models.PurposeLogin, models.PurposePasswordReset} {
		res, err := f.otp.Verify(ctx, "a@acme.test", p, issued.Code)
		require.NoError(t, err)
		assert.False(t, res.Valid, p)
		assert.Equal(t, ReasonNotFound, res.Reason)
	}

	res, err := f.otp.Verify(ctx, "a@acme.test", models.PurposeSignup, issued.Code)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestOtpService_NewestCodeWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.otp.Issue(ctx, "s1", "a@acme.test", models.PurposeLogin)
	require.NoError(t, err)
	second, err := f.otp.Issue(ctx, "s1", "a@acme.test", models.PurposeLogin)
	require.NoError(t, err)

	if first.Code != second.Code {
		res, err := f.otp.Verify(ctx, "a@acme.test", models.PurposeLogin, first.Code)
		require.NoError(t, err)
		assert.Equal(t, ReasonInvalid, res.Reason)
	}

	res, err := f.otp.Verify(ctx, "a@acme.test", models.PurposeLogin, second.Code)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestOtpService_ConcurrentVerifySucceedsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.otp.Issue(ctx, "s1", "a@acme.test", models.PurposeSignup)
	require.NoError(t, err)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.otp.Verify(ctx, "a@acme.test", models.PurposeSignup, issued.Code)
			if err == nil && res.Valid {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
}

func TestOtpService_UnknownPurpose(t *testing.T) {
	f := newFixture(t)
	_, err := f.otp.Issue(context.Background(), "s1", "a@acme.test", models.Purpose("other"))
	assert.Error(t, err)
}
