package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/taskhub/apiserver/internal/testutils"
)

const (
	testAccessTTL  = time.Hour
	testRefreshTTL = 30 * 24 * time.Hour
)

var errStoreDown = errors.New("connection refused")

// fixture wires a complete token stack around an in-memory user store and
// a clock the test can move.
type fixture struct {
	now       time.Time
	users     *testutils.UserRepository
	codec     *Codec
	issuer    *Issuer
	validator *Validator
	refresher *Refresher
}

func newFixture(t *testing.T, trustEmbeddedRoles bool) *fixture {
	t.Helper()
	f := &fixture{
		now:   time.Unix(1_700_000_000, 0),
		users: testutils.NewUserRepository(),
		codec: mustCodec(t, testutils.Secret),
	}
	clock := WithClock(func() time.Time { return f.now })

	var err error
	f.issuer, err = NewIssuer(f.codec, testAccessTTL, testRefreshTTL, clock)
	require.NoError(t, err)
	f.validator, err = NewValidator(f.codec, f.users, trustEmbeddedRoles, clock)
	require.NoError(t, err)
	f.refresher, err = NewRefresher(f.validator, f.issuer, f.users, clock)
	require.NoError(t, err)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func background() context.Context {
	return context.Background()
}
