package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/user-directory/internal/cache"
	"github.com/iliyamo/user-directory/internal/queue"
	"github.com/iliyamo/user-directory/internal/repository"
	"github.com/iliyamo/user-directory/internal/utils"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.UserEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.UserEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	db        *repository.MemoryDB
	mr        *miniredis.Miniredis
	rdb       *redis.Client
	cache     *cache.ProfileCache
	codes     *cache.ResetCodes
	hasher    *utils.PasswordHasher
	tokens    *utils.TokenCodec
	events    *recordingPublisher
	logHook   *test.Hook
	dir       *Directory
	auth      *AuthService
	users     *UserService
	addresses *AddressService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:     repository.NewMemoryDB(),
		mr:     miniredis.RunT(t),
		hasher: utils.NewPasswordHasher(bcrypt.MinCost),
		tokens: utils.NewTokenCodec("test-secret", 15*time.Minute),
		events: &recordingPublisher{},
	}
	f.rdb = redis.NewClient(&redis.Options{Addr: f.mr.Addr()})
	t.Cleanup(func() { _ = f.rdb.Close() })

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	f.logHook = hook

	store := cache.NewRedisStore(f.rdb, "")
	f.cache = cache.New(store, cache.DefaultTTL, cache.WithLogger(logger))
	f.codes = cache.NewResetCodes(store)

	opts := []Option{
		WithNowFunc(func() time.Time { return fixedNow }),
		WithLogger(logger),
		WithEvents(f.events),
	}
	f.dir = NewDirectory(f.db.Users(), opts...)
	f.auth = NewAuthService(AuthServiceArgs{
		Directory:         f.dir,
		Hasher:            f.hasher,
		Tokens:            f.tokens,
		ResetCodes:        f.codes,
		Cache:             f.cache,
		SelfRegisterRoles: []string{"USER", "ADMIN"},
	}, opts...)
	f.users = NewUserService(UserServiceArgs{Directory: f.dir, Cache: f.cache}, opts...)
	f.addresses = NewAddressService(AddressServiceArgs{Directory: f.dir, Addresses: f.db.Addresses()}, opts...)
	return f
}

func (f *fixture) register(t *testing.T, userName, email, mobile string) *AuthResult {
	t.Helper()
	res, err := f.auth.Register(context.Background(), RegisterArgs{
		UserName:     userName,
		Email:        email,
		MobileNumber: mobile,
		FullName:     userName + " Example",
		Password:     "p@ss-" + userName,
	})
	require.NoError(t, err)
	return res
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
