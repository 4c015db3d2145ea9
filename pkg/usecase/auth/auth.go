package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kioku-app/kioku/pkg/model"
	"github.com/kioku-app/kioku/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/crypto/bcrypt"
)

const tokenLifetime = 24 * time.Hour

// UseCase issues and verifies identity tokens. It sits outside the retrieval
// and chat core: those only require a resolved user ID.
type UseCase struct {
	repo   repository.Repository
	secret []byte
}

// New creates a new auth UseCase instance
func New(repo repository.Repository, secret []byte) *UseCase {
	return &UseCase{
		repo:   repo,
		secret: secret,
	}
}

// Register creates an account and returns it with a signed token
func (u *UseCase) Register(ctx context.Context, email, password, name string) (*model.User, string, error) {
	if email == "" || password == "" {
		return nil, "", goerr.Wrap(model.ErrInvalidCredential, "email and password are required")
	}

	if _, err := u.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, "", goerr.Wrap(model.ErrUserAlreadyExists, "email is taken", goerr.V("email", email))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to hash password")
	}

	user := &model.User{
		ID:           model.NewUserID(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := u.repo.PutUser(ctx, user); err != nil {
		return nil, "", goerr.Wrap(err, "failed to save user")
	}

	token, err := u.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Login verifies credentials and returns the account with a signed token.
// Unknown email and wrong password are indistinguishable to the caller.
func (u *UseCase) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := u.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", goerr.Wrap(model.ErrInvalidCredential, "login failed")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", goerr.Wrap(model.ErrInvalidCredential, "login failed")
	}

	token, err := u.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// VerifyToken resolves a bearer token to an existing user
func (u *UseCase) VerifyToken(ctx context.Context, token string) (*model.User, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, goerr.New("unexpected signing method", goerr.V("alg", t.Header["alg"]))
		}
		return u.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, goerr.Wrap(model.ErrInvalidCredential, "invalid token")
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return nil, goerr.Wrap(model.ErrInvalidCredential, "token has no subject")
	}

	user, err := u.repo.GetUser(ctx, model.UserID(sub))
	if err != nil {
		return nil, goerr.Wrap(model.ErrInvalidCredential, "unknown user")
	}

	return user, nil
}

func (u *UseCase) issueToken(userID model.UserID) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   string(userID),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.secret)
	if err != nil {
		return "", goerr.Wrap(err, "failed to sign token")
	}
	return token, nil
}
