package handlers

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lojinha/apiserver/internal/auth"
	"github.com/lojinha/apiserver/internal/services"
	"github.com/lojinha/apiserver/internal/store"
	"github.com/lojinha/apiserver/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type fakeUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]types.User), nextID: 1}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicateEmail
		}
	}
	user.ID = r.nextID
	r.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

type fakeProductRepo struct {
	products map[int]types.Product
	nextID   int
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[int]types.Product), nextID: 1}
}

func (r *fakeProductRepo) List(ctx context.Context) ([]types.Product, error) {
	out := make([]types.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProductRepo) Get(ctx context.Context, id int) (types.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return types.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) Create(ctx context.Context, product types.Product) (types.Product, error) {
	product.ID = r.nextID
	r.nextID++
	r.products[product.ID] = product
	return product, nil
}

func (r *fakeProductRepo) Update(ctx context.Context, product types.Product) (types.Product, error) {
	if _, ok := r.products[product.ID]; !ok {
		return types.Product{}, store.ErrNotFound
	}
	r.products[product.ID] = product
	return product, nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

type fakeUploader struct {
	url string
	err error
}

func (u *fakeUploader) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	return u.url, nil
}

// testEnv wires real handlers, middleware, and services over in-memory fakes.
type testEnv struct {
	router   *chi.Mux
	users    *fakeUserRepo
	products *fakeProductRepo
	uploader *fakeUploader
	tokens   *auth.TokenService
}

func newTestEnv() *testEnv {
	users := newFakeUserRepo()
	products := newFakeProductRepo()
	uploader := &fakeUploader{url: "https://img.example.com/uploaded.png"}

	tokens := auth.NewTokenService(testSecret, time.Hour)
	userService := services.NewUserService(users)
	catalog := services.NewCatalogService(products, uploader, nil)
	authMiddleware := RequireAuth(tokens, userService)

	router := chi.NewRouter()
	router.Route("/api/auth", func(r chi.Router) {
		AuthRouter(r, userService, tokens)
	})
	router.Route("/api/products", func(r chi.Router) {
		ProductRouter(r, catalog, authMiddleware)
	})

	return &testEnv{
		router:   router,
		users:    users,
		products: products,
		uploader: uploader,
		tokens:   tokens,
	}
}

func (e *testEnv) addUser(t *testing.T, name, email, password string, isAdmin bool) types.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user, err := e.users.Create(context.Background(), types.User{
		Name:         name,
		Email:        email,
		IsAdmin:      isAdmin,
		PasswordHash: string(hashed),
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) tokenFor(t *testing.T, user types.User) string {
	t.Helper()
	token, err := e.tokens.Issue(user.ID, user.IsAdmin)
	require.NoError(t, err)
	return token
}

func (e *testEnv) addProduct(t *testing.T, name string, price float64, imageURL, description string) types.Product {
	t.Helper()
	product, err := e.products.Create(context.Background(), types.Product{
		Name:        name,
		Price:       price,
		ImageURL:    imageURL,
		Description: description,
	})
	require.NoError(t, err)
	return product
}
