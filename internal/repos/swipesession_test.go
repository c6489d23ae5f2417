package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.User{},
		&types.Product{},
		&types.SwipeSession{},
		&types.Swipe{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestAdvancePositionIsCompareAndSwap(t *testing.T) {
	db := newTestDB(t)
	repo := NewSwipeSessionRepo(db, newTestLogger(t))
	ctx := context.Background()

	user := &types.User{ID: uuid.New(), UserFolder: "user_1"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	session, err := repo.Create(ctx, nil, &types.SwipeSession{
		ID:         uuid.New(),
		UserID:     user.ID,
		Generation: 1,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	ok, err := repo.AdvancePosition(ctx, nil, session.ID, 0)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !ok {
		t.Fatal("first advance should succeed")
	}

	// Same expected position again: the cursor already moved.
	ok, err = repo.AdvancePosition(ctx, nil, session.ID, 0)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if ok {
		t.Fatal("stale advance should not win")
	}

	got, err := repo.GetByUserID(ctx, nil, user.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Position != 1 {
		t.Fatalf("position: got=%d want=1", got.Position)
	}
}

func TestMaxGenerationStartsAtZero(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	repo := NewProductRepo(db, log)
	ctx := context.Background()

	user := &types.User{ID: uuid.New(), UserFolder: "user_1"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	gen, err := repo.MaxGeneration(ctx, nil, user.ID)
	if err != nil {
		t.Fatalf("max generation: %v", err)
	}
	if gen != 0 {
		t.Fatalf("empty catalog generation: got=%d want=0", gen)
	}

	if _, err := repo.Create(ctx, nil, []*types.Product{{
		ID:         uuid.New(),
		UserID:     user.ID,
		Generation: 3,
		Position:   0,
		Title:      "Product",
	}}); err != nil {
		t.Fatalf("create product: %v", err)
	}

	gen, err = repo.MaxGeneration(ctx, nil, user.ID)
	if err != nil {
		t.Fatalf("max generation: %v", err)
	}
	if gen != 3 {
		t.Fatalf("generation: got=%d want=3", gen)
	}
}
