package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/styleswipe/backend/internal/handlers"
	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/repos"
	"github.com/styleswipe/backend/internal/server"
	"github.com/styleswipe/backend/internal/services"
	"github.com/styleswipe/backend/internal/types"
)

type stubBucket struct{}

func (stubBucket) UploadFile(context.Context, string, io.Reader) error { return nil }
func (stubBucket) DownloadFile(context.Context, string) ([]byte, error) {
	return nil, fmt.Errorf("not found")
}
func (stubBucket) DeleteFile(context.Context, string) error { return nil }
func (stubBucket) GetPublicURL(key string) string           { return "https://cdn.test/" + key }

type noopEnrichment struct{}

func (noopEnrichment) EnqueueDeck(*types.User, []*types.Product) {}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.User{},
		&types.UserPhoto{},
		&types.Preference{},
		&types.Product{},
		&types.ProductImage{},
		&types.SwipeSession{},
		&types.Swipe{},
		&types.EngagementEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	bucket := stubBucket{}
	userRepo := repos.NewUserRepo(db, log)
	productRepo := repos.NewProductRepo(db, log)

	userSvc := services.NewUserService(log, userRepo)
	photoSvc := services.NewPhotoService(log, repos.NewUserPhotoRepo(db, log), bucket)
	prefSvc := services.NewPreferenceService(log, repos.NewPreferenceRepo(db, log))
	deckSvc := services.NewDeckService(
		db, log, nil, noopEnrichment{}, bucket,
		productRepo,
		repos.NewProductImageRepo(db, log),
		repos.NewSwipeSessionRepo(db, log),
		repos.NewSwipeRepo(db, log),
	)
	engagementSvc := services.NewEngagementService(log, repos.NewEngagementEventRepo(db, log))
	sessionSvc := services.NewSessionService(
		db, log, deckSvc, engagementSvc,
		productRepo,
		repos.NewSwipeSessionRepo(db, log),
		repos.NewSwipeRepo(db, log),
	)

	router := server.NewRouter(server.RouterConfig{
		Log:               log,
		PhotoHandler:      handlers.NewPhotoHandler(userSvc, photoSvc, bucket),
		PreferenceHandler: handlers.NewPreferenceHandler(userSvc, prefSvc, deckSvc),
		SwipeHandler:      handlers.NewSwipeHandler(userSvc, deckSvc, sessionSvc),
		ClickHandler:      handlers.NewClickHandler(userSvc, engagementSvc, productRepo),
		ImageHandler:      handlers.NewImageHandler(bucket),
	})
	return router, db
}

func seedDeck(t *testing.T, db *gorm.DB, folder string, n int) (*types.User, []*types.Product) {
	t.Helper()
	user := &types.User{ID: uuid.New(), UserFolder: folder}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	products := make([]*types.Product, 0, n)
	for i := 0; i < n; i++ {
		p := &types.Product{
			ID:         uuid.New(),
			UserID:     user.ID,
			Generation: 1,
			Position:   i,
			Title:      "Product",
		}
		if err := db.Create(p).Error; err != nil {
			t.Fatalf("create product: %v", err)
		}
		products = append(products, p)
	}
	return user, products
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSwipeActionEndpoint(t *testing.T) {
	router, db := newTestRouter(t)
	_, deck := seedDeck(t, db, "user_1", 2)

	rec := doJSON(t, router, http.MethodPost, "/api/swipe/user_1/action",
		gin.H{"product_id": deck[0].ID, "liked": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var result struct {
		Duplicate bool `json:"duplicate"`
		Status    struct {
			Position  int  `json:"position"`
			Total     int  `json:"total"`
			Completed bool `json:"completed"`
		} `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Status.Position != 1 || result.Status.Total != 2 || result.Status.Completed {
		t.Fatalf("unexpected status: %+v", result.Status)
	}
}

func TestSwipeActionRejectsOutOfOrder(t *testing.T) {
	router, db := newTestRouter(t)
	_, deck := seedDeck(t, db, "user_1", 3)

	rec := doJSON(t, router, http.MethodPost, "/api/swipe/user_1/action",
		gin.H{"product_id": deck[2].ID, "liked": true})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got=%d want=409 body=%s", rec.Code, rec.Body.String())
	}
}

func TestSwipeActionUnknownProduct(t *testing.T) {
	router, db := newTestRouter(t)
	seedDeck(t, db, "user_1", 1)

	rec := doJSON(t, router, http.MethodPost, "/api/swipe/user_1/action",
		gin.H{"product_id": uuid.New(), "liked": true})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got=%d want=404 body=%s", rec.Code, rec.Body.String())
	}
}

func TestSwipeEndpointsRequireKnownUser(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/swipe/ghost/status", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got=%d want=404 body=%s", rec.Code, rec.Body.String())
	}
}

func TestProductsEndpointReturnsDeck(t *testing.T) {
	router, db := newTestRouter(t)
	seedDeck(t, db, "user_1", 2)

	rec := doJSON(t, router, http.MethodGet, "/api/swipe/user_1/products", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Products []services.ProductView `json:"products"`
		Total    int                    `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Total != 2 || len(payload.Products) != 2 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestClickEndpoint(t *testing.T) {
	router, db := newTestRouter(t)
	_, deck := seedDeck(t, db, "user_1", 1)

	rec := doJSON(t, router, http.MethodPost, "/api/product/click",
		gin.H{"product_id": deck[0].ID, "referrer": "swipe_ui", "user_folder": "user_1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}

	var count int64
	if err := db.Model(&types.EngagementEvent{}).Where("type = ?", types.EngagementClick).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("click events: got=%d want=1", count)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/product/click",
		gin.H{"product_id": uuid.New()})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got=%d want=404 body=%s", rec.Code, rec.Body.String())
	}
}
