package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"smartshop_back_end/internal/auth"
	"smartshop_back_end/internal/config"
	"smartshop_back_end/internal/middleware"
	"smartshop_back_end/internal/models"
	"smartshop_back_end/internal/repository"
	"smartshop_back_end/internal/repository/memory"
	"smartshop_back_end/internal/services"
	"smartshop_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

type env struct {
	svc    *services.Services
	store  *repository.Store
	router *gin.Engine
	user   models.User
	token  string
}

func newEnv(t *testing.T, checks map[string]Check) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{JWTSecret: "handler-secret", JWTTTL: time.Hour}
	store := memory.New()
	svc := services.New(services.Deps{Config: cfg, Store: store, Async: func(fn func()) { fn() }})

	user := models.User{ID: models.NewID(), Name: "Trần Thị B", Email: "b@smartshop.vn", Role: models.RoleCustomer}
	require.NoError(t, store.Users.Create(context.Background(), &user))
	token, err := utils.GenerateJWT(user, cfg.JWTSecret, time.Hour, time.Now())
	require.NoError(t, err)

	h := New(svc, []string{"http://localhost:3000"}, checks)
	r := gin.New()
	r.GET("/healthz", h.Health)
	api := r.Group("/", middleware.AuthOptional(svc.Auth))
	api.GET("/images/:filename", h.ServeImage)
	api.POST("/api/upload", middleware.RequireAuth(), h.UploadImage)
	api.GET("/api/payment/vnpay/ipn", h.VnpayIPN)
	api.GET("/ws/cart", h.CartWebSocket)

	return &env{svc: svc, store: store, router: r, user: user, token: token}
}

func (e *env) upload(t *testing.T, token string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "photo.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestUploadThenServeImage(t *testing.T) {
	e := newEnv(t, nil)
	png, err := base64.StdEncoding.DecodeString(tinyPNG)
	require.NoError(t, err)

	w := e.upload(t, e.token, png)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res services.UploadResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, strings.HasSuffix(res.Filename, ".png"))
	assert.Equal(t, "/images/"+res.Filename, res.URL)

	img := e.get(res.URL)
	require.Equal(t, http.StatusOK, img.Code)
	assert.Equal(t, "image/png", img.Header().Get("Content-Type"))
	assert.Equal(t, imageCacheControl, img.Header().Get("Cache-Control"))
	assert.Equal(t, png, img.Body.Bytes())
}

func TestUploadRejections(t *testing.T) {
	e := newEnv(t, nil)

	assert.Equal(t, http.StatusUnauthorized, e.upload(t, "", []byte("x")).Code)

	w := e.upload(t, e.token, []byte("définitivement pas une image"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"BAD_USER_INPUT"`)
}

func TestServeImageErrors(t *testing.T) {
	e := newEnv(t, nil)
	assert.Equal(t, http.StatusNotFound, e.get("/images/absente.png").Code)
	assert.Equal(t, http.StatusBadRequest, e.get("/images/..secret").Code)
}

func TestVnpayIPNBadSignature(t *testing.T) {
	e := newEnv(t, nil)
	w := e.get("/api/payment/vnpay/ipn?vnp_TxnRef=SS250314123456&vnp_Amount=100&vnp_SecureHash=abc")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"RspCode":"97","Message":"Invalid signature"}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	ok := newEnv(t, map[string]Check{"redis": func(context.Context) error { return nil }})
	w := ok.get("/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","dependencies":{"redis":"ok"}}`, w.Body.String())

	down := newEnv(t, map[string]Check{"scylla": func(context.Context) error { return errors.New("no hosts") }})
	w = down.get("/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"degraded"`)
}

type wsMessage struct {
	Type string `json:"type"`
	Cart *struct {
		TotalQuantity int   `json:"totalQuantity"`
		Subtotal      int64 `json:"subtotal"`
	} `json:"cart"`
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestCartWebSocketPushesUpdates(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	cat := models.Category{ID: models.NewID(), Name: "Laptop", Slug: "laptop"}
	require.NoError(t, e.store.Categories.Create(ctx, &cat))
	p := models.Product{ID: models.NewID(), Name: "Zenbook 14", Slug: "zenbook-14", Price: 150000, Stock: 3, CategoryID: cat.ID, IsActive: true}
	require.NoError(t, e.store.Products.Create(ctx, &p))

	srv := httptest.NewServer(e.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/cart"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+e.token, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "connected", readMessage(t, conn).Type)
	initial := readMessage(t, conn)
	require.Equal(t, "cart_updated", initial.Type)
	require.NotNil(t, initial.Cart)
	assert.Zero(t, initial.Cart.TotalQuantity)

	as := auth.WithViewer(ctx, &auth.Viewer{UserID: e.user.ID, Role: e.user.Role})
	_, err = e.svc.Cart.Add(as, p.ID, 2)
	require.NoError(t, err)

	update := readMessage(t, conn)
	require.Equal(t, "cart_updated", update.Type)
	assert.Equal(t, 2, update.Cart.TotalQuantity)
	assert.Equal(t, int64(300000), update.Cart.Subtotal)
}

func TestAllowOrigin(t *testing.T) {
	h := New(nil, []string{"http://localhost:3000"}, nil)
	req := httptest.NewRequest(http.MethodGet, "/ws/cart", nil)
	assert.True(t, h.allowOrigin(req))

	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, h.allowOrigin(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, h.allowOrigin(req))
}
