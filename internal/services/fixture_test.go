package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"smartshop_back_end/internal/auth"
	"smartshop_back_end/internal/cache"
	"smartshop_back_end/internal/config"
	"smartshop_back_end/internal/events"
	"smartshop_back_end/internal/models"
	"smartshop_back_end/internal/repository"
	"smartshop_back_end/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

const testHashSecret = "TESTSECRET"

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

type recordingMailer struct {
	mu            sync.Mutex
	confirmations []string
	statuses      []models.OrderStatus
	welcomes      []string
}

func (m *recordingMailer) OrderConfirmation(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations = append(m.confirmations, o.OrderNumber)
	return nil
}

func (m *recordingMailer) OrderStatusChanged(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, o.Status)
	return nil
}

func (m *recordingMailer) Welcome(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomes = append(m.welcomes, u.Email)
	return nil
}

type fixture struct {
	t      *testing.T
	svc    *Services
	store  *repository.Store
	carts  *cache.MemoryCartStore
	events *recordingPublisher
	mailer *recordingMailer
	now    time.Time

	category models.Category
	brand    models.Brand
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret: "test-secret",
		JWTTTL:    24 * time.Hour,
		VNPay: config.VNPayConfig{
			TmnCode:       "TESTTMN",
			HashSecret:    testHashSecret,
			PayURL:        "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
			ReturnURL:     "http://localhost:3000/payment/vnpay-return",
			ExpireMinutes: 15,
		},
		BankTransfer: config.BankTransferConfig{
			BankName:      "Vietcombank",
			BankBIN:       "970436",
			AccountNumber: "0123456789",
			AccountName:   "SMARTSHOP",
		},
		Shop: config.ShopConfig{Name: "SmartShop", ShippingFee: 30000, FreeShippingThreshold: 500000},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		store:  memory.New(),
		carts:  cache.NewMemoryCartStore(),
		events: &recordingPublisher{},
		mailer: &recordingMailer{},
		now:    testNow,
	}
	f.svc = New(Deps{
		Config: testConfig(),
		Store:  f.store,
		Carts:  f.carts,
		Events: f.events,
		Mailer: f.mailer,
		Now:    func() time.Time { return f.now },
		Async:  func(fn func()) { fn() },
	})

	ctx := context.Background()
	f.category = models.Category{ID: models.NewID(), Name: "Điện thoại", Slug: "dien-thoai"}
	f.brand = models.Brand{ID: models.NewID(), Name: "Samsung", Slug: "samsung"}
	require.NoError(t, f.store.Categories.Create(ctx, &f.category))
	require.NoError(t, f.store.Brands.Create(ctx, &f.brand))
	return f
}

func (f *fixture) user(role models.Role) context.Context {
	f.t.Helper()
	u := &models.User{ID: models.NewID(), Name: "Nguyễn Văn " + string(role), Email: models.NewID().String() + "@example.com", Role: role}
	require.NoError(f.t, f.store.Users.Create(context.Background(), u))
	return f.as(u)
}

func (f *fixture) as(u *models.User) context.Context {
	return auth.WithViewer(context.Background(), &auth.Viewer{UserID: u.ID, Email: u.Email, Role: u.Role})
}

func (f *fixture) product(name string, price int64, stock int) *models.Product {
	f.t.Helper()
	f.now = f.now.Add(time.Second)
	p := &models.Product{
		ID:         models.NewID(),
		Name:       name,
		Slug:       models.NewID().String(),
		Price:      price,
		Stock:      stock,
		CategoryID: f.category.ID,
		BrandID:    f.brand.ID,
		Images:     []string{"/images/" + name + ".jpg"},
		IsActive:   true,
		CreatedAt:  f.now,
		UpdatedAt:  f.now,
	}
	require.NoError(f.t, f.store.Products.Create(context.Background(), p))
	return p
}

func (f *fixture) stock(id models.Product) int {
	f.t.Helper()
	p, err := f.store.Products.Get(context.Background(), id.ID)
	require.NoError(f.t, err)
	return p.Stock
}

func customer() CustomerInfoInput {
	return CustomerInfoInput{
		FullName: "Trần Thị B",
		Email:    "b@example.com",
		Phone:    "0912 345 678",
		Address:  "12 Lê Lợi",
		City:     "Hồ Chí Minh",
		District: "Quận 1",
		Ward:     "Bến Nghé",
	}
}

// signVNPay signe les paramètres comme le fait la passerelle
func signVNPay(values url.Values) url.Values {
	mac := hmac.New(sha512.New, []byte(testHashSecret))
	mac.Write([]byte(values.Encode()))
	signed := url.Values{}
	for k, v := range values {
		signed[k] = v
	}
	signed.Set("vnp_SecureHashType", "HmacSHA512")
	signed.Set("vnp_SecureHash", hex.EncodeToString(mac.Sum(nil)))
	return signed
}

func vnpayReturn(o *models.Order, amount int64, code string) url.Values {
	return signVNPay(url.Values{
		"vnp_TxnRef":            {o.OrderNumber},
		"vnp_Amount":            {strconv.FormatInt(amount*100, 10)},
		"vnp_ResponseCode":      {code},
		"vnp_TransactionStatus": {code},
		"vnp_TransactionNo":     {"14012345"},
		"vnp_BankCode":          {"NCB"},
		"vnp_PayDate":           {"20250314164500"},
		"vnp_TmnCode":           {"TESTTMN"},
	})
}
