package graph

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"smartshop_back_end/internal/config"
	"smartshop_back_end/internal/middleware"
	"smartshop_back_end/internal/models"
	"smartshop_back_end/internal/repository"
	"smartshop_back_end/internal/repository/memory"
	"smartshop_back_end/internal/services"
	"smartshop_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type response struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

func (r response) code() string {
	if len(r.Errors) == 0 {
		return ""
	}
	code, _ := r.Errors[0].Extensions["code"].(string)
	return code
}

type GraphSuite struct {
	suite.Suite
	cfg    *config.Config
	store  *repository.Store
	router *gin.Engine

	category models.Category
	phone    models.Product
	admin    string
}

func TestGraphSuite(t *testing.T) {
	suite.Run(t, new(GraphSuite))
}

func (s *GraphSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.cfg = &config.Config{
		JWTSecret: "graph-secret",
		JWTTTL:    time.Hour,
		Shop:      config.ShopConfig{Name: "SmartShop", ShippingFee: 30000, FreeShippingThreshold: 500000},
		VNPay: config.VNPayConfig{
			TmnCode:    "GRAPHTMN",
			HashSecret: "graph-hash-secret",
			PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
			ReturnURL:  "http://localhost:3000/payment/vnpay-return",
		},
	}
	s.store = memory.New()
	svc := services.New(services.Deps{
		Config: s.cfg,
		Store:  s.store,
		Async:  func(fn func()) { fn() },
	})
	schema, err := NewSchema(svc)
	s.Require().NoError(err)

	s.router = gin.New()
	s.router.Use(middleware.AuthOptional(svc.Auth))
	s.router.POST("/", Handler(schema))
	s.router.GET("/", Handler(schema))

	ctx := context.Background()
	s.category = models.Category{ID: models.NewID(), Name: "Điện thoại", Slug: "dien-thoai"}
	s.Require().NoError(s.store.Categories.Create(ctx, &s.category))
	s.phone = models.Product{
		ID: models.NewID(), Name: "Galaxy S24", Slug: "galaxy-s24", Price: 200000, OriginalPrice: 250000,
		Stock: 5, CategoryID: s.category.ID, IsActive: true, Images: []string{"/images/s24.png"},
	}
	s.Require().NoError(s.store.Products.Create(ctx, &s.phone))

	admin := models.User{ID: models.NewID(), Name: "Admin", Email: "admin@smartshop.vn", Role: models.RoleAdmin}
	s.Require().NoError(s.store.Users.Create(ctx, &admin))
	s.admin, err = utils.GenerateJWT(admin, s.cfg.JWTSecret, time.Hour, time.Now())
	s.Require().NoError(err)
}

func (s *GraphSuite) post(token, query string, variables map[string]any) response {
	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var out response
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *GraphSuite) decode(raw json.RawMessage, v any) {
	s.Require().NoError(json.Unmarshal(raw, v))
}

func (s *GraphSuite) register(email string) string {
	res := s.post("", `mutation($input: RegisterInput!) { register(input: $input) { token user { email role } } }`,
		map[string]any{"input": map[string]any{"name": "Nguyễn Văn A", "email": email, "password": "matkhau123"}})
	s.Require().Empty(res.Errors)

	var payload struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	s.decode(res.Data["register"], &payload)
	s.Equal("customer", payload.User.Role)
	return payload.Token
}

func (s *GraphSuite) TestRegisterThenMe() {
	token := s.register("A@Example.com")

	res := s.post(token, `{ me { email role } }`, nil)
	s.Require().Empty(res.Errors)
	s.JSONEq(`{"email":"a@example.com","role":"customer"}`, string(res.Data["me"]))

	anon := s.post("", `{ me { email } }`, nil)
	s.Empty(anon.Errors)
	s.Equal("null", string(anon.Data["me"]))
}

func (s *GraphSuite) TestLoginWrongPassword() {
	s.register("b@example.com")
	res := s.post("", `mutation { login(email: "b@example.com", password: "wrong-pass") { token } }`, nil)
	s.Equal("INVALID_CREDENTIALS", res.code())
}

func (s *GraphSuite) TestProductsQuery() {
	res := s.post("", `{ products(sort: "price_asc") { total items { name price discountPercent inStock category { slug } brand { slug } } } }`, nil)
	s.Require().Empty(res.Errors)

	var page struct {
		Total int `json:"total"`
		Items []struct {
			Name            string  `json:"name"`
			Price           float64 `json:"price"`
			DiscountPercent int     `json:"discountPercent"`
			InStock         bool    `json:"inStock"`
			Category        *struct {
				Slug string `json:"slug"`
			} `json:"category"`
			Brand *struct{} `json:"brand"`
		} `json:"items"`
	}
	s.decode(res.Data["products"], &page)
	s.Require().Equal(1, page.Total)
	s.Equal("Galaxy S24", page.Items[0].Name)
	s.Equal(float64(200000), page.Items[0].Price)
	s.Equal(20, page.Items[0].DiscountPercent)
	s.True(page.Items[0].InStock)
	s.Require().NotNil(page.Items[0].Category)
	s.Equal("dien-thoai", page.Items[0].Category.Slug)
	s.Nil(page.Items[0].Brand)
}

func (s *GraphSuite) TestUnknownSortIsBadInput() {
	res := s.post("", `{ products(sort: "random") { total } }`, nil)
	s.Equal("BAD_USER_INPUT", res.code())
}

func (s *GraphSuite) TestInvalidIDIsBadInput() {
	res := s.post("", `{ product(id: "not-a-uuid") { name } }`, nil)
	s.Equal("BAD_USER_INPUT", res.code())
}

func (s *GraphSuite) TestMissingProductIsNull() {
	res := s.post("", `query($id: ID!) { product(id: $id) { name } }`, map[string]any{"id": models.NewID().String()})
	s.Empty(res.Errors)
	s.Equal("null", string(res.Data["product"]))
}

func (s *GraphSuite) TestAdminMutationsNeedStaff() {
	query := `mutation($input: ProductInput!) { createProduct(input: $input) { slug price } }`
	vars := map[string]any{"input": map[string]any{
		"name": "Tai nghe Bluetooth", "price": 350000, "stock": 10, "categoryId": s.category.ID.String(),
	}}

	s.Equal("UNAUTHENTICATED", s.post("", query, vars).code())

	customer := s.register("c@example.com")
	s.Equal("FORBIDDEN", s.post(customer, query, vars).code())

	res := s.post(s.admin, query, vars)
	s.Require().Empty(res.Errors)
	s.JSONEq(`{"slug":"tai-nghe-bluetooth","price":350000}`, string(res.Data["createProduct"]))
}

func (s *GraphSuite) TestCartToOrder() {
	token := s.register("d@example.com")
	vars := map[string]any{"id": s.phone.ID.String()}

	res := s.post(token, `mutation($id: ID!) { addToCart(productId: $id, quantity: 2) { totalQuantity subtotal } }`, vars)
	s.Require().Empty(res.Errors)
	s.JSONEq(`{"totalQuantity":2,"subtotal":400000}`, string(res.Data["addToCart"]))

	res = s.post(token, `mutation($id: ID!) { addToCart(productId: $id, quantity: 10) { totalQuantity } }`, vars)
	s.Equal("OUT_OF_STOCK", res.code())

	res = s.post(token, `mutation($input: CreateOrderInput!) {
		createOrder(input: $input) { paymentUrl bankTransfer { content } order { orderNumber status paymentStatus subtotal shippingFee total items { quantity } } }
	}`, map[string]any{"input": map[string]any{
		"paymentMethod": "COD",
		"customerInfo": map[string]any{
			"fullName": "Nguyễn Văn D", "phone": "0912345678", "address": "12 Lê Lợi, Quận 1",
		},
	}})
	s.Require().Empty(res.Errors)

	var result struct {
		PaymentURL   *string   `json:"paymentUrl"`
		BankTransfer *struct{} `json:"bankTransfer"`
		Order        struct {
			OrderNumber   string  `json:"orderNumber"`
			Status        string  `json:"status"`
			PaymentStatus string  `json:"paymentStatus"`
			Subtotal      float64 `json:"subtotal"`
			ShippingFee   float64 `json:"shippingFee"`
			Total         float64 `json:"total"`
		} `json:"order"`
	}
	s.decode(res.Data["createOrder"], &result)
	s.Equal("PENDING", result.Order.Status)
	s.Equal("PENDING", result.Order.PaymentStatus)
	s.Equal(float64(400000), result.Order.Subtotal)
	s.Equal(float64(30000), result.Order.ShippingFee)
	s.Equal(float64(430000), result.Order.Total)
	s.Nil(result.BankTransfer)

	res = s.post(token, `{ cart { totalQuantity } myOrders(status: PENDING) { orderNumber } }`, nil)
	s.Require().Empty(res.Errors)
	s.JSONEq(`{"totalQuantity":0}`, string(res.Data["cart"]))
	s.JSONEq(`[{"orderNumber":"`+result.Order.OrderNumber+`"}]`, string(res.Data["myOrders"]))

	p, err := s.store.Products.Get(context.Background(), s.phone.ID)
	s.Require().NoError(err)
	s.Equal(3, p.Stock)
}

func (s *GraphSuite) TestVnpayReturnFromFullURL() {
	ctx := context.Background()
	order := &models.Order{
		ID:            models.NewID(),
		OrderNumber:   "SS250314ABCD",
		UserID:        models.NewID(),
		Items:         []models.OrderItem{{ProductID: s.phone.ID, Name: s.phone.Name, Price: 200000, Quantity: 1, LineTotal: 200000}},
		PaymentMethod: models.PaymentVNPay,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
		Subtotal:      200000,
		ShippingFee:   30000,
		Total:         230000,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	s.Require().NoError(s.store.Orders.Create(ctx, order))

	values := url.Values{
		"vnp_TxnRef":            {order.OrderNumber},
		"vnp_Amount":            {"23000000"},
		"vnp_ResponseCode":      {"00"},
		"vnp_TransactionStatus": {"00"},
		"vnp_TransactionNo":     {"14098765"},
		"vnp_BankCode":          {"NCB"},
		"vnp_PayDate":           {"20250314164500"},
		"vnp_TmnCode":           {s.cfg.VNPay.TmnCode},
	}
	mac := hmac.New(sha512.New, []byte(s.cfg.VNPay.HashSecret))
	mac.Write([]byte(values.Encode()))
	values.Set("vnp_SecureHashType", "HmacSHA512")
	values.Set("vnp_SecureHash", hex.EncodeToString(mac.Sum(nil)))

	// la SPA relaie l'URL de retour telle quelle
	res := s.post("", `mutation($q: String!) { handleVnpayReturn(query: $q) { success orderNumber amount responseCode transactionNo } }`,
		map[string]any{"q": s.cfg.VNPay.ReturnURL + "?" + values.Encode()})
	s.Require().Empty(res.Errors)
	s.JSONEq(`{"success":true,"orderNumber":"SS250314ABCD","amount":230000,"responseCode":"00","transactionNo":"14098765"}`,
		string(res.Data["handleVnpayReturn"]))

	stored, err := s.store.Orders.GetByNumber(ctx, order.OrderNumber)
	s.Require().NoError(err)
	s.Equal(models.PaymentPaid, stored.PaymentStatus)
	s.Equal(models.OrderConfirmed, stored.Status)

	// la query string seule reste acceptée
	res = s.post("", `mutation($q: String!) { handleVnpayReturn(query: $q) { success } }`,
		map[string]any{"q": "?" + values.Encode()})
	s.Require().Empty(res.Errors)
	s.JSONEq(`{"success":true}`, string(res.Data["handleVnpayReturn"]))
}

func (s *GraphSuite) TestInvalidPhoneIsBadInput() {
	token := s.register("e@example.com")
	res := s.post(token, `mutation($input: CreateOrderInput!) { createOrder(input: $input) { order { id } } }`,
		map[string]any{"input": map[string]any{
			"paymentMethod": "COD",
			"items":         []any{map[string]any{"productId": s.phone.ID.String(), "quantity": 1}},
			"customerInfo":  map[string]any{"fullName": "E", "phone": "12345", "address": "Hà Nội"},
		}})
	s.Equal("BAD_USER_INPUT", res.code())
}

func (s *GraphSuite) TestGETQueryString() {
	q := url.Values{"query": {`{ categories { slug } }`}}
	req := httptest.NewRequest(http.MethodGet, "/?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"data":{"categories":[{"slug":"dien-thoai"}]}}`, w.Body.String())
}

func (s *GraphSuite) TestMalformedRequest() {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{nope"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func TestInternalErrorsAreMasked(t *testing.T) {
	err := toGraphQLError(context.Background(), context.DeadlineExceeded)
	var gqlErr *Error
	require.ErrorAs(t, err, &gqlErr)
	require.Equal(t, "INTERNAL_SERVER_ERROR", gqlErr.Extensions()["code"])
	require.Equal(t, "erreur interne du serveur", gqlErr.Error())
}
