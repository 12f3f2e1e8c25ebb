package graph

import (
	"errors"
	"time"

	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/models"
	"smartshop_back_end/internal/services"

	"github.com/gocql/gocql"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// DateTime est sérialisé en RFC3339 UTC, null pour une date zéro
var DateTime = graphql.NewScalar(graphql.ScalarConfig{
	Name: "DateTime",
	Serialize: func(value interface{}) interface{} {
		switch t := value.(type) {
		case time.Time:
			if t.IsZero() {
				return nil
			}
			return t.UTC().Format(time.RFC3339)
		case *time.Time:
			if t == nil || t.IsZero() {
				return nil
			}
			return t.UTC().Format(time.RFC3339)
		}
		return nil
	},
	ParseValue: func(value interface{}) interface{} {
		if s, ok := value.(string); ok {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return t
			}
		}
		return nil
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		if v, ok := valueAST.(*ast.StringValue); ok {
			if t, err := time.Parse(time.RFC3339, v.Value); err == nil {
				return t
			}
		}
		return nil
	},
})

// enumOf construit un enum dont les valeurs internes gardent leur type Go
func enumOf[T ~string](name string, values []T) *graphql.Enum {
	cfg := graphql.EnumValueConfigMap{}
	for _, v := range values {
		cfg[string(v)] = &graphql.EnumValueConfig{Value: v}
	}
	return graphql.NewEnum(graphql.EnumConfig{Name: name, Values: cfg})
}

var (
	orderStatusEnum   = enumOf("OrderStatus", models.OrderStatuses)
	paymentStatusEnum = enumOf("PaymentStatus", models.PaymentStatuses)
	paymentMethodEnum = enumOf("PaymentMethod", models.PaymentMethods)
	reviewStatusEnum  = enumOf("ReviewStatus", models.ReviewStatuses)
)

func nonNull(t graphql.Output) graphql.Output { return graphql.NewNonNull(t) }

func listOf(t graphql.Output) graphql.Output {
	return graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t)))
}

// optionalID renvoie null pour une référence vide
func optionalID(id gocql.UUID) interface{} {
	if models.IsZeroID(id) {
		return nil
	}
	return id.String()
}

func productOf(src interface{}) models.Product {
	switch p := src.(type) {
	case models.Product:
		return p
	case *models.Product:
		return *p
	}
	return models.Product{}
}

// notFoundAsNil : une référence morte devient null plutôt qu'une erreur
func notFoundAsNil[T any](v *T, err error) (interface{}, error) {
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

type types struct {
	user, authPayload *graphql.Object

	category, brand, product, productPage *graphql.Object

	cartLine, cart *graphql.Object

	orderItem, customerInfo, order, orderPage *graphql.Object

	bankTransfer, createOrderResult, vnpayResult *graphql.Object

	review, ratingSummary, reviewPage, eligibility *graphql.Object

	productFilterInput, productInput, categoryInput, brandInput *graphql.InputObject

	registerInput, cartItemInput, customerInfoInput *graphql.InputObject

	orderItemInput, createOrderInput, createReviewInput *graphql.InputObject
}

func newTypes(svc *services.Services) *types {
	t := &types{}

	t.user = graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: nonNull(graphql.ID)},
			"name":      &graphql.Field{Type: nonNull(graphql.String)},
			"email":     &graphql.Field{Type: nonNull(graphql.String)},
			"phone":     &graphql.Field{Type: graphql.String},
			"role":      &graphql.Field{Type: nonNull(graphql.String)},
			"createdAt": &graphql.Field{Type: DateTime},
		},
	})

	t.category = graphql.NewObject(graphql.ObjectConfig{
		Name: "Category",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: nonNull(graphql.ID)},
			"name":        &graphql.Field{Type: nonNull(graphql.String)},
			"slug":        &graphql.Field{Type: nonNull(graphql.String)},
			"description": &graphql.Field{Type: graphql.String},
			"imageUrl":    &graphql.Field{Type: graphql.String},
			"parentId":    &graphql.Field{Type: graphql.ID},
			"createdAt":   &graphql.Field{Type: DateTime},
		},
	})

	t.brand = graphql.NewObject(graphql.ObjectConfig{
		Name: "Brand",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: nonNull(graphql.ID)},
			"name":        &graphql.Field{Type: nonNull(graphql.String)},
			"slug":        &graphql.Field{Type: nonNull(graphql.String)},
			"description": &graphql.Field{Type: graphql.String},
			"logoUrl":     &graphql.Field{Type: graphql.String},
			"createdAt":   &graphql.Field{Type: DateTime},
		},
	})

	t.product = graphql.NewObject(graphql.ObjectConfig{
		Name: "Product",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: nonNull(graphql.ID)},
			"name":          &graphql.Field{Type: nonNull(graphql.String)},
			"slug":          &graphql.Field{Type: nonNull(graphql.String)},
			"description":   &graphql.Field{Type: graphql.String},
			"price":         &graphql.Field{Type: nonNull(graphql.Float)},
			"originalPrice": &graphql.Field{Type: graphql.Float},
			"stock":         &graphql.Field{Type: nonNull(graphql.Int)},
			"images":        &graphql.Field{Type: listOf(graphql.String)},
			"isFeatured":    &graphql.Field{Type: nonNull(graphql.Boolean)},
			"isActive":      &graphql.Field{Type: nonNull(graphql.Boolean)},
			"ratingAverage": &graphql.Field{Type: nonNull(graphql.Float)},
			"reviewCount":   &graphql.Field{Type: nonNull(graphql.Int)},
			"soldCount":     &graphql.Field{Type: nonNull(graphql.Int)},
			"createdAt":     &graphql.Field{Type: DateTime},
			"updatedAt":     &graphql.Field{Type: DateTime},
			"categoryId": &graphql.Field{
				Type: graphql.ID,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return optionalID(productOf(p.Source).CategoryID), nil
				},
			},
			"brandId": &graphql.Field{
				Type: graphql.ID,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return optionalID(productOf(p.Source).BrandID), nil
				},
			},
			"discountPercent": &graphql.Field{
				Type: nonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return productOf(p.Source).DiscountPercent(), nil
				},
			},
			"inStock": &graphql.Field{
				Type: nonNull(graphql.Boolean),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return productOf(p.Source).InStock(), nil
				},
			},
			"category": &graphql.Field{
				Type: t.category,
				Resolve: resolve(func(p graphql.ResolveParams) (interface{}, error) {
					id := productOf(p.Source).CategoryID
					if models.IsZeroID(id) {
						return nil, nil
					}
					return notFoundAsNil(svc.Catalog.Category(p.Context, id))
				}),
			},
			"brand": &graphql.Field{
				Type: t.brand,
				Resolve: resolve(func(p graphql.ResolveParams) (interface{}, error) {
					id := productOf(p.Source).BrandID
					if models.IsZeroID(id) {
						return nil, nil
					}
					return notFoundAsNil(svc.Catalog.Brand(p.Context, id))
				}),
			},
		},
	})

	t.productPage = graphql.NewObject(graphql.ObjectConfig{
		Name: "ProductPage",
		Fields: graphql.Fields{
			"items": &graphql.Field{Type: listOf(t.product)},
			"total": &graphql.Field{Type: nonNull(graphql.Int)},
		},
	})

	t.cartLine = graphql.NewObject(graphql.ObjectConfig{
		Name: "CartLine",
		Fields: graphql.Fields{
			"productId": &graphql.Field{Type: nonNull(graphql.ID)},
			"name":      &graphql.Field{Type: nonNull(graphql.String)},
			"slug":      &graphql.Field{Type: nonNull(graphql.String)},
			"price":     &graphql.Field{Type: nonNull(graphql.Float)},
			"image":     &graphql.Field{Type: graphql.String},
			"stock":     &graphql.Field{Type: nonNull(graphql.Int)},
			"quantity":  &graphql.Field{Type: nonNull(graphql.Int)},
			"lineTotal": &graphql.Field{Type: nonNull(graphql.Float)},
		},
	})

	t.cart = graphql.NewObject(graphql.ObjectConfig{
		Name: "Cart",
		Fields: graphql.Fields{
			"items":         &graphql.Field{Type: listOf(t.cartLine)},
			"totalQuantity": &graphql.Field{Type: nonNull(graphql.Int)},
			"subtotal":      &graphql.Field{Type: nonNull(graphql.Float)},
		},
	})

	t.orderItem = graphql.NewObject(graphql.ObjectConfig{
		Name: "OrderItem",
		Fields: graphql.Fields{
			"productId": &graphql.Field{Type: nonNull(graphql.ID)},
			"name":      &graphql.Field{Type: nonNull(graphql.String)},
			"image":     &graphql.Field{Type: graphql.String},
			"price":     &graphql.Field{Type: nonNull(graphql.Float)},
			"quantity":  &graphql.Field{Type: nonNull(graphql.Int)},
			"lineTotal": &graphql.Field{Type: nonNull(graphql.Float)},
		},
	})

	t.customerInfo = graphql.NewObject(graphql.ObjectConfig{
		Name: "CustomerInfo",
		Fields: graphql.Fields{
			"fullName": &graphql.Field{Type: nonNull(graphql.String)},
			"email":    &graphql.Field{Type: graphql.String},
			"phone":    &graphql.Field{Type: nonNull(graphql.String)},
			"address":  &graphql.Field{Type: nonNull(graphql.String)},
			"city":     &graphql.Field{Type: graphql.String},
			"district": &graphql.Field{Type: graphql.String},
			"ward":     &graphql.Field{Type: graphql.String},
		},
	})

	t.order = graphql.NewObject(graphql.ObjectConfig{
		Name: "Order",
		Fields: graphql.Fields{
			"id":               &graphql.Field{Type: nonNull(graphql.ID)},
			"orderNumber":      &graphql.Field{Type: nonNull(graphql.String)},
			"userId":           &graphql.Field{Type: nonNull(graphql.ID)},
			"items":            &graphql.Field{Type: listOf(t.orderItem)},
			"customerInfo":     &graphql.Field{Type: nonNull(t.customerInfo)},
			"paymentMethod":    &graphql.Field{Type: nonNull(paymentMethodEnum)},
			"status":           &graphql.Field{Type: nonNull(orderStatusEnum)},
			"paymentStatus":    &graphql.Field{Type: nonNull(paymentStatusEnum)},
			"subtotal":         &graphql.Field{Type: nonNull(graphql.Float)},
			"shippingFee":      &graphql.Field{Type: nonNull(graphql.Float)},
			"total":            &graphql.Field{Type: nonNull(graphql.Float)},
			"notes":            &graphql.Field{Type: graphql.String},
			"cancelReason":     &graphql.Field{Type: graphql.String},
			"transactionNo":    &graphql.Field{Type: graphql.String},
			"bankCode":         &graphql.Field{Type: graphql.String},
			"paidAt":           &graphql.Field{Type: DateTime},
			"paymentExpiresAt": &graphql.Field{Type: DateTime},
			"createdAt":        &graphql.Field{Type: DateTime},
			"updatedAt":        &graphql.Field{Type: DateTime},
		},
	})

	t.orderPage = graphql.NewObject(graphql.ObjectConfig{
		Name: "OrderPage",
		Fields: graphql.Fields{
			"items": &graphql.Field{Type: listOf(t.order)},
			"total": &graphql.Field{Type: nonNull(graphql.Int)},
		},
	})

	t.bankTransfer = graphql.NewObject(graphql.ObjectConfig{
		Name: "BankTransferInfo",
		Fields: graphql.Fields{
			"bankName":      &graphql.Field{Type: nonNull(graphql.String)},
			"accountNumber": &graphql.Field{Type: nonNull(graphql.String)},
			"accountName":   &graphql.Field{Type: nonNull(graphql.String)},
			"amount":        &graphql.Field{Type: nonNull(graphql.Float)},
			"content":       &graphql.Field{Type: nonNull(graphql.String)},
			"qrCode":        &graphql.Field{Type: graphql.String},
		},
	})

	t.createOrderResult = graphql.NewObject(graphql.ObjectConfig{
		Name: "CreateOrderResult",
		Fields: graphql.Fields{
			"order":        &graphql.Field{Type: nonNull(t.order)},
			"paymentUrl":   &graphql.Field{Type: graphql.String},
			"bankTransfer": &graphql.Field{Type: t.bankTransfer},
		},
	})

	t.vnpayResult = graphql.NewObject(graphql.ObjectConfig{
		Name: "VnpayReturnResult",
		Fields: graphql.Fields{
			"success":       &graphql.Field{Type: nonNull(graphql.Boolean)},
			"message":       &graphql.Field{Type: nonNull(graphql.String)},
			"orderNumber":   &graphql.Field{Type: nonNull(graphql.String)},
			"amount":        &graphql.Field{Type: nonNull(graphql.Float)},
			"responseCode":  &graphql.Field{Type: nonNull(graphql.String)},
			"transactionNo": &graphql.Field{Type: graphql.String},
			"bankCode":      &graphql.Field{Type: graphql.String},
			"payDate":       &graphql.Field{Type: graphql.String},
			"order":         &graphql.Field{Type: t.order},
		},
	})

	t.review = graphql.NewObject(graphql.ObjectConfig{
		Name: "Review",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: nonNull(graphql.ID)},
			"productId":       &graphql.Field{Type: nonNull(graphql.ID)},
			"userId":          &graphql.Field{Type: nonNull(graphql.ID)},
			"userName":        &graphql.Field{Type: nonNull(graphql.String)},
			"orderId":         &graphql.Field{Type: graphql.ID},
			"rating":          &graphql.Field{Type: nonNull(graphql.Int)},
			"comment":         &graphql.Field{Type: nonNull(graphql.String)},
			"images":          &graphql.Field{Type: listOf(graphql.String)},
			"adminResponse":   &graphql.Field{Type: graphql.String},
			"adminResponseAt": &graphql.Field{Type: DateTime},
			"helpfulVotes":    &graphql.Field{Type: nonNull(graphql.Int)},
			"status":          &graphql.Field{Type: nonNull(reviewStatusEnum)},
			"createdAt":       &graphql.Field{Type: DateTime},
		},
	})

	t.ratingSummary = graphql.NewObject(graphql.ObjectConfig{
		Name: "RatingSummary",
		Fields: graphql.Fields{
			"average":      &graphql.Field{Type: nonNull(graphql.Float)},
			"total":        &graphql.Field{Type: nonNull(graphql.Int)},
			"distribution": &graphql.Field{Type: listOf(graphql.Int)},
		},
	})

	t.reviewPage = graphql.NewObject(graphql.ObjectConfig{
		Name: "ReviewPage",
		Fields: graphql.Fields{
			"reviews": &graphql.Field{Type: listOf(t.review)},
			"total":   &graphql.Field{Type: nonNull(graphql.Int)},
			"summary": &graphql.Field{Type: nonNull(t.ratingSummary)},
		},
	})

	t.eligibility = graphql.NewObject(graphql.ObjectConfig{
		Name: "ReviewEligibility",
		Fields: graphql.Fields{
			"canReview": &graphql.Field{Type: nonNull(graphql.Boolean)},
			"reason":    &graphql.Field{Type: graphql.String},
			"orderId":   &graphql.Field{Type: graphql.ID},
		},
	})

	t.authPayload = graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthPayload",
		Fields: graphql.Fields{
			"token": &graphql.Field{Type: nonNull(graphql.String)},
			"user":  &graphql.Field{Type: nonNull(t.user)},
		},
	})

	t.newInputs()
	return t
}

func field(t graphql.Input) *graphql.InputObjectFieldConfig {
	return &graphql.InputObjectFieldConfig{Type: t}
}

func (t *types) newInputs() {
	t.productFilterInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ProductFilterInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"search":     field(graphql.String),
			"categoryId": field(graphql.ID),
			"brandId":    field(graphql.ID),
			"minPrice":   field(graphql.Float),
			"maxPrice":   field(graphql.Float),
			"isFeatured": field(graphql.Boolean),
			"inStock":    field(graphql.Boolean),
		},
	})

	t.productInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ProductInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":          field(graphql.String),
			"slug":          field(graphql.String),
			"description":   field(graphql.String),
			"price":         field(graphql.Float),
			"originalPrice": field(graphql.Float),
			"stock":         field(graphql.Int),
			"categoryId":    field(graphql.ID),
			"brandId":       field(graphql.ID),
			"images":        field(graphql.NewList(graphql.NewNonNull(graphql.String))),
			"isFeatured":    field(graphql.Boolean),
			"isActive":      field(graphql.Boolean),
		},
	})

	t.categoryInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CategoryInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":        field(graphql.String),
			"slug":        field(graphql.String),
			"description": field(graphql.String),
			"imageUrl":    field(graphql.String),
			"parentId":    field(graphql.ID),
		},
	})

	t.brandInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "BrandInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":        field(graphql.String),
			"slug":        field(graphql.String),
			"description": field(graphql.String),
			"logoUrl":     field(graphql.String),
		},
	})

	t.registerInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "RegisterInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":     field(graphql.NewNonNull(graphql.String)),
			"email":    field(graphql.NewNonNull(graphql.String)),
			"password": field(graphql.NewNonNull(graphql.String)),
			"phone":    field(graphql.String),
		},
	})

	t.cartItemInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CartItemInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"productId": field(graphql.NewNonNull(graphql.ID)),
			"quantity":  field(graphql.NewNonNull(graphql.Int)),
		},
	})

	t.customerInfoInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CustomerInfoInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"fullName": field(graphql.NewNonNull(graphql.String)),
			"email":    field(graphql.String),
			"phone":    field(graphql.NewNonNull(graphql.String)),
			"address":  field(graphql.NewNonNull(graphql.String)),
			"city":     field(graphql.String),
			"district": field(graphql.String),
			"ward":     field(graphql.String),
		},
	})

	t.orderItemInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "OrderItemInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"productId": field(graphql.NewNonNull(graphql.ID)),
			"quantity":  field(graphql.NewNonNull(graphql.Int)),
		},
	})

	t.createOrderInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateOrderInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"items":         field(graphql.NewList(graphql.NewNonNull(t.orderItemInput))),
			"customerInfo":  field(graphql.NewNonNull(t.customerInfoInput)),
			"paymentMethod": field(graphql.NewNonNull(paymentMethodEnum)),
			"notes":         field(graphql.String),
		},
	})

	t.createReviewInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateReviewInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"productId": field(graphql.NewNonNull(graphql.ID)),
			"orderId":   field(graphql.ID),
			"rating":    field(graphql.NewNonNull(graphql.Int)),
			"comment":   field(graphql.NewNonNull(graphql.String)),
			"images":    field(graphql.NewList(graphql.NewNonNull(graphql.String))),
		},
	})
}
