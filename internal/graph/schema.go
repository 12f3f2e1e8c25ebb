// Package graph expose l'API GraphQL consommée par la SPA.
package graph

import (
	"net/url"

	"smartshop_back_end/internal/models"
	"smartshop_back_end/internal/services"

	"github.com/graphql-go/graphql"
)

type resolver struct {
	svc *services.Services
}

func arg(t graphql.Input) *graphql.ArgumentConfig {
	return &graphql.ArgumentConfig{Type: t}
}

func required(t graphql.Input) *graphql.ArgumentConfig {
	return &graphql.ArgumentConfig{Type: graphql.NewNonNull(t)}
}

var pageArgs = graphql.FieldConfigArgument{
	"limit":  arg(graphql.Int),
	"offset": arg(graphql.Int),
}

func withPage(args graphql.FieldConfigArgument) graphql.FieldConfigArgument {
	for k, v := range pageArgs {
		args[k] = v
	}
	return args
}

// NewSchema assemble les requêtes et mutations de la boutique
func NewSchema(svc *services.Services) (graphql.Schema, error) {
	t := newTypes(svc)
	r := &resolver{svc: svc}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{Type: t.user, Resolve: resolve(r.me)},

			"products": &graphql.Field{
				Type: nonNull(t.productPage),
				Args: withPage(graphql.FieldConfigArgument{
					"filter": arg(t.productFilterInput),
					"sort":   arg(graphql.String),
				}),
				Resolve: resolve(r.products),
			},
			"product": &graphql.Field{
				Type:    t.product,
				Args:    graphql.FieldConfigArgument{"id": required(graphql.ID)},
				Resolve: resolve(r.product),
			},
			"productBySlug": &graphql.Field{
				Type:    t.product,
				Args:    graphql.FieldConfigArgument{"slug": required(graphql.String)},
				Resolve: resolve(r.productBySlug),
			},
			"featuredProducts": &graphql.Field{
				Type:    listOf(t.product),
				Args:    graphql.FieldConfigArgument{"limit": arg(graphql.Int)},
				Resolve: resolve(r.featuredProducts),
			},
			"relatedProducts": &graphql.Field{
				Type: listOf(t.product),
				Args: graphql.FieldConfigArgument{
					"productId": required(graphql.ID),
					"limit":     arg(graphql.Int),
				},
				Resolve: resolve(r.relatedProducts),
			},
			"searchProducts": &graphql.Field{
				Type: listOf(t.product),
				Args: graphql.FieldConfigArgument{
					"query": required(graphql.String),
					"limit": arg(graphql.Int),
				},
				Resolve: resolve(r.searchProducts),
			},
			"searchSuggestions": &graphql.Field{
				Type: listOf(graphql.String),
				Args: graphql.FieldConfigArgument{
					"query": required(graphql.String),
					"limit": arg(graphql.Int),
				},
				Resolve: resolve(r.searchSuggestions),
			},
			"categories": &graphql.Field{Type: listOf(t.category), Resolve: resolve(r.categories)},
			"category": &graphql.Field{
				Type:    t.category,
				Args:    graphql.FieldConfigArgument{"id": required(graphql.ID)},
				Resolve: resolve(r.category),
			},
			"brands": &graphql.Field{Type: listOf(t.brand), Resolve: resolve(r.brands)},
			"brand": &graphql.Field{
				Type:    t.brand,
				Args:    graphql.FieldConfigArgument{"id": required(graphql.ID)},
				Resolve: resolve(r.brand),
			},

			"cart": &graphql.Field{Type: nonNull(t.cart), Resolve: resolve(r.cart)},

			"myOrders": &graphql.Field{
				Type:    listOf(t.order),
				Args:    graphql.FieldConfigArgument{"status": arg(orderStatusEnum)},
				Resolve: resolve(r.myOrders),
			},
			"order": &graphql.Field{
				Type:    t.order,
				Args:    graphql.FieldConfigArgument{"id": required(graphql.ID)},
				Resolve: resolve(r.order),
			},
			"orders": &graphql.Field{
				Type:    nonNull(t.orderPage),
				Args:    withPage(graphql.FieldConfigArgument{"status": arg(orderStatusEnum)}),
				Resolve: resolve(r.orders),
			},

			"canReviewProduct": &graphql.Field{
				Type:    nonNull(t.eligibility),
				Args:    graphql.FieldConfigArgument{"productId": required(graphql.ID)},
				Resolve: resolve(r.canReviewProduct),
			},
			"productReviews": &graphql.Field{
				Type: nonNull(t.reviewPage),
				Args: withPage(graphql.FieldConfigArgument{
					"productId": required(graphql.ID),
					"rating":    arg(graphql.Int),
				}),
				Resolve: resolve(r.productReviews),
			},
			"myReviews": &graphql.Field{Type: listOf(t.review), Resolve: resolve(r.myReviews)},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"register": &graphql.Field{
				Type:    nonNull(t.authPayload),
				Args:    graphql.FieldConfigArgument{"input": required(t.registerInput)},
				Resolve: resolve(r.register),
			},
			"login": &graphql.Field{
				Type: nonNull(t.authPayload),
				Args: graphql.FieldConfigArgument{
					"email":    required(graphql.String),
					"password": required(graphql.String),
				},
				Resolve: resolve(r.login),
			},
			"updateUserRole": &graphql.Field{
				Type: nonNull(t.user),
				Args: graphql.FieldConfigArgument{
					"userId": required(graphql.ID),
					"role":   required(graphql.String),
				},
				Resolve: resolve(r.updateUserRole),
			},

			"createProduct": &graphql.Field{
				Type:    nonNull(t.product),
				Args:    graphql.FieldConfigArgument{"input": required(t.productInput)},
				Resolve: resolve(r.createProduct),
			},
			"updateProduct": &graphql.Field{
				Type: nonNull(t.product),
				Args: graphql.FieldConfigArgument{
					"id":    required(graphql.ID),
					"input": required(t.productInput),
				},
				Resolve: resolve(r.updateProduct),
			},
			"deleteProduct": &graphql.Field{
				Type:    nonNull(graphql.Boolean),
				Args:    graphql.FieldConfigArgument{"id": required(graphql.ID)},
				Resolve: resolve(r.deleteProduct),
			},
			"createCategory": &graphql.Field{
				Type:    nonNull(t.category),
				Args:    graphql.FieldConfigArgument{"input": required(t.categoryInput)},
				Resolve: resolve(r.createCategory),
			},
			"updateCategory": &graphql.Field{
				Type: nonNull(t.category),
				Args: graphql.FieldConfigArgument{
					"id":    required(graphql.ID),
					"input": required(t.categoryInput),
				},
				Resolve: resolve(r.updateCategory),
			},
			"deleteCategory": &graphql.Field{
				Type:    nonNull(graphql.Boolean),
				Args:    graphql.FieldConfigArgument{"id": required(graphql.ID)},
				Resolve: resolve(r.deleteCategory),
			},
			"createBrand": &graphql.Field{
				Type:    nonNull(t.brand),
				Args:    graphql.FieldConfigArgument{"input": required(t.brandInput)},
				Resolve: resolve(r.createBrand),
			},
			"updateBrand": &graphql.Field{
				Type: nonNull(t.brand),
				Args: graphql.FieldConfigArgument{
					"id":    required(graphql.ID),
					"input": required(t.brandInput),
				},
				Resolve: resolve(r.updateBrand),
			},
			"deleteBrand": &graphql.Field{
				Type:    nonNull(graphql.Boolean),
				Args:    graphql.FieldConfigArgument{"id": required(graphql.ID)},
				Resolve: resolve(r.deleteBrand),
			},

			"addToCart": &graphql.Field{
				Type: nonNull(t.cart),
				Args: graphql.FieldConfigArgument{
					"productId": required(graphql.ID),
					"quantity":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
				},
				Resolve: resolve(r.addToCart),
			},
			"updateCartItem": &graphql.Field{
				Type: nonNull(t.cart),
				Args: graphql.FieldConfigArgument{
					"productId": required(graphql.ID),
					"quantity":  required(graphql.Int),
				},
				Resolve: resolve(r.updateCartItem),
			},
			"removeFromCart": &graphql.Field{
				Type:    nonNull(t.cart),
				Args:    graphql.FieldConfigArgument{"productId": required(graphql.ID)},
				Resolve: resolve(r.removeFromCart),
			},
			"clearCart": &graphql.Field{Type: nonNull(t.cart), Resolve: resolve(r.clearCart)},
			"mergeCart": &graphql.Field{
				Type: nonNull(t.cart),
				Args: graphql.FieldConfigArgument{
					"items": required(graphql.NewList(graphql.NewNonNull(t.cartItemInput))),
				},
				Resolve: resolve(r.mergeCart),
			},

			"createOrder": &graphql.Field{
				Type:    nonNull(t.createOrderResult),
				Args:    graphql.FieldConfigArgument{"input": required(t.createOrderInput)},
				Resolve: resolve(r.createOrder),
			},
			"cancelOrder": &graphql.Field{
				Type: nonNull(t.order),
				Args: graphql.FieldConfigArgument{
					"id":     required(graphql.ID),
					"reason": arg(graphql.String),
				},
				Resolve: resolve(r.cancelOrder),
			},
			"updateOrderStatus": &graphql.Field{
				Type: nonNull(t.order),
				Args: graphql.FieldConfigArgument{
					"id":     required(graphql.ID),
					"status": required(orderStatusEnum),
				},
				Resolve: resolve(r.updateOrderStatus),
			},
			"updatePaymentStatus": &graphql.Field{
				Type: nonNull(t.order),
				Args: graphql.FieldConfigArgument{
					"id":            required(graphql.ID),
					"paymentStatus": required(paymentStatusEnum),
				},
				Resolve: resolve(r.updatePaymentStatus),
			},
			"createVnpayPaymentUrl": &graphql.Field{
				Type:    nonNull(graphql.String),
				Args:    graphql.FieldConfigArgument{"orderId": required(graphql.ID)},
				Resolve: resolve(r.createVnpayPaymentURL),
			},
			"handleVnpayReturn": &graphql.Field{
				Type:    nonNull(t.vnpayResult),
				Args:    graphql.FieldConfigArgument{"query": required(graphql.String)},
				Resolve: resolve(r.handleVnpayReturn),
			},

			"createReview": &graphql.Field{
				Type:    nonNull(t.review),
				Args:    graphql.FieldConfigArgument{"input": required(t.createReviewInput)},
				Resolve: resolve(r.createReview),
			},
			"voteReviewHelpful": &graphql.Field{
				Type:    nonNull(t.review),
				Args:    graphql.FieldConfigArgument{"reviewId": required(graphql.ID)},
				Resolve: resolve(r.voteReviewHelpful),
			},
			"respondToReview": &graphql.Field{
				Type: nonNull(t.review),
				Args: graphql.FieldConfigArgument{
					"reviewId": required(graphql.ID),
					"response": required(graphql.String),
				},
				Resolve: resolve(r.respondToReview),
			},
			"moderateReview": &graphql.Field{
				Type: nonNull(t.review),
				Args: graphql.FieldConfigArgument{
					"reviewId": required(graphql.ID),
					"status":   required(reviewStatusEnum),
				},
				Resolve: resolve(r.moderateReview),
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}

// --- Auth ---

func (r *resolver) me(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.Auth.Me(p.Context)
}

func (r *resolver) register(p graphql.ResolveParams) (interface{}, error) {
	in := mapArg(p.Args, "input")
	return r.svc.Auth.Register(p.Context, services.RegisterInput{
		Name:     stringArg(in, "name"),
		Email:    stringArg(in, "email"),
		Password: stringArg(in, "password"),
		Phone:    stringArg(in, "phone"),
	})
}

func (r *resolver) login(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.Auth.Login(p.Context, stringArg(p.Args, "email"), stringArg(p.Args, "password"))
}

func (r *resolver) updateUserRole(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "userId")
	if err != nil {
		return nil, err
	}
	return r.svc.Auth.UpdateUserRole(p.Context, id, models.Role(stringArg(p.Args, "role")))
}

// --- Catalogue ---

func (r *resolver) products(p graphql.ResolveParams) (interface{}, error) {
	in := mapArg(p.Args, "filter")
	f := models.ProductFilter{
		Search:     stringArg(in, "search"),
		MinPrice:   optMoneyArg(in, "minPrice"),
		MaxPrice:   optMoneyArg(in, "maxPrice"),
		IsFeatured: optBoolArg(in, "isFeatured"),
		InStock:    optBoolArg(in, "inStock"),
	}
	var err error
	if f.CategoryID, err = optIDArg(in, "categoryId"); err != nil {
		return nil, err
	}
	if f.BrandID, err = optIDArg(in, "brandId"); err != nil {
		return nil, err
	}
	return r.svc.Catalog.ListProducts(p.Context, f, stringArg(p.Args, "sort"),
		intArg(p.Args, "limit", 0), intArg(p.Args, "offset", 0))
}

func (r *resolver) product(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "id")
	if err != nil {
		return nil, err
	}
	return notFoundAsNil(r.svc.Catalog.Product(p.Context, id))
}

func (r *resolver) productBySlug(p graphql.ResolveParams) (interface{}, error) {
	return notFoundAsNil(r.svc.Catalog.ProductBySlug(p.Context, stringArg(p.Args, "slug")))
}

func (r *resolver) featuredProducts(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.Catalog.FeaturedProducts(p.Context, intArg(p.Args, "limit", 0))
}

func (r *resolver) relatedProducts(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "productId")
	if err != nil {
		return nil, err
	}
	return r.svc.Catalog.RelatedProducts(p.Context, id, intArg(p.Args, "limit", 0))
}

func (r *resolver) searchProducts(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.Catalog.SearchProducts(p.Context, stringArg(p.Args, "query"), intArg(p.Args, "limit", 0))
}

func (r *resolver) searchSuggestions(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.Catalog.SearchSuggestions(p.Context, stringArg(p.Args, "query"), intArg(p.Args, "limit", 0))
}

func (r *resolver) categories(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.Catalog.Categories(p.Context)
}

func (r *resolver) category(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "id")
	if err != nil {
		return nil, err
	}
	return notFoundAsNil(r.svc.Catalog.Category(p.Context, id))
}

func (r *resolver) brands(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.Catalog.Brands(p.Context)
}

func (r *resolver) brand(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "id")
	if err != nil {
		return nil, err
	}
	return notFoundAsNil(r.svc.Catalog.Brand(p.Context, id))
}

func productInput(in map[string]interface{}) (services.ProductInput, error) {
	out := services.ProductInput{
		Name:          optStringArg(in, "name"),
		Slug:          optStringArg(in, "slug"),
		Description:   optStringArg(in, "description"),
		Price:         optMoneyArg(in, "price"),
		OriginalPrice: optMoneyArg(in, "originalPrice"),
		Stock:         optIntArg(in, "stock"),
		Images:        stringsArg(in, "images"),
		IsFeatured:    optBoolArg(in, "isFeatured"),
		IsActive:      optBoolArg(in, "isActive"),
	}
	var err error
	if out.CategoryID, err = optIDArg(in, "categoryId"); err != nil {
		return out, err
	}
	if out.BrandID, err = optIDArg(in, "brandId"); err != nil {
		return out, err
	}
	return out, nil
}

func (r *resolver) createProduct(p graphql.ResolveParams) (interface{}, error) {
	in, err := productInput(mapArg(p.Args, "input"))
	if err != nil {
		return nil, err
	}
	return r.svc.Catalog.CreateProduct(p.Context, in)
}

func (r *resolver) updateProduct(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "id")
	if err != nil {
		return nil, err
	}
	in, err := productInput(mapArg(p.Args, "input"))
	if err != nil {
		return nil, err
	}
	return r.svc.Catalog.UpdateProduct(p.Context, id, in)
}

func (r *resolver) deleteProduct(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "id")
	if err != nil {
		return nil, err
	}
	return r.svc.Catalog.DeleteProduct(p.Context, id)
}

func categoryInput(in map[string]interface{}) (services.CategoryInput, error) {
	parent, err := optIDArg(in, "parentId")
	return services.CategoryInput{
		Name:        optStringArg(in, "name"),
		Slug:        optStringArg(in, "slug"),
		Description: optStringArg(in, "description"),
		ImageURL:    optStringArg(in, "imageUrl"),
		ParentID:    parent,
	}, err
}

func (r *resolver) createCategory(p graphql.ResolveParams) (interface{}, error) {
	in, err := categoryInput(mapArg(p.Args, "input"))
	if err != nil {
		return nil, err
	}
	return r.svc.Catalog.CreateCategory(p.Context, in)
}

func (r *resolver) updateCategory(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "id")
	if err != nil {
		return nil, err
	}
	in, err := categoryInput(mapArg(p.Args, "input"))
	if err != nil {
		return nil, err
	}
	return r.svc.Catalog.UpdateCategory(p.Context, id, in)
}

func (r *resolver) deleteCategory(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "id")
	if err != nil {
		return nil, err
	}
	return r.svc.Catalog.DeleteCategory(p.Context, id)
}

func brandInput(in map[string]interface{}) services.BrandInput {
	return services.BrandInput{
		Name:        optStringArg(in, "name"),
		Slug:        optStringArg(in, "slug"),
		Description: optStringArg(in, "description"),
		LogoURL:     optStringArg(in, "logoUrl"),
	}
}

func (r *resolver) createBrand(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.Catalog.CreateBrand(p.Context, brandInput(mapArg(p.Args, "input")))
}

func (r *resolver) updateBrand(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "id")
	if err != nil {
		return nil, err
	}
	return r.svc.Catalog.UpdateBrand(p.Context, id, brandInput(mapArg(p.Args, "input")))
}

func (r *resolver) deleteBrand(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "id")
	if err != nil {
		return nil, err
	}
	return r.svc.Catalog.DeleteBrand(p.Context, id)
}

// --- Panier ---

func (r *resolver) cart(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.Cart.Get(p.Context)
}

func (r *resolver) addToCart(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "productId")
	if err != nil {
		return nil, err
	}
	return r.svc.Cart.Add(p.Context, id, intArg(p.Args, "quantity", 1))
}

func (r *resolver) updateCartItem(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "productId")
	if err != nil {
		return nil, err
	}
	return r.svc.Cart.Update(p.Context, id, intArg(p.Args, "quantity", 0))
}

func (r *resolver) removeFromCart(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "productId")
	if err != nil {
		return nil, err
	}
	return r.svc.Cart.Remove(p.Context, id)
}

func (r *resolver) clearCart(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.Cart.Clear(p.Context)
}

func (r *resolver) mergeCart(p graphql.ResolveParams) (interface{}, error) {
	var items []services.MergeItem
	for _, in := range listArg(p.Args, "items") {
		id, err := idArg(in, "productId")
		if err != nil {
			return nil, err
		}
		items = append(items, services.MergeItem{ProductID: id, Quantity: intArg(in, "quantity", 0)})
	}
	return r.svc.Cart.Merge(p.Context, items)
}

// --- Commandes ---

func (r *resolver) createOrder(p graphql.ResolveParams) (interface{}, error) {
	in := mapArg(p.Args, "input")
	info := mapArg(in, "customerInfo")
	method, _ := in["paymentMethod"].(models.PaymentMethod)

	order := services.CreateOrderInput{
		CustomerInfo: services.CustomerInfoInput{
			FullName: stringArg(info, "fullName"),
			Email:    stringArg(info, "email"),
			Phone:    stringArg(info, "phone"),
			Address:  stringArg(info, "address"),
			City:     stringArg(info, "city"),
			District: stringArg(info, "district"),
			Ward:     stringArg(info, "ward"),
		},
		PaymentMethod: method,
		Notes:         stringArg(in, "notes"),
	}
	for _, line := range listArg(in, "items") {
		id, err := idArg(line, "productId")
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, services.OrderLineInput{ProductID: id, Quantity: intArg(line, "quantity", 0)})
	}
	return r.svc.Orders.Create(p.Context, order)
}

func statusArg(args map[string]interface{}) *models.OrderStatus {
	s, ok := args["status"].(models.OrderStatus)
	if !ok {
		return nil
	}
	return &s
}

func (r *resolver) myOrders(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.Orders.MyOrders(p.Context, statusArg(p.Args))
}

func (r *resolver) order(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "id")
	if err != nil {
		return nil, err
	}
	return r.svc.Orders.Get(p.Context, id)
}

func (r *resolver) orders(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.Orders.List(p.Context, statusArg(p.Args), intArg(p.Args, "limit", 0), intArg(p.Args, "offset", 0))
}

func (r *resolver) cancelOrder(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "id")
	if err != nil {
		return nil, err
	}
	return r.svc.Orders.Cancel(p.Context, id, stringArg(p.Args, "reason"))
}

func (r *resolver) updateOrderStatus(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "id")
	if err != nil {
		return nil, err
	}
	status, _ := p.Args["status"].(models.OrderStatus)
	return r.svc.Orders.UpdateStatus(p.Context, id, status)
}

func (r *resolver) updatePaymentStatus(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "id")
	if err != nil {
		return nil, err
	}
	status, _ := p.Args["paymentStatus"].(models.PaymentStatus)
	return r.svc.Orders.UpdatePaymentStatus(p.Context, id, status)
}

// --- Paiement ---

func (r *resolver) createVnpayPaymentURL(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "orderId")
	if err != nil {
		return nil, err
	}
	return r.svc.Payments.CreateVnpayPaymentURL(p.Context, id)
}

func (r *resolver) handleVnpayReturn(p graphql.ResolveParams) (interface{}, error) {
	raw := stringArg(p.Args, "query")
	// la SPA peut relayer l'URL complète
	if u, err := url.Parse(raw); err == nil && u.RawQuery != "" {
		raw = u.RawQuery
	}
	return r.svc.Payments.HandleVnpayReturn(p.Context, raw)
}

// --- Avis ---

func (r *resolver) canReviewProduct(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "productId")
	if err != nil {
		return nil, err
	}
	return r.svc.Reviews.CanReview(p.Context, id)
}

func (r *resolver) productReviews(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "productId")
	if err != nil {
		return nil, err
	}
	return r.svc.Reviews.ProductReviews(p.Context, id, optIntArg(p.Args, "rating"),
		intArg(p.Args, "limit", 0), intArg(p.Args, "offset", 0))
}

func (r *resolver) myReviews(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.Reviews.MyReviews(p.Context)
}

func (r *resolver) createReview(p graphql.ResolveParams) (interface{}, error) {
	in := mapArg(p.Args, "input")
	productID, err := idArg(in, "productId")
	if err != nil {
		return nil, err
	}
	orderID, err := optIDArg(in, "orderId")
	if err != nil {
		return nil, err
	}
	return r.svc.Reviews.Create(p.Context, services.CreateReviewInput{
		ProductID: productID,
		OrderID:   orderID,
		Rating:    intArg(in, "rating", 0),
		Comment:   stringArg(in, "comment"),
		Images:    stringsArg(in, "images"),
	})
}

func (r *resolver) voteReviewHelpful(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "reviewId")
	if err != nil {
		return nil, err
	}
	return r.svc.Reviews.VoteHelpful(p.Context, id)
}

func (r *resolver) respondToReview(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "reviewId")
	if err != nil {
		return nil, err
	}
	return r.svc.Reviews.Respond(p.Context, id, stringArg(p.Args, "response"))
}

func (r *resolver) moderateReview(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "reviewId")
	if err != nil {
		return nil, err
	}
	status, _ := p.Args["status"].(models.ReviewStatus)
	return r.svc.Reviews.Moderate(p.Context, id, status)
}
