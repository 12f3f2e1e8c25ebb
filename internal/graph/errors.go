package graph

import (
	"context"

	"smartshop_back_end/internal/errs"

	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog/log"
)

// Error expose errors[].extensions.code au client
type Error struct {
	code    string
	message string
}

func (e *Error) Error() string { return e.message }

func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.code}
}

// toGraphQLError masque le détail des erreurs internes
func toGraphQLError(ctx context.Context, err error) error {
	if errs.IsClientError(err) {
		return &Error{code: errs.Code(err), message: err.Error()}
	}
	log.Ctx(ctx).Error().Err(err).Msg("❌ Erreur GraphQL")
	return &Error{code: errs.Code(err), message: errs.ErrInternal.Error()}
}

// resolve convertit l'erreur d'un resolver en erreur GraphQL codée
func resolve(fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		v, err := fn(p)
		if err != nil {
			return nil, toGraphQLError(p.Context, err)
		}
		return v, nil
	}
}
