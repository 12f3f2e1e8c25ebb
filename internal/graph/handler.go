package graph

import (
	"context"
	"encoding/json"
	"net/http"

	"smartshop_back_end/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog/log"
)

// Request est le corps standard {query, variables, operationName}
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// UserFromContext renvoie l'utilisateur authentifié de la requête, nil si anonyme
func UserFromContext(ctx context.Context) *auth.Viewer {
	return auth.FromContext(ctx)
}

func parseRequest(c *gin.Context) (*Request, error) {
	var req Request
	if c.Request.Method == http.MethodGet {
		req.Query = c.Query("query")
		req.OperationName = c.Query("operationName")
		if raw := c.Query("variables"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
				return nil, err
			}
		}
		return &req, nil
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// Handler exécute les requêtes GraphQL (POST JSON ou GET query string)
func Handler(schema graphql.Schema) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := parseRequest(c)
		if err != nil || req.Query == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"errors": []gin.H{{
					"message":    "Requête GraphQL invalide",
					"extensions": gin.H{"code": "BAD_REQUEST"},
				}},
			})
			return
		}

		ctx := c.Request.Context()
		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        ctx,
		})
		if result.HasErrors() {
			event := log.Ctx(ctx).Debug().Int("errors", len(result.Errors)).Str("operation", req.OperationName)
			if v := UserFromContext(ctx); v != nil {
				event = event.Str("role", string(v.Role))
			}
			event.Msg("GraphQL: réponse avec erreurs")
		}
		c.JSON(http.StatusOK, result)
	}
}
