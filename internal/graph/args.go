package graph

import (
	"fmt"

	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/models"

	"github.com/gocql/gocql"
)

// Lecture des arguments GraphQL : graphql-go livre des map[string]interface{},
// les Int en int et les Float en float64.

func idArg(args map[string]interface{}, key string) (gocql.UUID, error) {
	s, _ := args[key].(string)
	id, err := models.ParseID(s)
	if err != nil {
		return gocql.UUID{}, fmt.Errorf("%w: %s", errs.ErrInvalidInput, key)
	}
	return id, nil
}

func optIDArg(args map[string]interface{}, key string) (*gocql.UUID, error) {
	if args[key] == nil {
		return nil, nil
	}
	id, err := idArg(args, key)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func optStringArg(args map[string]interface{}, key string) *string {
	s, ok := args[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func intArg(args map[string]interface{}, key string, fallback int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

func optIntArg(args map[string]interface{}, key string) *int {
	if _, ok := args[key]; !ok || args[key] == nil {
		return nil
	}
	n := intArg(args, key, 0)
	return &n
}

// optMoneyArg lit un montant VND transmis en Float
func optMoneyArg(args map[string]interface{}, key string) *int64 {
	switch v := args[key].(type) {
	case float64:
		n := int64(v)
		return &n
	case int:
		n := int64(v)
		return &n
	}
	return nil
}

func optBoolArg(args map[string]interface{}, key string) *bool {
	b, ok := args[key].(bool)
	if !ok {
		return nil
	}
	return &b
}

func mapArg(args map[string]interface{}, key string) map[string]interface{} {
	m, _ := args[key].(map[string]interface{})
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}

func stringsArg(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func listArg(args map[string]interface{}, key string) []map[string]interface{} {
	raw, _ := args[key].([]interface{})
	out := make([]map[string]interface{}, 0, len(raw))
	for _, v := range raw {
		if m, ok := v.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}
