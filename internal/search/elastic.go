// Package search indexe les produits dans Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/infrastructure/circuitbreaker"
	"smartshop_back_end/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/gocql/gocql"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
)

// Document est la forme indexée d'un produit
type Document struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	CategoryName string `json:"categoryName"`
	BrandName    string `json:"brandName"`
	Price        int64  `json:"price"`
	IsActive     bool   `json:"isActive"`
}

func NewDocument(p models.Product, categoryName, brandName string) Document {
	return Document{
		ID:           p.ID.String(),
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		CategoryName: categoryName,
		BrandName:    brandName,
		Price:        p.Price,
		IsActive:     p.IsActive,
	}
}

// Index : Search renvoie errs.ErrUnavailable quand le moteur ne peut pas répondre
type Index interface {
	Index(ctx context.Context, doc Document) error
	Delete(ctx context.Context, id gocql.UUID) error
	Search(ctx context.Context, query string, limit int) ([]gocql.UUID, error)
}

type ElasticIndex struct {
	client  *elasticsearch.Client
	index   string
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewElasticIndex(client *elasticsearch.Client, index string) *ElasticIndex {
	return &ElasticIndex{
		client:  client,
		index:   index,
		breaker: circuitbreaker.CreateCircuitBreaker[[]byte]("elasticsearch"),
	}
}

func (e *ElasticIndex) Index(ctx context.Context, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("indexation %s: %w", doc.Name, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch a refusé %s: %s", doc.Name, res.String())
	}
	log.Debug().Str("product", doc.Name).Msg("✅ Produit indexé dans Elasticsearch")
	return nil
}

func (e *ElasticIndex) Delete(ctx context.Context, id gocql.UUID) error {
	req := esapi.DeleteRequest{Index: e.index, DocumentID: id.String(), Refresh: "true"}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("suppression index %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elasticsearch suppression %s: %s", id, res.String())
	}
	return nil
}

// Search : multi_match flou, produits actifs uniquement, ids triés par pertinence
func (e *ElasticIndex) Search(ctx context.Context, query string, limit int) ([]gocql.UUID, error) {
	body, err := e.breaker.Execute(func() ([]byte, error) {
		return e.rawSearch(ctx, query, limit)
	})
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("⚠️ Recherche Elasticsearch indisponible")
		return nil, fmt.Errorf("%w: %v", errs.ErrUnavailable, err)
	}

	var r struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("réponse Elasticsearch invalide: %w", err)
	}

	ids := make([]gocql.UUID, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		id, err := models.ParseID(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (e *ElasticIndex) rawSearch(ctx context.Context, query string, limit int) ([]byte, error) {
	var buf bytes.Buffer
	q := map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"name^3", "description", "categoryName", "brandName"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{"term": map[string]any{"isActive": true}},
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %w", err)
	}

	req := esapi.SearchRequest{Index: []string{e.index}, Body: &buf}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch %s: %s", res.Status(), data)
	}
	return data, nil
}

// NoopIndex est utilisé quand ELASTIC_URL est vide
type NoopIndex struct{}

func (NoopIndex) Index(context.Context, Document) error  { return nil }
func (NoopIndex) Delete(context.Context, gocql.UUID) error { return nil }
func (NoopIndex) Search(context.Context, string, int) ([]gocql.UUID, error) {
	return nil, errs.ErrUnavailable
}
