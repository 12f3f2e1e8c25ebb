package errs

import (
	"errors"
	"net/http"
)

var (
	ErrInternal           = errors.New("erreur interne du serveur")
	ErrInvalidInput       = errors.New("données invalides")
	ErrUnauthenticated    = errors.New("non authentifié")
	ErrInvalidCredentials = errors.New("email ou mot de passe incorrect")
	ErrForbidden          = errors.New("accès refusé")
	ErrNotFound           = errors.New("ressource introuvable")
	ErrConflict           = errors.New("conflit avec une ressource existante")
	ErrEmailAlreadyUsed   = errors.New("un compte avec cet email existe déjà")
	ErrOutOfStock         = errors.New("stock insuffisant")
	ErrInvalidTransition  = errors.New("changement de statut non autorisé")
	ErrInvalidSignature   = errors.New("signature de paiement invalide")
	ErrAmountMismatch     = errors.New("montant de paiement incohérent")
	ErrTokenExpired       = errors.New("token expiré")
	ErrUnavailable        = errors.New("service temporairement indisponible")
	ErrRateLimited        = errors.New("trop de tentatives")
)

type mapping struct {
	code   string
	status int
}

// ordre important : les erreurs plus spécifiques d'abord
var errorMap = []struct {
	err error
	mapping
}{
	{ErrInvalidCredentials, mapping{"INVALID_CREDENTIALS", http.StatusUnauthorized}},
	{ErrTokenExpired, mapping{"TOKEN_EXPIRED", http.StatusUnauthorized}},
	{ErrUnauthenticated, mapping{"UNAUTHENTICATED", http.StatusUnauthorized}},
	{ErrForbidden, mapping{"FORBIDDEN", http.StatusForbidden}},
	{ErrNotFound, mapping{"NOT_FOUND", http.StatusNotFound}},
	{ErrEmailAlreadyUsed, mapping{"EMAIL_ALREADY_USED", http.StatusConflict}},
	{ErrConflict, mapping{"CONFLICT", http.StatusConflict}},
	{ErrOutOfStock, mapping{"OUT_OF_STOCK", http.StatusConflict}},
	{ErrInvalidTransition, mapping{"INVALID_TRANSITION", http.StatusConflict}},
	{ErrInvalidSignature, mapping{"INVALID_SIGNATURE", http.StatusBadRequest}},
	{ErrAmountMismatch, mapping{"AMOUNT_MISMATCH", http.StatusBadRequest}},
	{ErrInvalidInput, mapping{"BAD_USER_INPUT", http.StatusBadRequest}},
	{ErrUnavailable, mapping{"UNAVAILABLE", http.StatusServiceUnavailable}},
	{ErrRateLimited, mapping{"RATE_LIMITED", http.StatusTooManyRequests}},
}

func lookup(err error) mapping {
	for _, m := range errorMap {
		if errors.Is(err, m.err) {
			return m.mapping
		}
	}
	return mapping{"INTERNAL_SERVER_ERROR", http.StatusInternalServerError}
}

// Code retourne le code stable exposé au client (extensions.code en GraphQL)
func Code(err error) string {
	return lookup(err).code
}

func StatusCode(err error) int {
	return lookup(err).status
}

// IsClientError indique si l'erreur peut être montrée telle quelle au client
func IsClientError(err error) bool {
	return StatusCode(err) < http.StatusInternalServerError || errors.Is(err, ErrUnavailable)
}
