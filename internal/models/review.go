package models

import (
	"time"

	"github.com/gocql/gocql"
)

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING"
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewRejected ReviewStatus = "REJECTED"
)

var ReviewStatuses = []ReviewStatus{ReviewPending, ReviewApproved, ReviewRejected}

type Review struct {
	ID              gocql.UUID   `json:"id"`
	ProductID       gocql.UUID   `json:"productId"`
	UserID          gocql.UUID   `json:"userId"`
	UserName        string       `json:"userName"`
	OrderID         gocql.UUID   `json:"orderId"`
	Rating          int          `json:"rating"` // 1-5
	Comment         string       `json:"comment"`
	Images          []string     `json:"images"`
	AdminResponse   string       `json:"adminResponse"`
	AdminResponseAt *time.Time   `json:"adminResponseAt"`
	HelpfulVotes    int          `json:"helpfulVotes"`
	Status          ReviewStatus `json:"status"`
	CreatedAt       time.Time    `json:"createdAt"`
}

type RatingSummary struct {
	Average      float64 `json:"average"`
	Total        int     `json:"total"`
	Distribution []int   `json:"distribution"` // index i = nombre de notes i+1
}

type ReviewPage struct {
	Reviews []Review      `json:"reviews"`
	Total   int           `json:"total"`
	Summary RatingSummary `json:"summary"`
}

const (
	ReasonNotAuthenticated = "NOT_AUTHENTICATED"
	ReasonNotPurchased     = "NOT_PURCHASED"
	ReasonAlreadyReviewed  = "ALREADY_REVIEWED"
)

type ReviewEligibility struct {
	CanReview bool        `json:"canReview"`
	Reason    string      `json:"reason"`
	OrderID   *gocql.UUID `json:"orderId"`
}

// Summarize calcule la moyenne et la distribution des notes
func Summarize(reviews []Review) RatingSummary {
	s := RatingSummary{Distribution: make([]int, 5)}
	sum := 0
	for _, r := range reviews {
		if r.Rating < 1 || r.Rating > 5 {
			continue
		}
		s.Distribution[r.Rating-1]++
		sum += r.Rating
		s.Total++
	}
	if s.Total > 0 {
		s.Average = float64(sum) / float64(s.Total)
	}
	return s
}
