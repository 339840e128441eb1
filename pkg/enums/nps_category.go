package enums

import "fmt"

// NPSCategory buckets a 0-10 NPS response.
type NPSCategory string

const (
	NPSCategoryPromoter  NPSCategory = "promoter"
	NPSCategoryPassive   NPSCategory = "passive"
	NPSCategoryDetractor NPSCategory = "detractor"
)

var validNPSCategorys = []NPSCategory{
	NPSCategoryPromoter,
	NPSCategoryPassive,
	NPSCategoryDetractor,
}

func (n NPSCategory) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NPSCategory.
func (n NPSCategory) IsValid() bool {
	for _, candidate := range validNPSCategorys {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNPSCategory converts raw input into a NPSCategory.
func ParseNPSCategory(value string) (NPSCategory, error) {
	for _, candidate := range validNPSCategorys {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid nps category %q", value)
}

// NPSCategoryForScore maps a 0-10 response to its category.
func NPSCategoryForScore(score int) NPSCategory {
	switch {
	case score >= 9:
		return NPSCategoryPromoter
	case score >= 7:
		return NPSCategoryPassive
	default:
		return NPSCategoryDetractor
	}
}

// ImpliedSentiment is the sentiment a response in this category would
// normally carry.
func (n NPSCategory) ImpliedSentiment() Sentiment {
	switch n {
	case NPSCategoryPromoter:
		return SentimentPositive
	case NPSCategoryDetractor:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
