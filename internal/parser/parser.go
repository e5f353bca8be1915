package parser

import (
	"github.com/maltedev/laptop-listing-extractor/internal/models"
)

// Parser turns one product element's HTML into a record. The bool reports
// whether the record should be kept.
type Parser interface {
	Parse(index int, outerHTML string) (models.ProductRecord, bool)
}

var _ Parser = (*BestBuyParser)(nil)
