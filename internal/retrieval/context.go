// Package retrieval decides which verified knowledge backs a reply. When
// nothing verified matches, Retrieve returns nil and the caller must answer
// with the fixed safe reply instead of generating text.
package retrieval

import (
	"fmt"
	"strings"

	"funnel_backend/internal/catalog/domain"
)

// Source names the branch that produced a context.
type Source string

const (
	SourceAbout        Source = "about"
	SourceWelcome      Source = "welcome"
	SourceCollection   Source = "collection"
	SourceEmptyGroup   Source = "empty_group"
	SourceContinuation Source = "continuation"
	SourceProducts     Source = "products"
	SourceFacts        Source = "facts"

	// Set by the funnel for reservation and order outcomes.
	SourceReservation Source = "reservation"
	SourceOrder       Source = "order"
	SourceNotice      Source = "notice"
)

// VerifiedContext is knowledge read from an authoritative store.
type VerifiedContext struct {
	Source   Source
	Group    string
	Products []domain.Product
	Facts    []domain.Fact
	Note     string
	More     bool
}

// Text renders the context for the generator prompt.
func (v *VerifiedContext) Text() string {
	if v == nil {
		return ""
	}
	var b strings.Builder
	if v.Note != "" {
		b.WriteString(v.Note)
		b.WriteString("\n")
	}
	for i, p := range v.Products {
		fmt.Fprintf(&b, "%d. %s (SKU %s) - £%.2f", i+1, p.Name, p.SKU, p.Price)
		if p.Qty > 0 {
			fmt.Fprintf(&b, ", %d in stock", p.Qty)
		} else {
			b.WriteString(", out of stock")
		}
		if p.Description != "" {
			b.WriteString(": ")
			b.WriteString(p.Description)
		}
		b.WriteString("\n")
	}
	if v.More {
		b.WriteString("More items are available. Ask the shopper if they want to see more.\n")
	}
	for _, f := range v.Facts {
		if f.Title != "" {
			b.WriteString(f.Title)
			b.WriteString(": ")
		}
		b.WriteString(f.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// MenuItems lists product names in display order.
func (v *VerifiedContext) MenuItems() []string {
	if v == nil {
		return nil
	}
	items := make([]string, 0, len(v.Products))
	for _, p := range v.Products {
		items = append(items, p.Name)
	}
	return items
}
