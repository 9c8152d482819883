package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title   string
	Heading string
	Brand   string
}

// Order is the order summary shown in confirmation mails.
type Order struct {
	CustomerEmail string
	ProductName   string
	SKU           string
	Quantity      int
	UnitPrice     float64
	Total         float64
	Score         int
}

// Lead is the contact summary shown in lead mails.
type Lead struct {
	Email  string
	Phone  string
	Name   string
	Intent string
	Score  int
	Topic  string
}

type orderEmailData struct {
	baseEmailData
	Order
	UnitPriceFormatted string
	TotalFormatted     string
}

type leadEmailData struct {
	baseEmailData
	Lead
}

// Rendered is a subject plus HTML body ready to send.
type Rendered struct {
	Subject string
	HTML    string
}

// OrderConfirmation is sent to the shopper after a committed order.
func OrderConfirmation(brand string, o Order) (Rendered, error) {
	return renderOrder("order_confirmation.html", fmt.Sprintf(subjectOrderConfirmationFmt, brand), "Thanks for your order", brand, o)
}

// SalesOrderNotification is sent to the sales inbox after a committed order.
func SalesOrderNotification(brand string, o Order) (Rendered, error) {
	return renderOrder("sales_order.html", subjectSalesNewOrder, "New order received", brand, o)
}

// LeadAcknowledgement thanks a shopper who left contact details.
func LeadAcknowledgement(brand string, l Lead) (Rendered, error) {
	return renderLead("lead_thanks.html", fmt.Sprintf(subjectLeadThanksFmt, brand), "Thanks for contacting us", brand, l)
}

// SalesLeadNotification tells the sales inbox about a new lead.
func SalesLeadNotification(brand string, l Lead) (Rendered, error) {
	return renderLead("sales_lead.html", subjectSalesNewLead, "New lead captured", brand, l)
}

func renderOrder(name, subject, heading, brand string, o Order) (Rendered, error) {
	html, err := renderEmailTemplate(name, orderEmailData{
		baseEmailData:      baseEmailData{Title: subject, Heading: heading, Brand: brand},
		Order:              o,
		UnitPriceFormatted: formatCurrencyGBP(o.UnitPrice),
		TotalFormatted:     formatCurrencyGBP(o.Total),
	})
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{Subject: subject, HTML: html}, nil
}

func renderLead(name, subject, heading, brand string, l Lead) (Rendered, error) {
	html, err := renderEmailTemplate(name, leadEmailData{
		baseEmailData: baseEmailData{Title: subject, Heading: heading, Brand: brand},
		Lead:          l,
	})
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{Subject: subject, HTML: html}, nil
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatCurrencyGBP(amount float64) string {
	return fmt.Sprintf("£%.2f", amount)
}
