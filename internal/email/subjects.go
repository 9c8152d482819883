package email

const (
	subjectOrderConfirmationFmt = "Your %s Order Confirmation"
	subjectSalesNewOrder        = "New Order Received"
	subjectLeadThanksFmt        = "Thanks for contacting %s"
	subjectSalesNewLead         = "New Lead Captured"
)
