package domain

// Envelope is one rendered message ready for a transport. HTML is optional;
// when present Text is its plain-text alternative.
type Envelope struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// DeliveryReport accumulates the outcome of a batch send. Failures are
// counted here and logged; they are never returned as errors.
type DeliveryReport struct {
	BatchID   string `json:"batch_id"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}
