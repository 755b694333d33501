package mpesa

import (
	"encoding/json"
	"strconv"
)

// CallbackEnvelope is the JSON body Daraja posts to the callback URL after
// the customer acts on an STK prompt.
type CallbackEnvelope struct {
	Body struct {
		StkCallback StkCallback `json:"stkCallback"`
	} `json:"Body"`
}

// StkCallback carries the prompt outcome. ResultCode 0 means paid; anything
// else (1032 cancelled, 1037 timeout, ...) is a failure.
type StkCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  struct {
		Item []MetadataItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

// MetadataItem is one Name/Value pair from CallbackMetadata. Values are
// strings or numbers depending on the field.
type MetadataItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value"`
}

// Succeeded reports whether the customer completed the payment.
func (c *StkCallback) Succeeded() bool { return c.ResultCode == 0 }

// Meta returns the metadata value for name as a string, or "" if absent.
// Numeric values are rendered without a decimal point when whole.
func (c *StkCallback) Meta(name string) string {
	for _, item := range c.CallbackMetadata.Item {
		if item.Name != name {
			continue
		}
		var s string
		if err := json.Unmarshal(item.Value, &s); err == nil {
			return s
		}
		var f float64
		if err := json.Unmarshal(item.Value, &f); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return ""
}

// Receipt returns the MpesaReceiptNumber, empty on failed payments.
func (c *StkCallback) Receipt() string { return c.Meta("MpesaReceiptNumber") }

// Phone returns the paying MSISDN from the metadata.
func (c *StkCallback) Phone() string { return c.Meta("PhoneNumber") }

// AccountReference returns the merchant reference echoed in the metadata.
func (c *StkCallback) AccountReference() string { return c.Meta("AccountReference") }
