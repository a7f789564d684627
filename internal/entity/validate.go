package entity

import (
	"fmt"

	"github.com/joseph-ayodele/skydesk/internal/common"
)

// Check runs the field rules and the JSON schema for p, collecting every failure.
func Check(p Payload) *common.Validator {
	v := common.NewValidator()
	switch r := p.(type) {
	case *Enquiry:
		v.Field("name", r.Name, common.Required, common.MaxLength(200)).
			Field("email", r.Email, common.Required, common.Email).
			Field("phone", r.Phone, common.Required, common.MaxLength(50)).
			Field("travellers.adults", r.Travellers.Adults, common.NonNegative).
			Field("travellers.children", r.Travellers.Children, common.NonNegative).
			Field("travellers.infants", r.Travellers.Infants, common.NonNegative)
	case *Quote:
		checkItinerary(v, &r.Itinerary)
		checkMoney(v, "totals.grand_total", &r.Totals.GrandTotal)
	case *Booking:
		checkItinerary(v, &r.Itinerary)
		checkMoney(v, "totals.grand_total", &r.Totals.GrandTotal)
		checkMoney(v, "totals.balance_remaining", r.Totals.BalanceRemaining)
		if r.Payments != nil {
			for i, tx := range r.Payments.Transactions {
				v.Field(fmt.Sprintf("payments.transactions[%d].currency", i), tx.Currency, common.CurrencyCode)
			}
		}
	default:
		v.Add("record_type", fmt.Sprintf("%T", p), "unsupported record type")
		return v
	}

	data, err := EncodePayload(p)
	if err != nil {
		v.Add("record", nil, err.Error())
		return v
	}
	if err := ValidateJSONAgainstSchema(BuildRecordJSONSchema(p.RecordType()), data); err != nil {
		v.Add("record", nil, err.Error())
	}
	return v
}

// Validate returns an ErrValidation error describing every failure, or nil.
func Validate(p Payload) error {
	return common.ValidateAndReturnError(Check(p))
}

func checkItinerary(v *common.Validator, it *Itinerary) {
	v.Field("lead_id", string(it.LeadID), common.Required, common.LeadID).
		Field("client.name", it.Client.Name, common.MaxLength(200)).
		Field("trip.dates.nights", numberPtr(it.Trip.Dates.Nights), common.NonNegative)
}

func checkMoney(v *common.Validator, field string, m *Money) {
	if m == nil {
		return
	}
	v.Field(field+".currency", m.Currency, common.CurrencyCode).
		Field(field+".amount", numberPtr(m.Amount), common.NonNegative)
}

func numberPtr(n *Number) *float64 {
	if n == nil {
		return nil
	}
	f := float64(*n)
	return &f
}
