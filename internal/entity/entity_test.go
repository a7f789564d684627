package entity

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/joseph-ayodele/skydesk/constants"
	"github.com/joseph-ayodele/skydesk/internal/common"
)

const sampleBooking = `{
  "record_type": "booking",
  "lead_id": " 7654321 ",
  "issued_at": "02-03-2027",
  "client": {"name": "A Traveller"},
  "other_pax": [{"name": "B Traveller", "pax_type": "adult"}],
  "trip": {"destinations": ["Lisbon", "Porto"], "dates": {"start": "10-05-2027", "end": "17-05-2027", "nights": "7"}},
  "flights": [{"carrier": "TP", "route": "LHR-LIS", "layovers": ["MAD"], "ticket_numbers": "047123, 047124"}],
  "totals": {"grand_total": {"amount": "£2,450.00", "currency": "gbp"}, "balance_remaining": {"amount": 1200, "currency": "GBP"}},
  "payments": {"transactions": [{"date": "03-03-2027", "amount": 1250, "currency": "gbp", "method": "card"}]},
  "status": {"stage": "deposit_paid", "documents_issued": false, "travel_completed": false},
  "notes": "window seats"
}`

func TestDecodeBookingLenientFields(t *testing.T) {
	p, err := DecodePayload([]byte(sampleBooking))
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	b, ok := p.(*Booking)
	if !ok {
		t.Fatalf("Expected *Booking, got %T", p)
	}
	if got := float64(*b.Totals.GrandTotal.Amount); got != 2450 {
		t.Errorf("grand total = %v, want 2450", got)
	}
	if got := float64(*b.Trip.Dates.Nights); got != 7 {
		t.Errorf("nights = %v, want 7", got)
	}
	if len(b.Flights[0].TicketNumbers) != 2 || b.Flights[0].TicketNumbers[1] != "047124" {
		t.Errorf("ticket numbers = %v", b.Flights[0].TicketNumbers)
	}
	if b.Flights[0].Layovers[0].Airport != "MAD" {
		t.Errorf("layover = %+v", b.Flights[0].Layovers[0])
	}
	if JournalOf(p).Notes != "window seats" {
		t.Errorf("notes = %q", JournalOf(p).Notes)
	}

	Normalize(p)
	if LeadIDOf(p) != "7654321" {
		t.Errorf("Expected trimmed lead id, got %q", LeadIDOf(p))
	}
	if b.Totals.GrandTotal.Currency != "GBP" || b.Payments.Transactions[0].Currency != "GBP" {
		t.Error("Expected currencies to be upper-cased")
	}
	if err := Validate(p); err != nil {
		t.Errorf("Validate: %v", err)
	}

	s := p.Summary()
	if s.Name != "A Traveller" || s.Destination != "Lisbon, Porto" || s.TravelDates != "10-05-2027 to 17-05-2027" {
		t.Errorf("unexpected summary %+v", s)
	}
	if s.GrandTotal.String() != "2450.00 GBP" {
		t.Errorf("grand total string = %q", s.GrandTotal.String())
	}
}

func TestDecodePayloadAsRejectsMismatchedType(t *testing.T) {
	_, err := DecodePayloadAs(constants.Quote, []byte(`{"record_type": "booking", "lead_id": "1234567"}`))
	if err == nil {
		t.Fatal("Expected mismatch error")
	}

	p, err := DecodePayloadAs(constants.Quote, []byte(`{"lead_id": "1234567", "client": {"name": "A Traveller"}}`))
	if err != nil {
		t.Fatalf("DecodePayloadAs: %v", err)
	}
	data, err := EncodePayload(p)
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	if m["record_type"] != "quote" {
		t.Errorf("Expected record_type to be stamped, got %v", m["record_type"])
	}
}

func TestDecodePayloadRequiresType(t *testing.T) {
	if _, err := DecodePayload([]byte(`{"lead_id": "1234567"}`)); err == nil {
		t.Error("Expected error for missing record_type")
	}
	if _, err := DecodePayload([]byte(`{"record_type": "invoice"}`)); err == nil {
		t.Error("Expected error for unknown record_type")
	}
}

func TestValidateQuoteLeadID(t *testing.T) {
	q := &Quote{Itinerary: Itinerary{LeadID: "12345"}}
	err := Validate(q)
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("Expected ErrValidation, got %v", err)
	}
	fields := map[string]bool{}
	for _, fe := range Check(q).Errors() {
		fields[fe.Field] = true
	}
	if !fields["lead_id"] {
		t.Errorf("Expected lead_id failure, got %v", fields)
	}
}

func TestValidateNegativeAmount(t *testing.T) {
	q := &Quote{Itinerary: Itinerary{LeadID: "1234567"}}
	q.Totals.GrandTotal = Money{Amount: NumberPtr(-5), Currency: "GBP"}
	if err := Validate(q); err == nil {
		t.Error("Expected negative amount to fail")
	}
}

func TestValidateEnquiry(t *testing.T) {
	e := &Enquiry{SubmittedAt: "2027-01-02T10:00:00Z", Name: "A Traveller", Email: "a@example.com", Phone: "0123"}
	if err := Validate(e); err != nil {
		t.Errorf("Validate: %v", err)
	}

	e.Email = ""
	err := Validate(e)
	if err == nil || !strings.Contains(err.Error(), "email") {
		t.Errorf("Expected email failure, got %v", err)
	}
}

func TestNumberLenientDecoding(t *testing.T) {
	var n Number
	if err := json.Unmarshal([]byte(`"about two grand"`), &n); err != nil {
		t.Fatalf("Expected letters-only string to decode, got %v", err)
	}
	if n.Known() {
		t.Errorf("Expected unknown, got %v", n)
	}
	if err := json.Unmarshal([]byte(`"-1,250.50"`), &n); err != nil || float64(n) != -1250.5 {
		t.Errorf("got %v (%v), want -1250.5", n, err)
	}
	if err := json.Unmarshal([]byte(`true`), &n); err == nil {
		t.Error("Expected error for boolean")
	}
}

func TestBlankAmountsStayUnknown(t *testing.T) {
	p, err := DecodePayloadAs(constants.Booking, []byte(`{
		"lead_id": "1234567",
		"trip": {"dates": {"nights": ""}},
		"totals": {"grand_total": {"amount": "", "currency": "GBP"}, "balance_remaining": {"amount": "TBC"}},
		"payments": {"transactions": [{"amount": " ", "currency": "GBP"}, {"amount": "100"}]}
	}`))
	if err != nil {
		t.Fatalf("DecodePayloadAs: %v", err)
	}
	b := p.(*Booking)
	if b.Totals.GrandTotal.Amount != nil || b.Totals.BalanceRemaining.Amount != nil || b.Trip.Dates.Nights != nil {
		t.Errorf("Expected blank amounts to be nil, got %+v", b.Totals)
	}
	if b.Payments.Transactions[0].Amount != nil {
		t.Errorf("Expected blank transaction amount to be nil")
	}
	if got := float64(*b.Payments.Transactions[1].Amount); got != 100 {
		t.Errorf("transaction amount = %v, want 100", got)
	}
	if s := p.Summary().GrandTotal.String(); s != "" {
		t.Errorf("Expected no grand total, got %q", s)
	}
	if err := Validate(p); err != nil {
		t.Errorf("Validate: %v", err)
	}

	data, err := EncodePayload(p)
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	if strings.Contains(string(data), `"amount": 0`) {
		t.Errorf("Expected unknown amounts to be omitted:\n%s", data)
	}
}

func TestTextAcceptsScalars(t *testing.T) {
	tests := []struct {
		in   string
		want Text
	}{
		{`"1234567"`, "1234567"},
		{`1234567`, "1234567"},
		{`12.5`, "12.5"},
		{`true`, "true"},
		{`null`, ""},
	}
	for _, tt := range tests {
		var got Text
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
	var got Text
	if err := json.Unmarshal([]byte(`{"a": 1}`), &got); err == nil {
		t.Error("Expected error for object")
	}
}

func TestDecodeAcceptsLooseModelShapes(t *testing.T) {
	p, err := DecodePayloadAs(constants.Quote, []byte(`{
		"lead_id": 1234567,
		"issued_at": 20270501,
		"client": {"name": "A Traveller", "phone": 447700900123},
		"other_pax": ["Jane Doe", {"name": "Tom Doe", "pax_type": "child"}],
		"trip": {"destinations": "Paris", "locations": "Nice, Lyon"},
		"accommodation": [{"name": "Hotel", "supplier_ref": 98765}],
		"flights": [{"carrier": "AF", "pnr": 123456, "segments": [{"flight_number": 1681}]}]
	}`))
	if err != nil {
		t.Fatalf("DecodePayloadAs: %v", err)
	}
	q := p.(*Quote)
	if LeadIDOf(p) != "1234567" || q.IssuedAt != "20270501" || q.Client.Phone != "447700900123" {
		t.Errorf("unexpected scalars: lead %q issued %q phone %q", LeadIDOf(p), q.IssuedAt, q.Client.Phone)
	}
	if len(q.OtherPax) != 2 || q.OtherPax[0].Name != "Jane Doe" || q.OtherPax[1].PaxType != "child" {
		t.Errorf("other pax = %+v", q.OtherPax)
	}
	if len(q.Trip.Destinations) != 1 || q.Trip.Destinations[0] != "Paris" || len(q.Trip.Locations) != 2 {
		t.Errorf("trip = %+v", q.Trip)
	}
	if q.Accommodation[0].SupplierRef != "98765" || q.Flights[0].PNR != "123456" || q.Flights[0].Segments[0].FlightNumber != "1681" {
		t.Errorf("references not kept: %+v %+v", q.Accommodation[0], q.Flights[0])
	}
	if err := Validate(p); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestOpenEndedItemsKeepModelFields(t *testing.T) {
	p, err := DecodePayloadAs(constants.Booking, []byte(`{
		"lead_id": "1234567",
		"flights": [{"carrier": "BA", "layover_count": 1, "segments": [{"flight_number": "BA117", "cabin": "W"}]}],
		"services": [{
			"type": "transfer", "carrier": "BA", "route": "LHR-JFK", "pnr": "ABC123",
			"depart_date": "10-05-2027", "depart_time_local": "10:00", "arrive_time_local": "13:05",
			"meeting_point": "Arrivals hall"
		}]
	}`))
	if err != nil {
		t.Fatalf("DecodePayloadAs: %v", err)
	}
	svc := p.(*Booking).Services[0]
	if svc.Carrier != "BA" || svc.Route != "LHR-JFK" || svc.PNR != "ABC123" || svc.DepartTimeLocal != "10:00" || svc.ArriveTimeLocal != "13:05" {
		t.Errorf("service fields = %+v", svc)
	}

	data, err := EncodePayload(p)
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	var out struct {
		Flights  []map[string]any `json:"flights"`
		Services []map[string]any `json:"services"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := map[string]any{
		"type": "transfer", "carrier": "BA", "route": "LHR-JFK", "pnr": "ABC123",
		"depart_date": "10-05-2027", "depart_time_local": "10:00", "arrive_time_local": "13:05",
		"meeting_point": "Arrivals hall",
	}
	for k, v := range want {
		if out.Services[0][k] != v {
			t.Errorf("services[0].%s = %v, want %v", k, out.Services[0][k], v)
		}
	}
	if out.Flights[0]["layover_count"] != float64(1) {
		t.Errorf("flights[0].layover_count = %v", out.Flights[0]["layover_count"])
	}
	seg := out.Flights[0]["segments"].([]any)[0].(map[string]any)
	if seg["cabin"] != "W" || seg["flight_number"] != "BA117" {
		t.Errorf("segment = %v", seg)
	}
}
