package entity

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/joseph-ayodele/skydesk/constants"
)

// Payload is the content of record.json. It is one of *Enquiry, *Quote or *Booking.
type Payload interface {
	RecordType() constants.RecordType
	Summary() Summary
	stamp()
}

// Journal holds the per-record data edited after commit.
type Journal struct {
	Notes          string          `json:"notes"`
	Communications []Communication `json:"communications,omitempty"`
	Todos          []Todo          `json:"todos,omitempty"`
}

// Summary is what lists, dashboards and exports show for a record.
type Summary struct {
	Name        string
	Destination string
	TravelDates string
	Issued      string
	GrandTotal  *Money
}

// Enquiry is a customer enquiry captured from the web form.
type Enquiry struct {
	Type        constants.RecordType `json:"record_type"`
	SubmittedAt string               `json:"submitted_at"`
	Name        string               `json:"name"`
	Phone       string               `json:"phone"`
	Email       string               `json:"email"`
	Destination string               `json:"destination"`
	Travellers  Travellers           `json:"travellers"`
	Schedule    Schedule             `json:"schedule"`
	Journal
}

type Travellers struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

type Schedule struct {
	DepartureDate   string  `json:"departure_date,omitempty"`
	ReturnDate      string  `json:"return_date,omitempty"`
	FlexMonth       bool    `json:"flex_month,omitempty"`
	FlexMonthMonth  string  `json:"flex_month_month,omitempty"`
	FlexMonthYear   string  `json:"flex_month_year,omitempty"`
	TripLengthValue *Number `json:"trip_length_value,omitempty"`
	TripLengthUnit  string  `json:"trip_length_unit,omitempty"`
}

// Itinerary is shared by quotes and bookings.
type Itinerary struct {
	LeadID         Text            `json:"lead_id"`
	IssuedAt       Text            `json:"issued_at,omitempty"`
	Client         Client          `json:"client"`
	OtherPax       []Passenger     `json:"other_pax,omitempty"`
	Trip           Trip            `json:"trip"`
	Accommodation  []Accommodation `json:"accommodation,omitempty"`
	Flights        []Flight        `json:"flights,omitempty"`
	Services       []Service       `json:"services,omitempty"`
	AssistantNotes string          `json:"assistant_notes,omitempty"`
}

type Client struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone Text   `json:"phone,omitempty"`
}

type Passenger struct {
	Name    string `json:"name"`
	PaxType string `json:"pax_type,omitempty"` // adult | child | infant
}

// UnmarshalJSON also accepts a bare name string.
func (p *Passenger) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = Passenger{Name: s}
		return nil
	}
	type plain Passenger
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Passenger(v)
	return nil
}

type Trip struct {
	Destinations StringList `json:"destinations,omitempty"`
	Locations    StringList `json:"locations,omitempty"`
	Dates        TripDates  `json:"dates"`
}

type TripDates struct {
	Start  string  `json:"start,omitempty"`
	End    string  `json:"end,omitempty"`
	Nights *Number `json:"nights,omitempty"`
}

// Accommodation, Flight, FlightSegment and Service are open-ended: members
// without a field here are kept in Extra and written back as they came.
type Accommodation struct {
	Name        string  `json:"name"`
	CheckIn     string  `json:"check_in,omitempty"`
	CheckOut    string  `json:"check_out,omitempty"`
	Nights      *Number `json:"nights,omitempty"`
	RoomType    string  `json:"room_type,omitempty"`
	Board       string  `json:"board,omitempty"`
	SupplierRef Text    `json:"supplier_ref,omitempty"`
	Extra       Extra   `json:"-"`
}

func (a *Accommodation) UnmarshalJSON(b []byte) error {
	type plain Accommodation
	var v plain
	extra, err := decodeKeepingExtra(b, &v)
	if err != nil {
		return err
	}
	v.Extra = extra
	*a = Accommodation(v)
	return nil
}

func (a Accommodation) MarshalJSON() ([]byte, error) {
	type plain Accommodation
	return encodeWithExtra(plain(a), a.Extra)
}

type Flight struct {
	Carrier       string          `json:"carrier,omitempty"`
	Route         string          `json:"route,omitempty"`
	Origin        string          `json:"origin,omitempty"`
	Destination   string          `json:"destination,omitempty"`
	PNR           Text            `json:"pnr,omitempty"`
	SupplierRef   Text            `json:"supplier_ref,omitempty"`
	Segments      []FlightSegment `json:"segments,omitempty"`
	Layovers      []Layover       `json:"layovers,omitempty"`
	TicketNumbers StringList      `json:"ticket_numbers,omitempty"`
	Extra         Extra           `json:"-"`
}

func (f *Flight) UnmarshalJSON(b []byte) error {
	type plain Flight
	var v plain
	extra, err := decodeKeepingExtra(b, &v)
	if err != nil {
		return err
	}
	v.Extra = extra
	*f = Flight(v)
	return nil
}

func (f Flight) MarshalJSON() ([]byte, error) {
	type plain Flight
	return encodeWithExtra(plain(f), f.Extra)
}

type FlightSegment struct {
	FlightNumber Text   `json:"flight_number,omitempty"`
	Carrier      string `json:"carrier,omitempty"`
	Origin       string `json:"origin,omitempty"`
	Destination  string `json:"destination,omitempty"`
	Depart       string `json:"depart,omitempty"`
	Arrive       string `json:"arrive,omitempty"`
	Extra        Extra  `json:"-"`
}

func (s *FlightSegment) UnmarshalJSON(b []byte) error {
	type plain FlightSegment
	var v plain
	extra, err := decodeKeepingExtra(b, &v)
	if err != nil {
		return err
	}
	v.Extra = extra
	*s = FlightSegment(v)
	return nil
}

func (s FlightSegment) MarshalJSON() ([]byte, error) {
	type plain FlightSegment
	return encodeWithExtra(plain(s), s.Extra)
}

type Layover struct {
	Airport  string `json:"airport,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// UnmarshalJSON also accepts a bare airport string.
func (l *Layover) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = Layover{Airport: s}
		return nil
	}
	type plain Layover
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*l = Layover(p)
	return nil
}

type Service struct {
	Type            string     `json:"type,omitempty"`
	Description     string     `json:"description,omitempty"`
	Carrier         string     `json:"carrier,omitempty"`
	Route           string     `json:"route,omitempty"`
	DepartDate      string     `json:"depart_date,omitempty"`
	DepartTimeLocal string     `json:"depart_time_local,omitempty"`
	ArriveTimeLocal string     `json:"arrive_time_local,omitempty"`
	ReturnDate      string     `json:"return_date,omitempty"`
	Provider        string     `json:"provider,omitempty"`
	PNR             Text       `json:"pnr,omitempty"`
	SupplierRef     Text       `json:"supplier_ref,omitempty"`
	TicketNumbers   StringList `json:"ticket_numbers,omitempty"`
	Extra           Extra      `json:"-"`
}

func (s *Service) UnmarshalJSON(b []byte) error {
	type plain Service
	var v plain
	extra, err := decodeKeepingExtra(b, &v)
	if err != nil {
		return err
	}
	v.Extra = extra
	*s = Service(v)
	return nil
}

func (s Service) MarshalJSON() ([]byte, error) {
	type plain Service
	return encodeWithExtra(plain(s), s.Extra)
}

type Money struct {
	Amount   *Number `json:"amount,omitempty"`
	Currency string  `json:"currency,omitempty"`
}

func (m *Money) String() string {
	if m == nil || m.Amount == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%.2f %s", float64(*m.Amount), m.Currency))
}

// Quote is a supplier quote confirmed from an uploaded PDF.
type Quote struct {
	Type constants.RecordType `json:"record_type"`
	Itinerary
	Totals QuoteTotals `json:"totals"`
	Journal
}

type QuoteTotals struct {
	GrandTotal Money `json:"grand_total"`
}

// Booking is a confirmed booking; it adds payments and status to the itinerary.
type Booking struct {
	Type constants.RecordType `json:"record_type"`
	Itinerary
	Totals   BookingTotals  `json:"totals"`
	Payments *Payments      `json:"payments,omitempty"`
	Status   *BookingStatus `json:"status,omitempty"`
	Journal
}

type BookingTotals struct {
	GrandTotal       Money  `json:"grand_total"`
	BalanceRemaining *Money `json:"balance_remaining,omitempty"`
}

type Payments struct {
	LastPaymentDate   string        `json:"last_payment_date,omitempty"`
	LastPaymentMethod string        `json:"last_payment_method,omitempty"`
	Transactions      []Transaction `json:"transactions,omitempty"`
}

type Transaction struct {
	Date      string  `json:"date,omitempty"`
	Amount    *Number `json:"amount,omitempty"`
	Currency  string  `json:"currency,omitempty"`
	Method    string  `json:"method,omitempty"`
	Reference Text    `json:"reference,omitempty"`
}

type BookingStatus struct {
	Stage           string `json:"stage,omitempty"`
	DocumentsIssued bool   `json:"documents_issued"`
	TravelCompleted bool   `json:"travel_completed"`
}

func (e *Enquiry) RecordType() constants.RecordType { return constants.Enquiry }
func (q *Quote) RecordType() constants.RecordType   { return constants.Quote }
func (b *Booking) RecordType() constants.RecordType { return constants.Booking }

func (e *Enquiry) stamp() { e.Type = constants.Enquiry }
func (q *Quote) stamp()   { q.Type = constants.Quote }
func (b *Booking) stamp() { b.Type = constants.Booking }

// JournalOf returns the editable journal embedded in p.
func JournalOf(p Payload) *Journal {
	switch v := p.(type) {
	case *Enquiry:
		return &v.Journal
	case *Quote:
		return &v.Journal
	case *Booking:
		return &v.Journal
	}
	return nil
}

// LeadIDOf returns the lead id of a quote or booking, or "" for enquiries.
func LeadIDOf(p Payload) string {
	switch v := p.(type) {
	case *Quote:
		return string(v.LeadID)
	case *Booking:
		return string(v.LeadID)
	}
	return ""
}

// NewPayload returns an empty payload of type t.
func NewPayload(t constants.RecordType) (Payload, error) {
	switch t {
	case constants.Enquiry:
		return &Enquiry{Type: t}, nil
	case constants.Quote:
		return &Quote{Type: t}, nil
	case constants.Booking:
		return &Booking{Type: t}, nil
	}
	return nil, fmt.Errorf("unknown record type %q", t)
}

// DecodePayload decodes record.json, dispatching on record_type.
func DecodePayload(data []byte) (Payload, error) {
	var tag struct {
		Type constants.RecordType `json:"record_type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if tag.Type == "" {
		return nil, fmt.Errorf("decode record: missing record_type")
	}
	return DecodePayloadAs(tag.Type, data)
}

// DecodePayloadAs decodes data as a payload of type t. A record_type in data that disagrees with t is an error.
func DecodePayloadAs(t constants.RecordType, data []byte) (Payload, error) {
	var tag struct {
		Type constants.RecordType `json:"record_type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", t, err)
	}
	if tag.Type != "" && tag.Type != t {
		return nil, fmt.Errorf("decode record: record_type %q does not match %q", tag.Type, t)
	}
	p, err := NewPayload(t)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", t, err)
	}
	clearUnknownNumbers(reflect.ValueOf(p))
	p.stamp()
	return p, nil
}

// EncodePayload renders p as indented JSON with record_type set.
func EncodePayload(p Payload) ([]byte, error) {
	p.stamp()
	return json.MarshalIndent(p, "", "  ")
}
