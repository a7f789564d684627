package entity

import (
	"strings"
)

func (e *Enquiry) Summary() Summary {
	s := Summary{
		Name:        e.Name,
		Destination: e.Destination,
		Issued:      e.SubmittedAt,
	}
	switch {
	case e.Schedule.DepartureDate != "" || e.Schedule.ReturnDate != "":
		s.TravelDates = dateRange(e.Schedule.DepartureDate, e.Schedule.ReturnDate)
	case e.Schedule.FlexMonth:
		s.TravelDates = strings.TrimSpace(e.Schedule.FlexMonthMonth + " " + e.Schedule.FlexMonthYear)
	}
	return s
}

func (q *Quote) Summary() Summary {
	s := q.Itinerary.summary()
	s.GrandTotal = &q.Totals.GrandTotal
	return s
}

func (b *Booking) Summary() Summary {
	s := b.Itinerary.summary()
	s.GrandTotal = &b.Totals.GrandTotal
	return s
}

func (it *Itinerary) summary() Summary {
	places := it.Trip.Destinations
	if len(places) == 0 {
		places = it.Trip.Locations
	}
	return Summary{
		Name:        it.Client.Name,
		Destination: strings.Join(places, ", "),
		TravelDates: dateRange(it.Trip.Dates.Start, it.Trip.Dates.End),
		Issued:      string(it.IssuedAt),
	}
}

func dateRange(start, end string) string {
	switch {
	case start != "" && end != "":
		return start + " to " + end
	case start != "":
		return start
	default:
		return end
	}
}
