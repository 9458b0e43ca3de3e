package packets

import (
	"fmt"
	"strconv"

	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
	"github.com/Nixie-Tech-LLC/ramadan/internal/prayer"
)

// RESPONSES FOR /api/timings*

// Timings mirrors the upstream Aladhan shape so clients can use either source.
type Timings struct {
	Fajr    string `json:"Fajr"`
	Sunrise string `json:"Sunrise"`
	Dhuhr   string `json:"Dhuhr"`
	Asr     string `json:"Asr"`
	Maghrib string `json:"Maghrib"`
	Isha    string `json:"Isha"`
}

type Weekday struct {
	En string `json:"en"`
	Ar string `json:"ar"`
}

type GregorianMonth struct {
	Number int    `json:"number"`
	En     string `json:"en"`
}

type Gregorian struct {
	Date    string         `json:"date"`
	Format  string         `json:"format"`
	Day     string         `json:"day"`
	Weekday Weekday        `json:"weekday"`
	Month   GregorianMonth `json:"month"`
	Year    string         `json:"year"`
}

type DateInfo struct {
	Readable  string        `json:"readable"`
	Timestamp string        `json:"timestamp"`
	Gregorian Gregorian     `json:"gregorian"`
	Hijri     *prayer.Hijri `json:"hijri,omitempty"`
}

type TimingsData struct {
	Timings    Timings  `json:"timings"`
	Date       DateInfo `json:"date"`
	RamadanDay *int     `json:"ramadanDay,omitempty"`
}

type TimingsResponse struct {
	Code   int         `json:"code"`
	Status string      `json:"status"`
	Data   TimingsData `json:"data"`
}

type CalendarDay struct {
	Date       string  `json:"date"`
	RamadanDay *int    `json:"ramadanDay,omitempty"`
	Timings    Timings `json:"timings"`
}

type CalendarResponse struct {
	Days []CalendarDay `json:"days"`
}

func timingsOf(day model.PrayerDay) Timings {
	return Timings{
		Fajr:    day.Fajr,
		Sunrise: day.Sunrise,
		Dhuhr:   day.Dhuhr,
		Asr:     day.Asr,
		Maghrib: day.Maghrib,
		Isha:    day.Isha,
	}
}

// NewTimingsResponse renders one PrayerDay.
func NewTimingsResponse(day model.PrayerDay) (TimingsResponse, error) {
	d, err := model.ParseDate(day.Date)
	if err != nil {
		return TimingsResponse{}, fmt.Errorf("render timings: %w", err)
	}
	info := DateInfo{
		Readable:  d.Format("2 Jan 2006"),
		Timestamp: strconv.FormatInt(d.Unix(), 10),
		Gregorian: Gregorian{
			Date:    d.Format("02-01-2006"),
			Format:  "DD-MM-YYYY",
			Day:     strconv.Itoa(d.Day()),
			Weekday: Weekday{En: d.Weekday().String()},
			Month:   GregorianMonth{Number: int(d.Month()), En: d.Month().String()},
			Year:    strconv.Itoa(d.Year()),
		},
	}
	if h, ok := prayer.ApproximateHijri(day.Date); ok {
		info.Hijri = &h
	}
	return TimingsResponse{
		Code:   200,
		Status: "OK",
		Data:   TimingsData{Timings: timingsOf(day), Date: info, RamadanDay: day.RamadanDay},
	}, nil
}

// NewCalendarResponse renders the whole month.
func NewCalendarResponse(days []model.PrayerDay) CalendarResponse {
	out := make([]CalendarDay, 0, len(days))
	for _, d := range days {
		out = append(out, CalendarDay{Date: d.Date, RamadanDay: d.RamadanDay, Timings: timingsOf(d)})
	}
	return CalendarResponse{Days: out}
}
