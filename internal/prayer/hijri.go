package prayer

import (
	"fmt"
	"time"

	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
)

// ramadanStart is 1 Ramadan 1447 in Doha.
var ramadanStart = time.Date(2026, time.February, 18, 0, 0, 0, 0, model.Doha)

// HijriMonth names the Hijri month.
type HijriMonth struct {
	Number int    `json:"number"`
	En     string `json:"en"`
	Ar     string `json:"ar"`
}

// Hijri is the approximate Hijri date returned alongside timings.
type Hijri struct {
	Date   string     `json:"date"`
	Format string     `json:"format"`
	Day    string     `json:"day"`
	Month  HijriMonth `json:"month"`
	Year   string     `json:"year"`
}

// ApproximateHijri counts days from 1 Ramadan 1447. It only knows Ramadan itself.
func ApproximateHijri(date string) (Hijri, bool) {
	d, err := model.ParseDate(date)
	if err != nil {
		return Hijri{}, false
	}
	day := 1 + int(d.Sub(ramadanStart).Hours()/24)
	if day < 1 || day > 30 {
		return Hijri{}, false
	}
	return Hijri{
		Date:   fmt.Sprintf("%02d-09-1447", day),
		Format: "DD-MM-YYYY",
		Day:    fmt.Sprint(day),
		Month:  HijriMonth{Number: 9, En: "Ramadan", Ar: "رمضان"},
		Year:   "1447",
	}, true
}
