package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/existflow/taskr/internal/calendar"
	"github.com/labstack/echo/v4"
)

type holidayDay struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
}

func (s *Server) handleHolidays(c echo.Context) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1 {
		return badRequest(c, "invalid year")
	}
	keys := calendar.HolidaySet(year).Keys()
	out := make([]holidayDay, 0, len(keys))
	for _, k := range keys {
		d, err := calendar.ParseDateKey(k)
		if err != nil {
			continue
		}
		out = append(out, holidayDay{Date: k, Weekday: calendar.WeekdayKanji(d.Weekday())})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleCalendar(c echo.Context) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1 {
		return badRequest(c, "invalid year")
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		return badRequest(c, "invalid month")
	}
	return c.JSON(http.StatusOK, calendar.Month(year, time.Month(month), s.app.Tasks.All()))
}

func (s *Server) handleICS(c echo.Context) error {
	body := calendar.BuildICS(s.app.Tasks.All(), s.app.Now())
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="tasks.ics"`)
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}
