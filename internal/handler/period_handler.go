package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/responsainveniree/student-info-api/pkg/academic"
	"github.com/responsainveniree/student-info-api/pkg/response"
)

// PeriodInfo describes the academic period containing a date.
type PeriodInfo struct {
	Date   string             `json:"date"`
	Period academic.Period    `json:"period"`
	Range  academic.DateRange `json:"range"`
}

// PeriodHandler resolves dates to semesters in the school time zone.
type PeriodHandler struct {
	loc *time.Location
	now func() time.Time
}

// NewPeriodHandler builds a new handler.
func NewPeriodHandler(loc *time.Location) *PeriodHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &PeriodHandler{loc: loc, now: time.Now}
}

// Resolve godoc
// @Summary Resolve the semester and academic year of a date
// @Tags Period
// @Produce json
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} response.Envelope
// @Router /period [get]
func (h *PeriodHandler) Resolve(c *gin.Context) {
	date, err := queryDate(c, "date", h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	at := h.now().In(h.loc)
	if date != nil {
		at = *date
	}
	response.JSON(c, http.StatusOK, PeriodInfo{
		Date:   at.Format(dateLayout),
		Period: academic.ResolveSemester(at),
		Range:  academic.SemesterDateRange(at),
	}, nil)
}
