package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var riskNow = time.Date(2025, 1, 1, 15, 30, 0, 0, time.Local)

func TestDiffDays(t *testing.T) {
	assert.Equal(t, 0, DiffDays(riskNow, time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)))
	assert.Equal(t, 1, DiffDays(riskNow, time.Date(2025, 1, 2, 0, 0, 0, 0, time.Local)))
	assert.Equal(t, -1, DiffDays(riskNow, time.Date(2024, 12, 31, 23, 0, 0, 0, time.Local)))
	assert.Equal(t, 365, DiffDays(riskNow, time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)))
}

func TestRiskLabel_Buckets(t *testing.T) {
	cases := []struct {
		due  string
		want Risk
	}{
		{"", Risk{Text: "未定", Class: RiskNormal}},
		{"2025-01-01", Risk{Text: "今日", Class: RiskUrgent}},
		{"2025-01-02", Risk{Text: "明日", Class: RiskSoon}},
		{"2025-01-03", Risk{Text: "明後日", Class: RiskSoon}},
		{"2025-01-04", Risk{Text: "3日後", Class: RiskNormal}},
		{"2024-12-31", Risk{Text: "1日前", Class: RiskPast}},
		{"2024-12-20", Risk{Text: "12日前", Class: RiskPast}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RiskLabel(tc.due, riskNow), tc.due)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "未定", FormatDate("", ""))
	assert.Equal(t, "25/01/01(水)", FormatDate("2025-01-01", ""))
	assert.Equal(t, "25/01/01(水) 09:30", FormatDate("2025-01-01", "09:30"))
}

func TestValidTime(t *testing.T) {
	assert.True(t, ValidTime("09:30"))
	assert.True(t, ValidTime("23:59"))
	assert.False(t, ValidTime("24:00"))
	assert.False(t, ValidTime("9:30"))
	assert.False(t, ValidTime("noon"))
}

func TestRemindText(t *testing.T) {
	assert.Equal(t, "-", RemindText("", "", riskNow))
	assert.Equal(t, "0日 8時 30分", RemindText("2025-01-02", "", riskNow))
	assert.Equal(t, "1日 2時 0分", RemindText("2025-01-02", "17:30", riskNow))
	assert.Equal(t, "0日 0時 0分", RemindText("2024-12-01", "", riskNow))
}
