package weather

import (
	"strings"
	"testing"
)

func TestFormatReportCardLines(t *testing.T) {
	card := FormatReport(&Report{
		City:          "北京市",
		Province:      "北京",
		Weather:       "晴",
		Temperature:   "25",
		Humidity:      "40",
		WindDirection: "东南",
		WindPower:     "≤3",
		ReportTime:    "2024-06-01 10:00:00",
	})

	want := `📍 北京市 (北京)
🌡️ 温度: 25°C
🌤️ 天气: 晴
💧 湿度: 40%
🌬️ 风向: 东南
💨 风力: ≤3
⏰ 更新时间: 2024-06-01 10:00:00`
	if card != want {
		t.Errorf("card mismatch:\ngot:\n%s\nwant:\n%s", card, want)
	}
}

func TestFormatForecastWeekdayMapping(t *testing.T) {
	out := FormatForecast(&Forecast{
		City:       "北京市",
		Province:   "北京",
		ReportTime: "2024-06-01 10:00:00",
		Casts: []Cast{
			{Date: "2024-06-01", Week: "6", DayWeather: "晴", NightWeather: "晴", DayTemp: "28", NightTemp: "18", DayWind: "南", NightWind: "南", DayPower: "3", NightPower: "3"},
			{Date: "2024-06-02", Week: "9", DayWeather: "多云", NightWeather: "阴", DayTemp: "26", NightTemp: "17", DayWind: "北", NightWind: "北", DayPower: "4", NightPower: "4"},
		},
	})

	if !strings.Contains(out, "(周六)") {
		t.Errorf("week 6 should render as 周六:\n%s", out)
	}
	// Unknown week values fall through verbatim.
	if !strings.Contains(out, "(周9)") {
		t.Errorf("unknown week should render verbatim:\n%s", out)
	}
	if !strings.Contains(out, "2日天气预报") {
		t.Errorf("header should carry the cast count:\n%s", out)
	}
}
