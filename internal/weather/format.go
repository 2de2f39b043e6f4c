package weather

import (
	"fmt"
	"strings"
)

// weekdayNames maps Amap's week field ("1".."7") to the Chinese day name.
var weekdayNames = map[string]string{
	"1": "一",
	"2": "二",
	"3": "三",
	"4": "四",
	"5": "五",
	"6": "六",
	"7": "日",
}

// FormatReport renders a live observation as the weather card shown in chat.
func FormatReport(r *Report) string {
	return fmt.Sprintf(`📍 %s (%s)
🌡️ 温度: %s°C
🌤️ 天气: %s
💧 湿度: %s%%
🌬️ 风向: %s
💨 风力: %s
⏰ 更新时间: %s`,
		r.City, r.Province, r.Temperature, r.Weather, r.Humidity,
		r.WindDirection, r.WindPower, r.ReportTime)
}

// FormatForecast renders a forecast as one block per day.
func FormatForecast(f *Forecast) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📍 %s (%s) %d日天气预报\n", f.City, f.Province, len(f.Casts))
	for _, cast := range f.Casts {
		week, ok := weekdayNames[cast.Week]
		if !ok {
			week = cast.Week
		}
		fmt.Fprintf(&b, "\n📅 %s (周%s)\n", cast.Date, week)
		fmt.Fprintf(&b, "白天: %s %s°C %s风%s级\n", cast.DayWeather, cast.DayTemp, cast.DayWind, cast.DayPower)
		fmt.Fprintf(&b, "夜间: %s %s°C %s风%s级\n", cast.NightWeather, cast.NightTemp, cast.NightWind, cast.NightPower)
	}
	fmt.Fprintf(&b, "\n⏰ 更新时间: %s", f.ReportTime)
	return b.String()
}
