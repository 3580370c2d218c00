package utils

import (
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate 解析 YYYY-MM-DD 格式的日期，返回 UTC 零点
func ParseDate(dateStr string) (time.Time, error) {
	return time.Parse(dateLayout, dateStr)
}

// FormatDate 格式化为 YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// DateOf 截断到当天零点，保持原时区
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// HoursBetween 计算两个时间点之间的工时，保留两位小数
func HoursBetween(start, end time.Time) float64 {
	return Round2(end.Sub(start).Hours())
}

// Round2 四舍五入到两位小数，工时和金额统一用这个精度入库
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
