package service

import (
	"sort"

	"AttendOK/utils"
)

// 纯计算部分：日阈值拆分、周上限回拨、毛薪
// 周上限是对原始规则的简化：按周期总工时对比周阈值，不跨周期追踪真实日历周

// DailyHours 一名员工一天的工时
type DailyHours struct {
	Date  string
	Hours float64
}

// DayBreakdown 单日拆分明细，保留用于审计
type DayBreakdown struct {
	Date     string  `json:"date"`
	Hours    float64 `json:"hours"`
	Regular  float64 `json:"regular"`
	Overtime float64 `json:"overtime"`
}

// PaySplit 单名员工的薪资计算结果
type PaySplit struct {
	StandardHours float64
	OvertimeHours float64
	StandardRate  float64
	OvertimeRate  float64
	GrossPay      float64
	Daily         []DayBreakdown
	WeeklyShifted float64 // 周上限从常规移入加班的工时
}

// SplitDay 按日阈值拆分单日工时
func SplitDay(hours, dailyThreshold float64) (regular, overtime float64) {
	if hours <= dailyThreshold {
		return hours, 0
	}
	return dailyThreshold, hours - dailyThreshold
}

// ComputePay 计算一名员工整个周期的薪资
// 规则：先按日阈值逐日拆分，再对周期总量应用周上限 —
// 总工时超过周阈值时，把超出部分从常规工时移入加班（以常规工时为限）
func ComputePay(days []DailyHours, rate, dailyThreshold, weeklyThreshold, multiplier float64) PaySplit {
	sorted := append([]DailyHours(nil), days...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	split := PaySplit{
		StandardRate: rate,
		OvertimeRate: utils.Round2(rate * multiplier),
		Daily:        make([]DayBreakdown, 0, len(sorted)),
	}

	var regular, overtime float64
	for _, day := range sorted {
		dayRegular, dayOvertime := SplitDay(day.Hours, dailyThreshold)
		regular += dayRegular
		overtime += dayOvertime

		split.Daily = append(split.Daily, DayBreakdown{
			Date:     day.Date,
			Hours:    day.Hours,
			Regular:  dayRegular,
			Overtime: dayOvertime,
		})
	}

	if total := regular + overtime; total > weeklyThreshold {
		excess := total - weeklyThreshold
		shift := excess
		if shift > regular {
			shift = regular
		}
		regular -= shift
		overtime += shift
		split.WeeklyShifted = utils.Round2(shift)
	}

	split.StandardHours = utils.Round2(regular)
	split.OvertimeHours = utils.Round2(overtime)
	split.GrossPay = utils.Round2(split.StandardHours*split.StandardRate + split.OvertimeHours*split.OvertimeRate)

	return split
}
