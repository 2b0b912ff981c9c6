package sim

import "sort"

func NewFloatSchedule(defaultVal float64, points ...FloatPoint) *FloatSchedule {
	p := append([]FloatPoint(nil), points...)
	sort.SliceStable(p, func(i, j int) bool { return p[i].At < p[j].At })
	return &FloatSchedule{Points: p, Default: defaultVal}
}

// ConstSchedule is a schedule with no points.
func ConstSchedule(v float64) *FloatSchedule { return &FloatSchedule{Default: v} }
