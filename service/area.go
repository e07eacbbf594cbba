package service

import "image"

// AreaTally 类别到累计像素面积的映射，只在单个请求内使用
type AreaTally map[string]int64

// CountCovered 统计mask中非零像素数量
func CountCovered(mask *image.Gray) int64 {
	var n int64
	b := mask.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, y):mask.PixOffset(b.Max.X, y)]
		for _, v := range row {
			if v > 0 {
				n++
			}
		}
	}
	return n
}

// Accumulate 把mask面积累加到类别上，返回本次面积
func (t AreaTally) Accumulate(mask *image.Gray, class string) int64 {
	area := CountCovered(mask)
	t[class] += area
	return area
}

func (t AreaTally) Total() int64 {
	var total int64
	for _, v := range t {
		total += v
	}
	return total
}
