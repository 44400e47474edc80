package testresults

import "fmt"

const (
	platformRateTemplateConstant = "%d.%d"
	emptyPlatformRateConstant    = "0.0"
)

// PlatformSuccessRate formats the share of non-failed jobs with one decimal, truncated.
// An empty bucket reports 0.0.
func PlatformSuccessRate(total int, failed int) string {
	if total <= 0 {
		return emptyPlatformRateConstant
	}
	permille := (total - failed) * 1000 / total
	return fmt.Sprintf(platformRateTemplateConstant, permille/10, permille%10)
}

// OverallSuccessRate is the integer percentage of successful jobs, 0 for an empty run.
func OverallSuccessRate(total int, successful int) int {
	if total <= 0 {
		return 0
	}
	return successful * 100 / total
}
