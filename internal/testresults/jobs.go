package testresults

import "strings"

const (
	conclusionSuccessConstant = "success"
	conclusionFailureConstant = "failure"
	testJobMarkerConstant     = "run-tests /"
)

// JobRecord is the subset of a workflow job the report needs.
type JobRecord struct {
	Name       string
	Status     string
	Conclusion string
}

// PlatformKey identifies a platform bucket.
type PlatformKey string

// Platform buckets.
const (
	PlatformLinuxARM64 PlatformKey = "linux-arm64"
	PlatformLinuxX64   PlatformKey = "linux-x64"
	PlatformMacOSARM64 PlatformKey = "macos-arm64"
	PlatformMacOSX64   PlatformKey = "macos-x64"
)

// Platforms lists every bucket in report order.
var Platforms = []PlatformKey{PlatformLinuxARM64, PlatformLinuxX64, PlatformMacOSARM64, PlatformMacOSX64}

var platformTokenPrefixes = map[PlatformKey]string{
	PlatformLinuxARM64: "LINUX_ARM64",
	PlatformLinuxX64:   "LINUX_X64",
	PlatformMacOSARM64: "MACOS_ARM64",
	PlatformMacOSX64:   "MACOS_X64",
}

// TokenPrefix returns the template token prefix of the platform, such as LINUX_ARM64.
func (platform PlatformKey) TokenPrefix() string {
	return platformTokenPrefixes[platform]
}

// PlatformStats counts the bucketed jobs of one platform.
type PlatformStats struct {
	Total  int
	Failed int
}

// JobStatistics aggregates a workflow run.
type JobStatistics struct {
	TotalJobs      int
	SuccessfulJobs int
	FailedJobs     int
	Platforms      map[PlatformKey]PlatformStats
}

type classificationRule struct {
	platform PlatformKey
	matches  func(jobName string) bool
}

// Evaluated in order; the first matching rule wins.
var classificationRules = []classificationRule{
	{platform: PlatformLinuxARM64, matches: containsAll("linux", "ARM64")},
	{platform: PlatformLinuxX64, matches: containsAll("linux", "X64")},
	{platform: PlatformMacOSARM64, matches: containsAll("macOS", "ARM64")},
	{platform: PlatformMacOSX64, matches: containsAll("macos-15-intel")},
}

func containsAll(fragments ...string) func(string) bool {
	return func(jobName string) bool {
		for _, fragment := range fragments {
			if !strings.Contains(jobName, fragment) {
				return false
			}
		}
		return true
	}
}

// ClassifyPlatform returns the bucket of a test job, or false for jobs that are not
// platform test jobs.
func ClassifyPlatform(jobName string) (PlatformKey, bool) {
	if !strings.Contains(jobName, testJobMarkerConstant) {
		return "", false
	}
	for _, rule := range classificationRules {
		if rule.matches(jobName) {
			return rule.platform, true
		}
	}
	return "", false
}

// ClassifyJobs computes overall and per-platform counts.
func ClassifyJobs(jobs []JobRecord) JobStatistics {
	statistics := JobStatistics{
		TotalJobs: len(jobs),
		Platforms: make(map[PlatformKey]PlatformStats, len(Platforms)),
	}
	for _, platform := range Platforms {
		statistics.Platforms[platform] = PlatformStats{}
	}

	for _, job := range jobs {
		switch job.Conclusion {
		case conclusionSuccessConstant:
			statistics.SuccessfulJobs++
		case conclusionFailureConstant:
			statistics.FailedJobs++
		}

		platform, bucketed := ClassifyPlatform(job.Name)
		if !bucketed {
			continue
		}
		platformStats := statistics.Platforms[platform]
		platformStats.Total++
		if job.Conclusion == conclusionFailureConstant {
			platformStats.Failed++
		}
		statistics.Platforms[platform] = platformStats
	}

	return statistics
}
