package config

type WorkerKeyStruct struct {
	CourseStatsHandler string
}

var WorkerKey = &WorkerKeyStruct{
	CourseStatsHandler: "course_stats_projection",
}
