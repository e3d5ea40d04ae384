package ports

type SchedulerService interface {
	Start()
	Stop()
	ScheduleTaskOnce(at int64, task func()) error
}
