// Package jobs implements background jobs for the CRC portal API.
//
// Jobs run on a ticker independently of request handling and follow the
// same shape: NewXxx, Start, Stop, RunOnce and IsRunning. Errors are
// logged and the job keeps its schedule.
//
//	resync := jobs.NewRosterResync(rosterService, 5*time.Minute)
//	resync.Start()
//	defer resync.Stop()
package jobs
