// Package scheduler owns repeating triggers backed by robfig/cron.
//
// Schedules are upserted by name, survive Stop/Start, and run each job with
// its own timeout. A job still running when its next tick arrives is skipped.
package scheduler
