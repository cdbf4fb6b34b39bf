// Package retention bounds the size of the reconciliation journal by age
// and by record count, optionally on a cron schedule.
package retention
