package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "announcer/pkg/logx"
)

type Config struct {
	Timezone string // IANA TZ, e.g. "Europe/Vienna"; empty means Local
}

type Job func(ctx context.Context) error

type scheduleDef struct {
	id      string
	name    string
	spec    string // cron spec or @every
	timeout time.Duration
	job     Job
	entryID cron.EntryID
}

type Service struct {
	mu sync.Mutex

	log logx.Logger
	cfg Config
	loc *time.Location

	parser cron.Parser
	c      *cron.Cron
	defs   []scheduleDef

	// base is cancelled by Stop so in-flight jobs see shutdown.
	base   context.Context
	cancel context.CancelFunc
	runs   sync.WaitGroup
}

type ScheduleInfo struct {
	ID      string
	Name    string
	Spec    string
	Timeout time.Duration
	Next    time.Time
	Prev    time.Time
}
