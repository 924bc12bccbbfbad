package scheduler

import (
	"sync"
	"time"
)

// Ticker délivre les déclenchements du job. Un déclenchement non consommé
// n'est pas empilé : le suivant le remplace.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// DailyTicker se déclenche chaque jour à hour:minute dans loc.
type DailyTicker struct {
	hour, minute int
	loc          *time.Location

	c    chan time.Time
	stop chan struct{}
	once sync.Once
}

func NewDailyTicker(hour, minute int, loc *time.Location) *DailyTicker {
	if loc == nil {
		loc = time.Local
	}
	t := &DailyTicker{
		hour:   hour,
		minute: minute,
		loc:    loc,
		c:      make(chan time.Time, 1),
		stop:   make(chan struct{}),
	}
	go t.loop()
	return t
}

func (t *DailyTicker) C() <-chan time.Time { return t.c }

func (t *DailyTicker) Stop() {
	t.once.Do(func() { close(t.stop) })
}

func (t *DailyTicker) loop() {
	for {
		timer := time.NewTimer(time.Until(NextRun(time.Now(), t.hour, t.minute, t.loc)))
		select {
		case <-t.stop:
			timer.Stop()
			return
		case fired := <-timer.C:
			select {
			case t.c <- fired:
			default:
			}
		}
	}
}

// NextRun renvoie la prochaine occurrence de hour:minute strictement après now.
func NextRun(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}
