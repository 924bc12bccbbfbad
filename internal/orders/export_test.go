package orders

import "time"

func SetPromoterClock(p *StatusPromoter, now func() time.Time) { p.now = now }

func SetServiceClock(s *Service, now func() time.Time) { s.now = now }
