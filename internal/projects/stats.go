package projects

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// ComputeStats calcula duração, dias restantes e progresso no tempo.
// Datas inválidas resultam em zeros.
func ComputeStats(p Project, now time.Time) WithStats {
	out := WithStats{Project: p}

	start, err1 := time.Parse(DateLayout, p.StartDate)
	end, err2 := time.Parse(DateLayout, p.EndDate)
	if err1 != nil || err2 != nil {
		return out
	}

	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	out.DurationDays = int(end.Sub(start) / day)
	out.DaysRemaining = int(end.Sub(today) / day)

	switch total := end.Sub(start); {
	case !now.After(start):
		out.TimeProgressPercent = 0
	case !now.Before(end) || total <= 0:
		out.TimeProgressPercent = 100
	default:
		pct := float64(now.Sub(start)) / float64(total) * 100
		out.TimeProgressPercent = int(math.Round(pct))
	}
	return out
}

func CountByStatus(ps []Project) Counts {
	var c Counts
	for _, p := range ps {
		switch p.Status {
		case StatusActive:
			c.Active++
		case StatusCompleted:
			c.Completed++
		case StatusArchived:
			c.Archived++
		}
	}
	c.Total = len(ps)
	return c
}

// Summarize agrega orçamento e atrasos. Atrasado = ativo com data final no passado.
func Summarize(ps []WithStats) Summary {
	var s Summary
	for _, p := range ps {
		s.TotalBudget += p.EstimatedBudget
		if p.Status == StatusActive {
			s.ActiveProjects++
			if p.DaysRemaining < 0 {
				s.OverdueProjects++
			}
		}
	}
	s.TotalProjects = len(ps)
	if len(ps) > 0 {
		s.AverageBudget = math.Round(s.TotalBudget / float64(len(ps)))
	}
	return s
}
