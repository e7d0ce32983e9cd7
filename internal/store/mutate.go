package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Document mutators shared by both backends. Each operates on an already
// loaded Astronaut; backends wrap them in their own load/save cycle.

func nowDate() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func addSymptomLog(a *Astronaut, l *SymptomLog) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Date == "" {
		l.Date = nowDate()
	}
	a.SymptomLogs = append(a.SymptomLogs, *l)
}

func attachSymptomMedia(a *Astronaut, logID, mediaType, dataURL string) error {
	for i := range a.SymptomLogs {
		if a.SymptomLogs[i].ID != logID {
			continue
		}
		switch mediaType {
		case "photo":
			a.SymptomLogs[i].Photo = dataURL
		case "video":
			a.SymptomLogs[i].Video = dataURL
		default:
			return fmt.Errorf("store: unknown media type %q", mediaType)
		}
		return nil
	}
	return fmt.Errorf("store: symptom log %q: %w", logID, ErrNotFound)
}

func addCaptainLog(a *Astronaut, l *CaptainLog) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Date == "" {
		l.Date = nowDate()
	}
	a.CaptainLogs = append(a.CaptainLogs, *l)
}

func upsertCheckIn(a *Astronaut, c DailyCheckIn) {
	for i := range a.DailyCheckIns {
		if a.DailyCheckIns[i].Date == c.Date {
			a.DailyCheckIns[i] = c
			return
		}
	}
	a.DailyCheckIns = append(a.DailyCheckIns, c)
}

func addTask(a *Astronaut, t *MissionTask) {
	if t.ID == 0 {
		next := 1
		for _, existing := range a.MissionTasks {
			if existing.ID >= next {
				next = existing.ID + 1
			}
		}
		t.ID = next
	}
	a.MissionTasks = append(a.MissionTasks, *t)
}

func addEarthlinkMessage(a *Astronaut, m *EarthlinkMessage) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Date == "" {
		m.Date = nowDate()
	}
	a.EarthlinkMessages = append(a.EarthlinkMessages, *m)
}

func markEarthlinkViewed(a *Astronaut, messageID string) error {
	for i := range a.EarthlinkMessages {
		if a.EarthlinkMessages[i].ID == messageID {
			a.EarthlinkMessages[i].Viewed = true
			return nil
		}
	}
	return fmt.Errorf("store: earthlink message %q: %w", messageID, ErrNotFound)
}

func addDoctorAdvice(a *Astronaut, d *DoctorAdvice) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Date == "" {
		d.Date = nowDate()
	}
	a.DoctorAdvice = append(a.DoctorAdvice, *d)
}

func addProcedure(a *Astronaut, p *MissionProcedure) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	for i := range p.Steps {
		if p.Steps[i].ID == "" {
			p.Steps[i].ID = uuid.NewString()
		}
	}
	a.Procedures = append(a.Procedures, *p)
}

func addMassProtocol(a *Astronaut, p *MassProtocol) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	a.MassProtocols = append(a.MassProtocols, *p)
}
