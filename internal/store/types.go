package store

// Severity levels accepted for symptom logs.
const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
)

// ValidSeverity reports whether s is one of the accepted severity levels.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityMild, SeverityModerate, SeveritySevere:
		return true
	}
	return false
}

// SymptomLog is a single health complaint recorded by or for the astronaut.
type SymptomLog struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	Symptom  string `json:"symptom"`
	Severity string `json:"severity"`
	Notes    string `json:"notes"`
	// Photo and Video hold base64 data URLs captured as symptom evidence.
	Photo string `json:"photo,omitempty"`
	Video string `json:"video,omitempty"`
}

// MissionTask is one entry in the astronaut's daily schedule.
type MissionTask struct {
	ID        int    `json:"id"`
	Time      string `json:"time"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// CaptainLog is a personal diary entry.
type CaptainLog struct {
	ID    string `json:"id"`
	Date  string `json:"date"`
	Text  string `json:"text"`
	Photo string `json:"photo,omitempty"`
	Video string `json:"video,omitempty"`
}

// DoctorAdvice is ground-crew medical advice linked to a symptom log.
type DoctorAdvice struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Text         string `json:"text"`
	SymptomLogID string `json:"symptomLogId"`
}

// MassProtocol is a prescribed exercise protocol.
type MassProtocol struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Sets int    `json:"sets"`
	// Duration is per-set work time in minutes.
	Duration int `json:"duration"`
	// Rest is between-set rest time in seconds.
	Rest int `json:"rest"`
}

// ProcedureStep is one step of a mission procedure.
type ProcedureStep struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// MissionProcedure is an ordered checklist uploaded by ground crew.
type MissionProcedure struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Steps []ProcedureStep `json:"steps"`
}

// DailyCheckIn is the astronaut's daily mood and sleep report. At most one
// exists per calendar date.
type DailyCheckIn struct {
	// Date in YYYY-MM-DD form.
	Date  string `json:"date"`
	Mood  string `json:"mood"`
	Sleep string `json:"sleep"`
}

// EarthlinkMessage is a message in the family communication log. Outbound
// messages (sent by the astronaut) and inbound ones (uploaded by ground crew)
// share the same shape.
type EarthlinkMessage struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	From     string `json:"from"`
	Text     string `json:"text,omitempty"`
	PhotoURL string `json:"photoUrl,omitempty"`
	VideoURL string `json:"videoUrl,omitempty"`
	Viewed   bool   `json:"viewed"`
}

// Astronaut is the full wellness document for one crew member. It is stored
// and retrieved as a unit; every collection is owned exclusively by this
// document.
type Astronaut struct {
	Name              string             `json:"name"`
	PhotoURL          string             `json:"photoUrl,omitempty"`
	Designation       string             `json:"designation"`
	MissionTasks      []MissionTask      `json:"missionTasks"`
	SymptomLogs       []SymptomLog       `json:"symptomLogs"`
	CaptainLogs       []CaptainLog       `json:"captainLogs"`
	DoctorAdvice      []DoctorAdvice     `json:"doctorAdvice"`
	MassProtocols     []MassProtocol     `json:"massProtocols"`
	Procedures        []MissionProcedure `json:"procedures"`
	DailyCheckIns     []DailyCheckIn     `json:"dailyCheckInLogs"`
	EarthlinkMessages []EarthlinkMessage `json:"earthlinkMessages"`
}

// normalize ensures all collections are non-nil so JSON output carries empty
// arrays instead of nulls.
func (a *Astronaut) normalize() {
	if a.MissionTasks == nil {
		a.MissionTasks = []MissionTask{}
	}
	if a.SymptomLogs == nil {
		a.SymptomLogs = []SymptomLog{}
	}
	if a.CaptainLogs == nil {
		a.CaptainLogs = []CaptainLog{}
	}
	if a.DoctorAdvice == nil {
		a.DoctorAdvice = []DoctorAdvice{}
	}
	if a.MassProtocols == nil {
		a.MassProtocols = []MassProtocol{}
	}
	if a.Procedures == nil {
		a.Procedures = []MissionProcedure{}
	}
	if a.DailyCheckIns == nil {
		a.DailyCheckIns = []DailyCheckIn{}
	}
	if a.EarthlinkMessages == nil {
		a.EarthlinkMessages = []EarthlinkMessage{}
	}
}
