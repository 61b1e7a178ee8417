package domain

// Status - общий словарь статусов. Раньше каждая страница держала свой switch с цветами,
// теперь все сущности смотрят в одну таблицу StatusKinds.
type Status string

// Tone - семантический цвет бейджа. Конкретный CSS выбирает фронтенд.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
	ToneInfo    Tone = "info"
	ToneNeutral Tone = "neutral"
)

type Presentation struct {
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
	Icon  string `json:"icon"`
}

// Виды сущностей со статусом
const (
	KindEmployee       = "employee"
	KindUtilization    = "utilization"
	KindAutomationRule = "automation_rule"
	KindCandidate      = "candidate"
	KindTraining       = "training"
	KindSession        = "session"
	KindPayrollRun     = "payroll_run"
	KindAccessRequest  = "access_request"
)

const (
	StatusActive        Status = "active"
	StatusPaused        Status = "paused"
	StatusDraft         Status = "draft"
	StatusOnLeave       Status = "on-leave"
	StatusTerminated    Status = "terminated"
	StatusRemote        Status = "remote"
	StatusOptimal       Status = "optimal"
	StatusOverUtilized  Status = "over-utilized"
	StatusUnderUtilized Status = "under-utilized"
	StatusOnBench       Status = "on-bench"
	StatusNew           Status = "new"
	StatusScreening     Status = "screening"
	StatusInterview     Status = "interview"
	StatusOffer         Status = "offer"
	StatusHired         Status = "hired"
	StatusRejected      Status = "rejected"
	StatusNotStarted    Status = "not-started"
	StatusInProgress    Status = "in-progress"
	StatusCompleted     Status = "completed"
	StatusOverdue       Status = "overdue"
	StatusScheduled     Status = "scheduled"
	StatusCancelled     Status = "cancelled"
	StatusProcessing    Status = "processing"
	StatusFailed        Status = "failed"
	StatusPending       Status = "pending"
	StatusApproved      Status = "approved"
)

var neutral = Presentation{Label: "Unknown", Tone: ToneNeutral, Icon: "circle"}

// StatusKinds - единственный источник правды для бейджей.
var StatusKinds = map[string]map[Status]Presentation{
	KindEmployee: {
		StatusActive:     {Label: "Active", Tone: ToneSuccess, Icon: "check-circle"},
		StatusOnLeave:    {Label: "On leave", Tone: ToneWarning, Icon: "calendar-off"},
		StatusRemote:     {Label: "Remote", Tone: ToneInfo, Icon: "globe"},
		StatusTerminated: {Label: "Terminated", Tone: ToneDanger, Icon: "x-circle"},
	},
	KindUtilization: {
		StatusOptimal:       {Label: "Optimal", Tone: ToneSuccess, Icon: "check-circle"},
		StatusOverUtilized:  {Label: "Over-utilized", Tone: ToneDanger, Icon: "alert-triangle"},
		StatusUnderUtilized: {Label: "Under-utilized", Tone: ToneWarning, Icon: "trending-down"},
		StatusOnBench:       {Label: "On bench", Tone: ToneInfo, Icon: "pause-circle"},
	},
	KindAutomationRule: {
		StatusActive: {Label: "Active", Tone: ToneSuccess, Icon: "play"},
		StatusPaused: {Label: "Paused", Tone: ToneWarning, Icon: "pause"},
		StatusDraft:  {Label: "Draft", Tone: ToneNeutral, Icon: "edit"},
	},
	KindCandidate: {
		StatusNew:       {Label: "New", Tone: ToneInfo, Icon: "user-plus"},
		StatusScreening: {Label: "Screening", Tone: ToneInfo, Icon: "search"},
		StatusInterview: {Label: "Interview", Tone: ToneWarning, Icon: "message-square"},
		StatusOffer:     {Label: "Offer", Tone: ToneWarning, Icon: "file-text"},
		StatusHired:     {Label: "Hired", Tone: ToneSuccess, Icon: "check-circle"},
		StatusRejected:  {Label: "Rejected", Tone: ToneDanger, Icon: "x-circle"},
	},
	KindTraining: {
		StatusNotStarted: {Label: "Not started", Tone: ToneNeutral, Icon: "circle"},
		StatusInProgress: {Label: "In progress", Tone: ToneInfo, Icon: "loader"},
		StatusCompleted:  {Label: "Completed", Tone: ToneSuccess, Icon: "check-circle"},
		StatusOverdue:    {Label: "Overdue", Tone: ToneDanger, Icon: "alert-circle"},
	},
	KindSession: {
		StatusScheduled:  {Label: "Scheduled", Tone: ToneInfo, Icon: "calendar"},
		StatusInProgress: {Label: "In progress", Tone: ToneWarning, Icon: "loader"},
		StatusCompleted:  {Label: "Completed", Tone: ToneSuccess, Icon: "check-circle"},
		StatusCancelled:  {Label: "Cancelled", Tone: ToneDanger, Icon: "x-circle"},
	},
	KindPayrollRun: {
		StatusDraft:      {Label: "Draft", Tone: ToneNeutral, Icon: "edit"},
		StatusProcessing: {Label: "Processing", Tone: ToneInfo, Icon: "loader"},
		StatusCompleted:  {Label: "Completed", Tone: ToneSuccess, Icon: "check-circle"},
		StatusFailed:     {Label: "Failed", Tone: ToneDanger, Icon: "alert-triangle"},
		StatusCancelled:  {Label: "Cancelled", Tone: ToneDanger, Icon: "x-circle"},
	},
	KindAccessRequest: {
		StatusPending:  {Label: "Pending", Tone: ToneWarning, Icon: "clock"},
		StatusApproved: {Label: "Approved", Tone: ToneSuccess, Icon: "check-circle"},
		StatusRejected: {Label: "Rejected", Tone: ToneDanger, Icon: "x-circle"},
	},
}

// Present возвращает оформление статуса. Неизвестные статусы - нейтральный бейдж.
func Present(kind string, s Status) Presentation {
	if p, ok := StatusKinds[kind][s]; ok {
		return p
	}
	return neutral
}

// Known проверяет, что статус входит в словарь своего вида.
func Known(kind string, s Status) bool {
	_, ok := StatusKinds[kind][s]
	return ok
}
