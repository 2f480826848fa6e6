package model

import "time"

// TournamentStatus は大会の進行状態を表す。
type TournamentStatus string

const (
	TournamentStatusPlanning     TournamentStatus = "planning"
	TournamentStatusRegistration TournamentStatus = "registration"
	TournamentStatusOngoing      TournamentStatus = "ongoing"
	TournamentStatusCompleted    TournamentStatus = "completed"
	TournamentStatusCancelled    TournamentStatus = "cancelled"
)

// Valid は状態が定義済みの値かどうかを返す。
func (s TournamentStatus) Valid() bool {
	switch s {
	case TournamentStatusPlanning, TournamentStatusRegistration,
		TournamentStatusOngoing, TournamentStatusCompleted, TournamentStatusCancelled:
		return true
	}
	return false
}

// Tournament は大会を表す。
type Tournament struct {
	ID              string
	Name            string
	Description     string
	StartDate       time.Time
	EndDate         time.Time
	Location        string
	Status          TournamentStatus
	Organizer       string
	Chairman        string
	RefereeChief    string
	Treasurer       string
	AdminTournament string
	RegistrationFee *float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TournamentDay は大会の開催日ごとのスケジュールを表す。
// StartTime, EndTime は "HH:MM" 形式。
type TournamentDay struct {
	ID           string
	TournamentID string
	DayNumber    int
	Date         time.Time
	Name         string
	Description  string
	StartTime    string
	EndTime      string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Document はオブジェクトストレージにアップロードされたファイルのメタデータ。
type Document struct {
	ID           string
	TournamentID string // 空文字は大会に紐付かないファイル
	Folder       string
	FileName     string
	ObjectKey    string
	URL          string
	ContentType  string
	SizeBytes    int64
	UploadedBy   string
	CreatedAt    time.Time
}
