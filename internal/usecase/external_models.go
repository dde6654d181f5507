package usecase

import "time"

// External* types are the provider-shaped payloads the rest of the system
// consumes. The wire schemas are owned by the provider; only the fields the
// service needs are carried.

type ExternalPlayer struct {
	ExternalID     int
	Name           string
	FirstName      string
	SecondName     string
	TeamExternalID int
	Position       string
	Price          int
	TotalPoints    int
	EventPoints    int
	Form           string
	SelectedBy     string
	Minutes        int
}

type ExternalTeam struct {
	ExternalID int
	Name       string
	ShortName  string
	Strength   int
}

type ExternalGameweek struct {
	ID           int
	Name         string
	DeadlineTime time.Time
	Finished     bool
	DataChecked  bool
	IsPrevious   bool
	IsCurrent    bool
	IsNext       bool
}

type ExternalFixture struct {
	ExternalID     int
	Gameweek       int
	HomeTeamID     int
	AwayTeamID     int
	HomeScore      *int
	AwayScore      *int
	Started        bool
	Finished       bool
	KickoffAt      time.Time
	HomeDifficulty int
	AwayDifficulty int
}

// ExternalLiveStats is one player's in-progress or final stat line for a
// gameweek. TotalPoints is the authoritative per-gameweek score.
type ExternalLiveStats struct {
	Minutes         int `json:"minutes"`
	GoalsScored     int `json:"goals_scored"`
	Assists         int `json:"assists"`
	CleanSheets     int `json:"clean_sheets"`
	GoalsConceded   int `json:"goals_conceded"`
	OwnGoals        int `json:"own_goals"`
	PenaltiesSaved  int `json:"penalties_saved"`
	PenaltiesMissed int `json:"penalties_missed"`
	YellowCards     int `json:"yellow_cards"`
	RedCards        int `json:"red_cards"`
	Saves           int `json:"saves"`
	Bonus           int `json:"bonus"`
	BPS             int `json:"bps"`
	TotalPoints     int `json:"total_points"`
}

type ExternalPlayerRound struct {
	ExternalID  int        `json:"external_id"`
	FixtureID   int        `json:"fixture_id"`
	Gameweek    int        `json:"gameweek"`
	KickoffAt   *time.Time `json:"kickoff_at,omitempty"`
	TotalPoints int        `json:"total_points"`
	Minutes     int        `json:"minutes"`
	GoalsScored int        `json:"goals_scored"`
	Assists     int        `json:"assists"`
	CleanSheets int        `json:"clean_sheets"`
	YellowCards int        `json:"yellow_cards"`
	RedCards    int        `json:"red_cards"`
	Saves       int        `json:"saves"`
	Bonus       int        `json:"bonus"`
	BPS         int        `json:"bps"`
	Value       int        `json:"value"`
	Selected    int        `json:"selected"`
}

// ExternalBootstrap is the provider's season-wide snapshot: every player,
// team and gameweek in one payload.
type ExternalBootstrap struct {
	Players   []ExternalPlayer
	Teams     []ExternalTeam
	Gameweeks []ExternalGameweek
}
