package fpl

import (
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/gameweek-oracle/internal/usecase"
)

// Wire envelopes for the Fantasy Premier League API. Field sets are the
// subset the service consumes; unknown fields are ignored on decode.

type bootstrapEnvelope struct {
	Elements []playerItem `json:"elements"`
	Teams    []teamItem   `json:"teams"`
	Events   []eventItem  `json:"events"`
}

type playerItem struct {
	ID                int    `json:"id"`
	WebName           string `json:"web_name"`
	FirstName         string `json:"first_name"`
	SecondName        string `json:"second_name"`
	Team              int    `json:"team"`
	ElementType       int    `json:"element_type"`
	NowCost           int    `json:"now_cost"`
	TotalPoints       int    `json:"total_points"`
	EventPoints       int    `json:"event_points"`
	Form              string `json:"form"`
	SelectedByPercent string `json:"selected_by_percent"`
	Minutes           int    `json:"minutes"`
}

type teamItem struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Strength  int    `json:"strength"`
}

type eventItem struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	DeadlineTime string `json:"deadline_time"`
	Finished     bool   `json:"finished"`
	DataChecked  bool   `json:"data_checked"`
	IsPrevious   bool   `json:"is_previous"`
	IsCurrent    bool   `json:"is_current"`
	IsNext       bool   `json:"is_next"`
}

type fixtureItem struct {
	ID              int    `json:"id"`
	Event           int    `json:"event"`
	TeamH           int    `json:"team_h"`
	TeamA           int    `json:"team_a"`
	TeamHScore      *int   `json:"team_h_score"`
	TeamAScore      *int   `json:"team_a_score"`
	Started         bool   `json:"started"`
	Finished        bool   `json:"finished"`
	KickoffTime     string `json:"kickoff_time"`
	TeamHDifficulty int    `json:"team_h_difficulty"`
	TeamADifficulty int    `json:"team_a_difficulty"`
}

// The live endpoint keys per-player stat lines by the stringified external
// player id.
type liveEnvelope struct {
	Elements map[string]liveElement `json:"elements"`
}

type liveElement struct {
	Stats usecase.ExternalLiveStats `json:"stats"`
}

type elementSummaryEnvelope struct {
	History []historyItem `json:"history"`
}

type historyItem struct {
	Element     int    `json:"element"`
	Fixture     int    `json:"fixture"`
	Round       int    `json:"round"`
	KickoffTime string `json:"kickoff_time"`
	TotalPoints int    `json:"total_points"`
	Minutes     int    `json:"minutes"`
	GoalsScored int    `json:"goals_scored"`
	Assists     int    `json:"assists"`
	CleanSheets int    `json:"clean_sheets"`
	YellowCards int    `json:"yellow_cards"`
	RedCards    int    `json:"red_cards"`
	Saves       int    `json:"saves"`
	Bonus       int    `json:"bonus"`
	BPS         int    `json:"bps"`
	Value       int    `json:"value"`
	Selected    int    `json:"selected"`
}

func mapBootstrap(envelope bootstrapEnvelope) usecase.ExternalBootstrap {
	players := make([]usecase.ExternalPlayer, 0, len(envelope.Elements))
	for _, item := range envelope.Elements {
		if item.ID <= 0 {
			continue
		}
		players = append(players, usecase.ExternalPlayer{
			ExternalID:     item.ID,
			Name:           strings.TrimSpace(item.WebName),
			FirstName:      strings.TrimSpace(item.FirstName),
			SecondName:     strings.TrimSpace(item.SecondName),
			TeamExternalID: item.Team,
			Position:       positionCodeFromElementType(item.ElementType),
			Price:          item.NowCost,
			TotalPoints:    item.TotalPoints,
			EventPoints:    item.EventPoints,
			Form:           strings.TrimSpace(item.Form),
			SelectedBy:     strings.TrimSpace(item.SelectedByPercent),
			Minutes:        item.Minutes,
		})
	}

	teams := make([]usecase.ExternalTeam, 0, len(envelope.Teams))
	for _, item := range envelope.Teams {
		if item.ID <= 0 {
			continue
		}
		teams = append(teams, usecase.ExternalTeam{
			ExternalID: item.ID,
			Name:       strings.TrimSpace(item.Name),
			ShortName:  strings.TrimSpace(item.ShortName),
			Strength:   item.Strength,
		})
	}

	gameweeks := make([]usecase.ExternalGameweek, 0, len(envelope.Events))
	for _, item := range envelope.Events {
		if item.ID <= 0 {
			continue
		}
		row := usecase.ExternalGameweek{
			ID:          item.ID,
			Name:        strings.TrimSpace(item.Name),
			Finished:    item.Finished,
			DataChecked: item.DataChecked,
			IsPrevious:  item.IsPrevious,
			IsCurrent:   item.IsCurrent,
			IsNext:      item.IsNext,
		}
		if parsed := parseProviderDateTime(item.DeadlineTime); parsed != nil {
			row.DeadlineTime = *parsed
		}
		gameweeks = append(gameweeks, row)
	}

	return usecase.ExternalBootstrap{
		Players:   players,
		Teams:     teams,
		Gameweeks: gameweeks,
	}
}

func mapLiveElements(envelope liveEnvelope) map[int]usecase.ExternalLiveStats {
	out := make(map[int]usecase.ExternalLiveStats, len(envelope.Elements))
	for rawID, element := range envelope.Elements {
		externalID, err := strconv.Atoi(strings.TrimSpace(rawID))
		if err != nil || externalID <= 0 {
			continue
		}
		out[externalID] = element.Stats
	}
	return out
}

func mapFixtures(items []fixtureItem) []usecase.ExternalFixture {
	out := make([]usecase.ExternalFixture, 0, len(items))
	for _, item := range items {
		if item.ID <= 0 {
			continue
		}
		row := usecase.ExternalFixture{
			ExternalID:     item.ID,
			Gameweek:       item.Event,
			HomeTeamID:     item.TeamH,
			AwayTeamID:     item.TeamA,
			HomeScore:      item.TeamHScore,
			AwayScore:      item.TeamAScore,
			Started:        item.Started,
			Finished:       item.Finished,
			HomeDifficulty: item.TeamHDifficulty,
			AwayDifficulty: item.TeamADifficulty,
		}
		if parsed := parseProviderDateTime(item.KickoffTime); parsed != nil {
			row.KickoffAt = *parsed
		}
		out = append(out, row)
	}
	return out
}

func mapPlayerHistory(externalID int, items []historyItem) []usecase.ExternalPlayerRound {
	out := make([]usecase.ExternalPlayerRound, 0, len(items))
	for _, item := range items {
		row := usecase.ExternalPlayerRound{
			ExternalID:  externalID,
			FixtureID:   item.Fixture,
			Gameweek:    item.Round,
			TotalPoints: item.TotalPoints,
			Minutes:     item.Minutes,
			GoalsScored: item.GoalsScored,
			Assists:     item.Assists,
			CleanSheets: item.CleanSheets,
			YellowCards: item.YellowCards,
			RedCards:    item.RedCards,
			Saves:       item.Saves,
			Bonus:       item.Bonus,
			BPS:         item.BPS,
			Value:       item.Value,
			Selected:    item.Selected,
		}
		if item.Element > 0 {
			row.ExternalID = item.Element
		}
		row.KickoffAt = parseProviderDateTime(item.KickoffTime)
		out = append(out, row)
	}
	return out
}

func positionCodeFromElementType(value int) string {
	switch value {
	case 1:
		return "GKP"
	case 2:
		return "DEF"
	case 3:
		return "MID"
	case 4:
		return "FWD"
	default:
		return ""
	}
}

func parseProviderDateTime(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			v := parsed.UTC()
			return &v
		}
	}
	return nil
}
