package httpapi

import (
	"github.com/riskibarqy/gameweek-oracle/internal/domain/playermap"
	"github.com/riskibarqy/gameweek-oracle/internal/usecase"
)

func mappingToDTO(m playermap.Mapping) mappingDTO {
	return mappingDTO{
		InternalID: m.InternalID,
		ExternalID: m.ExternalID,
		Name:       m.Name,
		Team:       m.Team,
		Position:   string(m.Position),
	}
}

func gameweekToDTO(gw usecase.ExternalGameweek) gameweekDTO {
	return gameweekDTO{
		ID:           gw.ID,
		Name:         gw.Name,
		DeadlineTime: gw.DeadlineTime,
		Finished:     gw.Finished,
		DataChecked:  gw.DataChecked,
		IsCurrent:    gw.IsCurrent,
		IsNext:       gw.IsNext,
	}
}

func fixtureToDTO(f usecase.ExternalFixture) fixtureDTO {
	return fixtureDTO{
		ID:             f.ExternalID,
		Gameweek:       f.Gameweek,
		HomeTeamID:     f.HomeTeamID,
		AwayTeamID:     f.AwayTeamID,
		HomeScore:      f.HomeScore,
		AwayScore:      f.AwayScore,
		Started:        f.Started,
		Finished:       f.Finished,
		KickoffAt:      f.KickoffAt,
		HomeDifficulty: f.HomeDifficulty,
		AwayDifficulty: f.AwayDifficulty,
	}
}
