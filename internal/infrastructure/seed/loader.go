// Package seed loads the static player mapping table that links internal
// player ids to provider player ids.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/riskibarqy/gameweek-oracle/internal/domain/playermap"
	"github.com/riskibarqy/gameweek-oracle/internal/platform/logging"
)

//go:embed player_mappings.yaml
var defaultMappingsYAML []byte

var validate = validator.New()

type mappingsFile struct {
	Players []mappingRow `yaml:"players" validate:"required,min=1"`
}

type mappingRow struct {
	InternalID uint64 `yaml:"internal_id" validate:"required,gt=0"`
	ExternalID int    `yaml:"external_id" validate:"required,gt=0"`
	Name       string `yaml:"name" validate:"required"`
	Team       string `yaml:"team"`
	Position   string `yaml:"position" validate:"required,oneof=GKP DEF MID FWD"`
}

// Load reads the mapping table from path, or from the embedded default table
// when path is empty.
func Load(path string, logger *logging.Logger) ([]playermap.SeedRow, error) {
	raw := defaultMappingsYAML
	if strings.TrimSpace(path) != "" {
		fileRaw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read mapping table %s: %w", path, err)
		}
		raw = fileRaw
	}
	return Parse(raw, logger)
}

// Parse decodes a YAML mapping table. A table that cannot be decoded or that
// lists no rows at all is an error; individual malformed rows are skipped and
// logged so one bad row cannot take the table down.
func Parse(raw []byte, logger *logging.Logger) ([]playermap.SeedRow, error) {
	var file mappingsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode mapping table: %w", err)
	}
	if err := validate.Struct(file); err != nil {
		return nil, fmt.Errorf("validate mapping table: %w", err)
	}

	rows := make([]playermap.SeedRow, 0, len(file.Players))
	for _, item := range file.Players {
		if err := validate.Struct(item); err != nil {
			logger.Warn("skipping malformed mapping row", "internal_id", item.InternalID, "error", err)
			continue
		}
		row := playermap.SeedRow{
			InternalID: item.InternalID,
			ExternalID: item.ExternalID,
			Name:       strings.TrimSpace(item.Name),
			Team:       strings.TrimSpace(item.Team),
			Position:   playermap.Position(strings.ToUpper(strings.TrimSpace(item.Position))),
		}
		if err := row.Validate(); err != nil {
			logger.Warn("skipping malformed mapping row", "internal_id", item.InternalID, "error", err)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
