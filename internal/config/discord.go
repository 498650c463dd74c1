package config

import (
	"fmt"
	"os"

	"github.com/sourcecred/sourcecred-go/internal/parser"
)

// DiscordConfig configures the discord plugin surface: which guild to read
// and how reactions weigh into cred.
type DiscordConfig struct {
	GuildID         string
	ReactionWeights map[string]float64
	RoleWeights     map[string]float64
	ChannelWeights  map[string]float64
	IncludeNsfw     bool
	SimplifyGraph   bool
	BeginningTimeMs int64
	WeekLimit       int
	DefaultReaction float64
}

// ParseDiscordConfig decodes the discord plugin configuration.
func ParseDiscordConfig(data []byte) (DiscordConfig, error) {
	return discordConfigParser().ParseJSON(data)
}

// LoadDiscordConfig reads and decodes the discord configuration file.
func LoadDiscordConfig(path string) (DiscordConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DiscordConfig{}, fmt.Errorf("failed to read discord config: %w", err)
	}
	cfg, err := ParseDiscordConfig(data)
	if err != nil {
		return DiscordConfig{}, fmt.Errorf("failed to parse discord config %s: %w", path, err)
	}
	return cfg, nil
}

func discordConfigParser() parser.Parser[DiscordConfig] {
	weights := parser.Key(parser.Dict(parser.Number()))
	shape := parser.Object(
		map[string]parser.Field{
			"guildId": parser.Key(parser.String()),
		},
		map[string]parser.Field{
			"reactionWeights":     weights,
			"roleWeights":         weights,
			"channelWeights":      weights,
			"includeNsfwChannels": parser.Key(parser.Boolean()),
			"simplifyGraph":       parser.Key(parser.Boolean()),
			"beginningTimeMs":     parser.Key(parser.Number()),
			"weekLimit":           parser.Key(parser.Number()),
			"defaultReaction":     parser.Key(parser.Number()),
		},
	)
	return parser.Fmap(shape, func(fields map[string]any) (DiscordConfig, error) {
		cfg := DiscordConfig{
			GuildID:         fields["guildId"].(string),
			DefaultReaction: 1,
		}
		if w, ok := fields["reactionWeights"]; ok {
			cfg.ReactionWeights = w.(map[string]float64)
		}
		if w, ok := fields["roleWeights"]; ok {
			cfg.RoleWeights = w.(map[string]float64)
		}
		if w, ok := fields["channelWeights"]; ok {
			cfg.ChannelWeights = w.(map[string]float64)
		}
		if b, ok := fields["includeNsfwChannels"]; ok {
			cfg.IncludeNsfw = b.(bool)
		}
		if b, ok := fields["simplifyGraph"]; ok {
			cfg.SimplifyGraph = b.(bool)
		}
		if n, ok := fields["beginningTimeMs"]; ok {
			cfg.BeginningTimeMs = int64(n.(float64))
		}
		if n, ok := fields["weekLimit"]; ok {
			cfg.WeekLimit = int(n.(float64))
		}
		if n, ok := fields["defaultReaction"]; ok {
			cfg.DefaultReaction = n.(float64)
		}
		return cfg, nil
	})
}
