package ledger

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/sourcecred/sourcecred-go/internal/allocation"
	"github.com/sourcecred/sourcecred-go/internal/clock"
	"github.com/sourcecred/sourcecred-go/internal/grain"
	"github.com/sourcecred/sourcecred-go/internal/identity"
	"github.com/sourcecred/sourcecred-go/internal/parser"
)

// eventP decodes one event line. Built once; parsers are immutable values.
var eventP = buildEventParser()

func timestampParser() parser.Parser[int64] {
	return parser.Fmap(parser.Number(), func(n float64) (int64, error) {
		if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
			return 0, &parser.Error{Expected: "nonnegative timestamp", Got: "out-of-range number"}
		}
		return int64(n), nil
	})
}

func uuidParser() parser.Parser[uuid.UUID] {
	return parser.Fmap(parser.String(), uuid.Parse)
}

func versionParser() parser.Parser[string] {
	return parser.Fmap(parser.String(), func(s string) (string, error) {
		if s != EventVersion {
			return "", &VersionError{Version: s}
		}
		return s, nil
	})
}

func nameParser() parser.Parser[identity.Name] {
	return parser.Fmap(parser.String(), identity.NewName)
}

func subtypeParser() parser.Parser[identity.Subtype] {
	return parser.Fmap(parser.String(), func(s string) (identity.Subtype, error) {
		st := identity.Subtype(s)
		if !identity.IsValidSubtype(st) {
			return "", &identity.InvalidSubtypeError{Subtype: st}
		}
		return st, nil
	})
}

func addressParser() parser.Parser[identity.NodeAddress] {
	return parser.Fmap(parser.String(), func(s string) (identity.NodeAddress, error) {
		return identity.NodeAddress(s), nil
	})
}

func aliasParser() parser.Parser[identity.Alias] {
	return parser.Fmap(
		parser.Object(map[string]parser.Field{
			"description": parser.Key(parser.String()),
			"address":     parser.Key(addressParser()),
		}, nil),
		func(fields map[string]any) (identity.Alias, error) {
			return identity.Alias{
				Description: fields["description"].(string),
				Address:     fields["address"].(identity.NodeAddress),
			}, nil
		},
	)
}

func identityParser() parser.Parser[identity.Identity] {
	return parser.Fmap(
		parser.Object(map[string]parser.Field{
			"id":      parser.Key(allocation.IdentityIdParser()),
			"name":    parser.Key(nameParser()),
			"subtype": parser.Key(subtypeParser()),
			"address": parser.Key(addressParser()),
			"aliases": parser.Key(parser.Array(aliasParser())),
		}, nil),
		func(fields map[string]any) (identity.Identity, error) {
			return identity.Identity{
				ID:      fields["id"].(identity.Id),
				Name:    fields["name"].(identity.Name),
				Subtype: fields["subtype"].(identity.Subtype),
				Address: fields["address"].(identity.NodeAddress),
				Aliases: fields["aliases"].([]identity.Alias),
			}, nil
		},
	)
}

func distributionParser() parser.Parser[allocation.Distribution] {
	receipt := parser.Fmap(
		parser.Object(map[string]parser.Field{
			"id":     parser.Key(allocation.IdentityIdParser()),
			"amount": parser.Key(allocation.GrainParser()),
		}, nil),
		func(fields map[string]any) (allocation.Receipt, error) {
			return allocation.Receipt{
				ID:     fields["id"].(identity.Id),
				Amount: fields["amount"].(grain.Grain),
			}, nil
		},
	)
	alloc := parser.Fmap(
		parser.Object(map[string]parser.Field{
			"policy":   parser.Key(allocation.PolicyParser()),
			"receipts": parser.Key(parser.Array(receipt)),
		}, nil),
		func(fields map[string]any) (allocation.Allocation, error) {
			return allocation.Allocation{
				Policy:   fields["policy"].(allocation.Policy),
				Receipts: fields["receipts"].([]allocation.Receipt),
			}, nil
		},
	)
	return parser.Fmap(
		parser.Object(map[string]parser.Field{
			"credTimestamp": parser.Key(timestampParser()),
			"allocations":   parser.Key(parser.Array(alloc)),
		}, nil),
		func(fields map[string]any) (allocation.Distribution, error) {
			return allocation.Distribution{
				CredTimestamp: fields["credTimestamp"].(int64),
				Allocations:   fields["allocations"].([]allocation.Allocation),
			}, nil
		},
	)
}

func actionParser() parser.Parser[Action] {
	typeKey := func(t ActionType) parser.Field {
		return parser.Key(parser.Exactly(string(t)))
	}
	idKey := parser.Key(allocation.IdentityIdParser())

	createIdentity := parser.Fmap(
		parser.Object(map[string]parser.Field{
			"type":     typeKey(ActionCreateIdentity),
			"identity": parser.Key(identityParser()),
		}, nil),
		func(fields map[string]any) (Action, error) {
			return CreateIdentity{Identity: fields["identity"].(identity.Identity)}, nil
		},
	)
	renameIdentity := parser.Fmap(
		parser.Object(map[string]parser.Field{
			"type":       typeKey(ActionRenameIdentity),
			"identityId": idKey,
			"newName":    parser.Key(nameParser()),
		}, nil),
		func(fields map[string]any) (Action, error) {
			return RenameIdentity{
				IdentityID: fields["identityId"].(identity.Id),
				NewName:    fields["newName"].(identity.Name),
			}, nil
		},
	)
	addAlias := parser.Fmap(
		parser.Object(map[string]parser.Field{
			"type":       typeKey(ActionAddAlias),
			"identityId": idKey,
			"alias":      parser.Key(aliasParser()),
		}, nil),
		func(fields map[string]any) (Action, error) {
			return AddAlias{
				IdentityID: fields["identityId"].(identity.Id),
				Alias:      fields["alias"].(identity.Alias),
			}, nil
		},
	)
	removeAlias := parser.Fmap(
		parser.Object(map[string]parser.Field{
			"type":           typeKey(ActionRemoveAlias),
			"identityId":     idKey,
			"alias":          parser.Key(aliasParser()),
			"credProportion": parser.Key(parser.Number()),
		}, nil),
		func(fields map[string]any) (Action, error) {
			return RemoveAlias{
				IdentityID:     fields["identityId"].(identity.Id),
				Alias:          fields["alias"].(identity.Alias),
				CredProportion: fields["credProportion"].(float64),
			}, nil
		},
	)
	mergeIdentities := parser.Fmap(
		parser.Object(map[string]parser.Field{
			"type":   typeKey(ActionMergeIdentities),
			"base":   idKey,
			"target": idKey,
		}, nil),
		func(fields map[string]any) (Action, error) {
			return MergeIdentities{
				Base:   fields["base"].(identity.Id),
				Target: fields["target"].(identity.Id),
			}, nil
		},
	)
	toggleActivation := parser.Fmap(
		parser.Object(map[string]parser.Field{
			"type":       typeKey(ActionToggleActivation),
			"identityId": idKey,
		}, nil),
		func(fields map[string]any) (Action, error) {
			return ToggleActivation{IdentityID: fields["identityId"].(identity.Id)}, nil
		},
	)
	distributeGrain := parser.Fmap(
		parser.Object(map[string]parser.Field{
			"type":         typeKey(ActionDistributeGrain),
			"distribution": parser.Key(distributionParser()),
		}, nil),
		func(fields map[string]any) (Action, error) {
			return DistributeGrain{Distribution: fields["distribution"].(allocation.Distribution)}, nil
		},
	)
	transferGrain := parser.Fmap(
		parser.Object(map[string]parser.Field{
			"type":   typeKey(ActionTransferGrain),
			"from":   idKey,
			"to":     idKey,
			"amount": parser.Key(allocation.GrainParser()),
			"memo":   parser.Key(parser.Nullable(parser.String())),
		}, nil),
		func(fields map[string]any) (Action, error) {
			return TransferGrain{
				From:   fields["from"].(identity.Id),
				To:     fields["to"].(identity.Id),
				Amount: fields["amount"].(grain.Grain),
				Memo:   fields["memo"].(*string),
			}, nil
		},
	)

	return parser.OrElse(
		createIdentity, renameIdentity, addAlias, removeAlias,
		mergeIdentities, toggleActivation, distributeGrain, transferGrain,
	)
}

func buildEventParser() parser.Parser[Event] {
	return parser.Fmap(
		parser.Object(map[string]parser.Field{
			"action":          parser.Key(actionParser()),
			"ledgerTimestamp": parser.Key(timestampParser()),
			"uuid":            parser.Key(uuidParser()),
			"version":         parser.Key(versionParser()),
		}, nil),
		func(fields map[string]any) (Event, error) {
			return Event{
				Action:          fields["action"].(Action),
				LedgerTimestamp: fields["ledgerTimestamp"].(int64),
				UUID:            fields["uuid"].(uuid.UUID),
				Version:         fields["version"].(string),
			}, nil
		},
	)
}

// ParseEventLog reads the on-disk log: newline-delimited JSON, one event per
// line, or the legacy single-array form with one element per line. Errors
// carry the 1-based line number.
func ParseEventLog(data []byte) ([]Event, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	legacy := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		legacy = trimmed == "["
		break
	}

	var events []Event
	for idx, line := range lines {
		lineNo := idx + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if legacy {
			if trimmed == "[" || trimmed == "]" {
				continue
			}
			trimmed = strings.TrimSuffix(trimmed, ",")
		}
		e, err := eventP.ParseJSON([]byte(trimmed))
		if err != nil {
			return nil, &ParseError{Line: lineNo, Cause: err}
		}
		events = append(events, e)
	}
	return events, nil
}

// Parse rebuilds a ledger from serialized log text.
func Parse(clk clock.Clock, data []byte) (*Ledger, error) {
	events, err := ParseEventLog(data)
	if err != nil {
		return nil, err
	}
	return FromEventLog(clk, events)
}
