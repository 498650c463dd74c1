// Package ledger implements the event-sourced store of identities, accounts,
// and grain balances. Every mutation is recorded as one event in an
// append-only log; replaying the log from the empty state reproduces the
// exact in-memory state, so the log is the single source of truth.
package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/sourcecred/sourcecred-go/internal/allocation"
	"github.com/sourcecred/sourcecred-go/internal/grain"
	"github.com/sourcecred/sourcecred-go/internal/identity"
)

// EventVersion is the wire version of every currently defined event.
const EventVersion = "1"

// ActionType discriminates the event payload variants.
type ActionType string

const (
	ActionCreateIdentity   ActionType = "CREATE_IDENTITY"
	ActionRenameIdentity   ActionType = "RENAME_IDENTITY"
	ActionAddAlias         ActionType = "ADD_ALIAS"
	ActionRemoveAlias      ActionType = "REMOVE_ALIAS"
	ActionMergeIdentities  ActionType = "MERGE_IDENTITIES"
	ActionToggleActivation ActionType = "TOGGLE_ACTIVATION"
	ActionDistributeGrain  ActionType = "DISTRIBUTE_GRAIN"
	ActionTransferGrain    ActionType = "TRANSFER_GRAIN"
)

// Action is the tagged payload of a ledger event.
type Action interface {
	Type() ActionType
}

// CreateIdentity introduces a new identity with an inactive, zero-balance
// account.
type CreateIdentity struct {
	Identity identity.Identity `json:"identity"`
}

func (CreateIdentity) Type() ActionType { return ActionCreateIdentity }

// RenameIdentity changes an identity's name; the id is unaffected.
type RenameIdentity struct {
	IdentityID identity.Id   `json:"identityId"`
	NewName    identity.Name `json:"newName"`
}

func (RenameIdentity) Type() ActionType { return ActionRenameIdentity }

// AddAlias binds an external address to an identity.
type AddAlias struct {
	IdentityID identity.Id    `json:"identityId"`
	Alias      identity.Alias `json:"alias"`
}

func (AddAlias) Type() ActionType { return ActionAddAlias }

// RemoveAlias frees an alias. CredProportion records, for accounting
// continuity, the share of the identity's past payouts attributable to the
// departing alias; the ledger stores it without acting on it.
type RemoveAlias struct {
	IdentityID     identity.Id    `json:"identityId"`
	Alias          identity.Alias `json:"alias"`
	CredProportion float64        `json:"credProportion"`
}

func (RemoveAlias) Type() ActionType { return ActionRemoveAlias }

// MergeIdentities subsumes Target into Base: aliases, balance, and paid move
// to Base, and Target's id remains resolvable to Base forever.
type MergeIdentities struct {
	Base   identity.Id `json:"base"`
	Target identity.Id `json:"target"`
}

func (MergeIdentities) Type() ActionType { return ActionMergeIdentities }

// ToggleActivation flips whether the identity's account may receive
// distributions.
type ToggleActivation struct {
	IdentityID identity.Id `json:"identityId"`
}

func (ToggleActivation) Type() ActionType { return ActionToggleActivation }

// DistributeGrain credits each receipt's amount to the recipient's balance
// and lifetime paid.
type DistributeGrain struct {
	Distribution allocation.Distribution `json:"distribution"`
}

func (DistributeGrain) Type() ActionType { return ActionDistributeGrain }

// TransferGrain moves balance between accounts. Paid totals are unaffected.
type TransferGrain struct {
	From   identity.Id `json:"from"`
	To     identity.Id `json:"to"`
	Amount grain.Grain `json:"amount"`
	Memo   *string     `json:"memo"`
}

func (TransferGrain) Type() ActionType { return ActionTransferGrain }

// Event is one entry of the append-only log.
type Event struct {
	Action          Action
	LedgerTimestamp int64
	UUID            uuid.UUID
	Version         string
}

// MarshalJSON renders the wire shape: exactly the keys action,
// ledgerTimestamp, uuid, version, with the action's type injected as
// action.type.
func (e Event) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(e.Action)
	if err != nil {
		return nil, err
	}
	var action map[string]any
	if err := json.Unmarshal(payload, &action); err != nil {
		return nil, err
	}
	action["type"] = string(e.Action.Type())
	return json.Marshal(struct {
		Action          map[string]any `json:"action"`
		LedgerTimestamp int64          `json:"ledgerTimestamp"`
		UUID            uuid.UUID      `json:"uuid"`
		Version         string         `json:"version"`
	}{
		Action:          action,
		LedgerTimestamp: e.LedgerTimestamp,
		UUID:            e.UUID,
		Version:         e.Version,
	})
}

func (e Event) String() string {
	return fmt.Sprintf("%s@%d", e.Action.Type(), e.LedgerTimestamp)
}
