package ledger

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/sourcecred/sourcecred-go/internal/allocation"
	"github.com/sourcecred/sourcecred-go/internal/clock"
	"github.com/sourcecred/sourcecred-go/internal/grain"
	"github.com/sourcecred/sourcecred-go/internal/identity"
)

// Account is the grain-holding record attached to one identity.
type Account struct {
	Identity          identity.Identity `json:"identity"`
	Balance           grain.Grain       `json:"balance"`
	Paid              grain.Grain       `json:"paid"`
	Active            bool              `json:"active"`
	MergedIdentityIDs []identity.Id     `json:"mergedIdentityIds"`
}

func (a *Account) clone() Account {
	out := *a
	out.Identity = a.Identity.Clone()
	out.MergedIdentityIDs = append([]identity.Id(nil), a.MergedIdentityIDs...)
	return out
}

// Ledger is the authoritative store. It is single-writer: callers needing
// concurrency must serialize mutations externally. Every public mutation
// either appends exactly one event and updates state, or fails leaving both
// untouched.
type Ledger struct {
	clk           clock.Clock
	events        []Event
	accounts      map[identity.Id]*Account
	nameToID      map[identity.Name]identity.Id
	addressToID   map[identity.NodeAddress]identity.Id
	lastTimestamp int64

	// crossSubtypeMerge permits merging identities of different subtypes.
	// Off by default for operational safety.
	crossSubtypeMerge bool
}

// New returns an empty ledger drawing timestamps from clk.
func New(clk clock.Clock) *Ledger {
	return &Ledger{
		clk:           clk,
		accounts:      make(map[identity.Id]*Account),
		nameToID:      make(map[identity.Name]identity.Id),
		addressToID:   make(map[identity.NodeAddress]identity.Id),
		lastTimestamp: -1,
	}
}

// AllowCrossSubtypeMerge toggles whether MergeIdentities accepts identities
// of different subtypes.
func (l *Ledger) AllowCrossSubtypeMerge(allow bool) {
	l.crossSubtypeMerge = allow
}

// FromEventLog rebuilds a ledger by replaying events from the empty state,
// returning the first application error.
func FromEventLog(clk clock.Clock, events []Event) (*Ledger, error) {
	l := New(clk)
	for _, e := range events {
		if err := l.apply(e); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// CreateIdentity makes a new identity with an inactive zero-balance account
// and returns its id.
func (l *Ledger) CreateIdentity(subtype identity.Subtype, name string) (identity.Id, error) {
	ident, err := identity.New(subtype, name)
	if err != nil {
		return identity.Id{}, err
	}
	if err := l.append(CreateIdentity{Identity: ident}); err != nil {
		return identity.Id{}, err
	}
	return ident.ID, nil
}

// RenameIdentity changes an identity's name. Renaming to the current name is
// rejected to keep the log free of no-ops.
func (l *Ledger) RenameIdentity(id identity.Id, newName string) error {
	name, err := identity.NewName(newName)
	if err != nil {
		return err
	}
	return l.append(RenameIdentity{IdentityID: id, NewName: name})
}

// AddAlias binds alias to the identity.
func (l *Ledger) AddAlias(id identity.Id, alias identity.Alias) error {
	return l.append(AddAlias{IdentityID: id, Alias: alias})
}

// RemoveAlias unbinds alias from the identity, recording credProportion as
// retroactive-attribution metadata.
func (l *Ledger) RemoveAlias(id identity.Id, alias identity.Alias, credProportion float64) error {
	return l.append(RemoveAlias{IdentityID: id, Alias: alias, CredProportion: credProportion})
}

// MergeIdentities subsumes target into base.
func (l *Ledger) MergeIdentities(base, target identity.Id) error {
	return l.append(MergeIdentities{Base: base, Target: target})
}

// Activate enables distributions to the identity's account.
func (l *Ledger) Activate(id identity.Id) error {
	acc, ok := l.accounts[id]
	if !ok {
		return ErrUnknownIdentity
	}
	if acc.Active {
		return ErrAlreadyInDesiredState
	}
	return l.append(ToggleActivation{IdentityID: id})
}

// Deactivate disables distributions to the identity's account.
func (l *Ledger) Deactivate(id identity.Id) error {
	acc, ok := l.accounts[id]
	if !ok {
		return ErrUnknownIdentity
	}
	if !acc.Active {
		return ErrAlreadyInDesiredState
	}
	return l.append(ToggleActivation{IdentityID: id})
}

// DistributeGrain applies a computed distribution, crediting every receipt's
// balance and lifetime paid.
func (l *Ledger) DistributeGrain(dist allocation.Distribution) error {
	return l.append(DistributeGrain{Distribution: dist})
}

// TransferGrain moves amount from one account to another. A self-transfer is
// permitted: it changes no balance but still records an auditable event.
func (l *Ledger) TransferGrain(from, to identity.Id, amount grain.Grain, memo *string) error {
	return l.append(TransferGrain{From: from, To: to, Amount: amount, Memo: memo})
}

// CanonicalAddress resolves an alias or innate address to the innate address
// of its owning identity. Unknown addresses pass through unchanged.
func (l *Ledger) CanonicalAddress(addr identity.NodeAddress) identity.NodeAddress {
	if id, ok := l.addressToID[addr]; ok {
		return identity.InnateAddress(id)
	}
	return addr
}

// Account returns a deep-copied snapshot of one account.
func (l *Ledger) Account(id identity.Id) (Account, error) {
	acc, ok := l.accounts[id]
	if !ok {
		return Account{}, ErrUnknownIdentity
	}
	return acc.clone(), nil
}

// Accounts returns deep-copied snapshots of every account, ordered by
// identity name for deterministic output.
func (l *Ledger) Accounts() []Account {
	out := make([]Account, 0, len(l.accounts))
	for _, acc := range l.accounts {
		out = append(out, acc.clone())
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].Identity.Name < out[b].Identity.Name
	})
	return out
}

// Identities returns every live identity, ordered by name.
func (l *Ledger) Identities() []identity.Identity {
	accounts := l.Accounts()
	out := make([]identity.Identity, len(accounts))
	for idx, acc := range accounts {
		out[idx] = acc.Identity
	}
	return out
}

// IdentityByID returns the identity with the given id, if it is live.
func (l *Ledger) IdentityByID(id identity.Id) (identity.Identity, bool) {
	acc, ok := l.accounts[id]
	if !ok {
		return identity.Identity{}, false
	}
	return acc.Identity.Clone(), true
}

// IdentityByName looks an identity up by its (case-normalized) name.
func (l *Ledger) IdentityByName(raw string) (identity.Identity, bool) {
	name, err := identity.NewName(raw)
	if err != nil {
		return identity.Identity{}, false
	}
	id, ok := l.nameToID[name]
	if !ok {
		return identity.Identity{}, false
	}
	return l.accounts[id].Identity.Clone(), true
}

// EventLog returns a copy of the append-only log.
func (l *Ledger) EventLog() []Event {
	return append([]Event(nil), l.events...)
}

// LastDistributionTimestamp returns the cred timestamp of the most recent
// DISTRIBUTE_GRAIN event, or -1 if none has occurred.
func (l *Ledger) LastDistributionTimestamp() int64 {
	for idx := len(l.events) - 1; idx >= 0; idx-- {
		if d, ok := l.events[idx].Action.(DistributeGrain); ok {
			return d.Distribution.CredTimestamp
		}
	}
	return -1
}

// ActiveParticipants restricts a cred history to participants whose accounts
// exist and are active, the only identities a distribution may pay. Cred of
// filtered-out participants is not reassigned; their share of a proportional
// budget simply stays undistributed until they activate.
func (l *Ledger) ActiveParticipants(history allocation.CredHistory) allocation.CredHistory {
	out := allocation.CredHistory{IntervalEndsMs: history.IntervalEndsMs}
	for _, p := range history.Participants {
		if acc, ok := l.accounts[p.ID]; ok && acc.Active {
			out.Participants = append(out.Participants, p)
		}
	}
	return out
}

// LifetimePaid returns each live identity's lifetime payout, keyed by id.
// This is the payout-history input to the allocation engine.
func (l *Ledger) LifetimePaid() map[identity.Id]grain.Grain {
	out := make(map[identity.Id]grain.Grain, len(l.accounts))
	for id, acc := range l.accounts {
		out[id] = acc.Paid
	}
	return out
}

func (l *Ledger) append(action Action) error {
	return l.apply(Event{
		Action:          action,
		LedgerTimestamp: l.clk.Now().UnixMilli(),
		UUID:            uuid.New(),
		Version:         EventVersion,
	})
}

// apply is the single mutator. It validates the event completely before
// touching state, then mutates and pushes the event onto the log; a failing
// event leaves the ledger bit-identical.
func (l *Ledger) apply(e Event) error {
	if e.Version != EventVersion {
		return &VersionError{Version: e.Version}
	}
	if e.LedgerTimestamp < l.lastTimestamp {
		return ErrTimestampOutOfOrder
	}

	var err error
	switch a := e.Action.(type) {
	case CreateIdentity:
		err = l.applyCreateIdentity(a)
	case RenameIdentity:
		err = l.applyRenameIdentity(a)
	case AddAlias:
		err = l.applyAddAlias(a)
	case RemoveAlias:
		err = l.applyRemoveAlias(a)
	case MergeIdentities:
		err = l.applyMergeIdentities(a)
	case ToggleActivation:
		err = l.applyToggleActivation(a)
	case DistributeGrain:
		err = l.applyDistributeGrain(a)
	case TransferGrain:
		err = l.applyTransferGrain(a)
	default:
		err = ErrUnknownAction
	}
	if err != nil {
		return err
	}

	l.lastTimestamp = e.LedgerTimestamp
	l.events = append(l.events, e)
	return nil
}

func (l *Ledger) applyCreateIdentity(a CreateIdentity) error {
	ident := a.Identity
	if ident.Address != identity.InnateAddress(ident.ID) {
		return ErrAddressMismatch
	}
	if _, exists := l.accounts[ident.ID]; exists {
		return ErrIdentityExists
	}
	if _, taken := l.nameToID[ident.Name]; taken {
		return ErrNameTaken
	}
	if _, bound := l.addressToID[ident.Address]; bound {
		return ErrAliasBoundElsewhere
	}
	seen := make(map[identity.NodeAddress]struct{}, len(ident.Aliases))
	for _, alias := range ident.Aliases {
		if _, dup := seen[alias.Address]; dup {
			return &identity.DuplicateAliasError{Address: alias.Address}
		}
		seen[alias.Address] = struct{}{}
		if _, bound := l.addressToID[alias.Address]; bound {
			return ErrAliasBoundElsewhere
		}
	}

	l.accounts[ident.ID] = &Account{
		Identity: ident.Clone(),
		Balance:  grain.Zero(),
		Paid:     grain.Zero(),
	}
	l.nameToID[ident.Name] = ident.ID
	l.addressToID[ident.Address] = ident.ID
	for _, alias := range ident.Aliases {
		l.addressToID[alias.Address] = ident.ID
	}
	return nil
}

func (l *Ledger) applyRenameIdentity(a RenameIdentity) error {
	acc, ok := l.accounts[a.IdentityID]
	if !ok {
		return ErrUnknownIdentity
	}
	if acc.Identity.Name == a.NewName {
		return ErrNameUnchanged
	}
	if _, taken := l.nameToID[a.NewName]; taken {
		return ErrNameTaken
	}

	delete(l.nameToID, acc.Identity.Name)
	acc.Identity.Name = a.NewName
	l.nameToID[a.NewName] = a.IdentityID
	return nil
}

func (l *Ledger) applyAddAlias(a AddAlias) error {
	acc, ok := l.accounts[a.IdentityID]
	if !ok {
		return ErrUnknownIdentity
	}
	if _, bound := l.addressToID[a.Alias.Address]; bound {
		for _, alias := range acc.Identity.Aliases {
			if alias.Address == a.Alias.Address {
				return ErrAliasAlreadyOnIdentity
			}
		}
		// Bound to another identity, or reserved as an innate address.
		return ErrAliasBoundElsewhere
	}

	acc.Identity.Aliases = append(acc.Identity.Aliases, a.Alias)
	l.addressToID[a.Alias.Address] = a.IdentityID
	return nil
}

func (l *Ledger) applyRemoveAlias(a RemoveAlias) error {
	acc, ok := l.accounts[a.IdentityID]
	if !ok {
		return ErrUnknownIdentity
	}
	if math.IsNaN(a.CredProportion) || a.CredProportion < 0 || a.CredProportion > 1 {
		return ErrInvalidProportion
	}
	if a.Alias.Address == acc.Identity.Address {
		return ErrCannotRemoveInnate
	}
	at := -1
	for idx, alias := range acc.Identity.Aliases {
		if alias.Address == a.Alias.Address {
			at = idx
			break
		}
	}
	if at < 0 {
		return ErrAliasNotPresent
	}

	acc.Identity.Aliases = append(acc.Identity.Aliases[:at], acc.Identity.Aliases[at+1:]...)
	delete(l.addressToID, a.Alias.Address)
	return nil
}

func (l *Ledger) applyMergeIdentities(a MergeIdentities) error {
	if a.Base == a.Target {
		return ErrSameIdentity
	}
	base, ok := l.accounts[a.Base]
	if !ok {
		return ErrUnknownIdentity
	}
	target, ok := l.accounts[a.Target]
	if !ok {
		return ErrUnknownIdentity
	}
	if !l.crossSubtypeMerge && base.Identity.Subtype != target.Identity.Subtype {
		return ErrSubtypeMismatch
	}

	// The target's aliases and innate address all resolve to base from now
	// on; the innate address is retargeted without being listed as an alias,
	// mirroring how an identity's own innate address is reserved but
	// unlisted.
	base.Identity.Aliases = append(base.Identity.Aliases, target.Identity.Aliases...)
	for _, alias := range target.Identity.Aliases {
		l.addressToID[alias.Address] = a.Base
	}
	l.addressToID[target.Identity.Address] = a.Base

	base.Balance = base.Balance.Add(target.Balance)
	base.Paid = base.Paid.Add(target.Paid)
	base.MergedIdentityIDs = append(base.MergedIdentityIDs, a.Target)
	base.MergedIdentityIDs = append(base.MergedIdentityIDs, target.MergedIdentityIDs...)

	delete(l.nameToID, target.Identity.Name)
	delete(l.accounts, a.Target)
	return nil
}

func (l *Ledger) applyToggleActivation(a ToggleActivation) error {
	acc, ok := l.accounts[a.IdentityID]
	if !ok {
		return ErrUnknownIdentity
	}
	acc.Active = !acc.Active
	return nil
}

func (l *Ledger) applyDistributeGrain(a DistributeGrain) error {
	// Validate every receipt before crediting any of them.
	for _, alloc := range a.Distribution.Allocations {
		for _, r := range alloc.Receipts {
			if r.Amount.Sign() < 0 {
				return ErrNegativeReceipt
			}
			acc, ok := l.accounts[r.ID]
			if !ok {
				return ErrUnknownIdentity
			}
			if !acc.Active {
				return ErrInactiveRecipient
			}
		}
	}

	for _, alloc := range a.Distribution.Allocations {
		for _, r := range alloc.Receipts {
			acc := l.accounts[r.ID]
			acc.Balance = acc.Balance.Add(r.Amount)
			acc.Paid = acc.Paid.Add(r.Amount)
		}
	}
	return nil
}

func (l *Ledger) applyTransferGrain(a TransferGrain) error {
	from, ok := l.accounts[a.From]
	if !ok {
		return ErrUnknownIdentity
	}
	to, ok := l.accounts[a.To]
	if !ok {
		return ErrUnknownIdentity
	}
	if a.Amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if from.Balance.Lt(a.Amount) {
		return ErrInsufficientBalance
	}

	from.Balance = from.Balance.Sub(a.Amount)
	to.Balance = to.Balance.Add(a.Amount)
	return nil
}
